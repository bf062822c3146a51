// Package jobs holds the scheduled background work.
package jobs

import (
	"context"
	"time"

	"religious_services_backend/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// NotificationPurger deletes read notifications past their retention.
type NotificationPurger interface {
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NotificationCleanupJob periodically purges old read notifications.
type NotificationCleanupJob struct {
	purger        NotificationPurger
	schedule      string
	retention     time.Duration
	logger        *zap.Logger
	cronScheduler *cron.Cron
}

// NewNotificationCleanupJob creates the job. A non-positive retention falls back to 90 days.
func NewNotificationCleanupJob(purger NotificationPurger, logger *zap.Logger, cfg *config.Config) *NotificationCleanupJob {
	days := cfg.NotificationRetentionDays
	if days <= 0 {
		days = 90
	}
	cronLog := NewCronLogger(logger.Named("cron"))
	scheduler := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	return &NotificationCleanupJob{
		purger:        purger,
		schedule:      cfg.NotificationCleanupJobSchedule,
		retention:     time.Duration(days) * 24 * time.Hour,
		logger:        logger.Named("NotificationCleanupJob"),
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *NotificationCleanupJob) SetupAndStart() error {
	if j.schedule == "" {
		j.logger.Warn("Notification cleanup schedule not defined (NOTIFICATION_CLEANUP_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(j.schedule, j.RunOnce)
	if err != nil {
		j.logger.Error("Failed to schedule notification cleanup job", zap.String("schedule", j.schedule), zap.Error(err))
		return err
	}

	j.logger.Info("Notification cleanup job scheduled",
		zap.String("schedule", j.schedule),
		zap.Int("jobID", int(jobID)),
		zap.Duration("retention", j.retention))
	j.cronScheduler.Start()
	return nil
}

// RunOnce performs a single cleanup pass.
func (j *NotificationCleanupJob) RunOnce() {
	j.logger.Info("Starting notification cleanup run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := j.purger.PurgeRead(ctx, j.retention)
	if err != nil {
		j.logger.Error("Notification cleanup run failed", zap.Error(err))
		return
	}
	j.logger.Info("Notification cleanup run completed", zap.Int64("notifications_deleted", deleted))
}

// Stop gracefully stops the cron scheduler.
func (j *NotificationCleanupJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping notification cleanup scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Notification cleanup scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Notification cleanup scheduler stop timed out.")
	}
}
