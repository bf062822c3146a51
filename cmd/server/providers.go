package main

import (
	"religious_services_backend/internal/app"
	"religious_services_backend/internal/badge"
	"religious_services_backend/internal/config"
	"religious_services_backend/internal/firebase"
	"religious_services_backend/internal/notification"
	"religious_services_backend/internal/platform/cache"
	"religious_services_backend/internal/platform/database"
	es "religious_services_backend/internal/platform/elasticsearch"
	"religious_services_backend/internal/platform/events"
	applogger "religious_services_backend/internal/platform/logger"
	"religious_services_backend/internal/push"
	"religious_services_backend/internal/question"
	"religious_services_backend/internal/user"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// provideDatabase opens the connection pool and migrates the schema when
// DB_AUTO_MIGRATE is on.
func provideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := app.Migrate(db, logger); err != nil {
			database.Close(db, logger)
			return nil, nil, err
		}
	}
	return db, func() { database.Close(db, logger) }, nil
}

func provideCacheHelper(client *redis.Client) *cache.Helper {
	return cache.NewHelper(client)
}

func provideBadgeService(questions question.Repository, notifications notification.Repository, helper *cache.Helper, cfg *config.Config, logger *zap.Logger) *badge.Service {
	return badge.NewService(questions, notifications, helper, cfg.BadgeCacheTTL, logger)
}

func provideQuestionIndexer(client *es.ESClientWrapper, cfg *config.Config, logger *zap.Logger) *question.ESIndexer {
	return question.NewESIndexer(client, cfg.QuestionsIndexName, logger)
}

func provideQuestionService(
	repo question.Repository,
	users *user.ServiceImplementation,
	badges *badge.Service,
	indexer *question.ESIndexer,
	bus *events.Bus,
	cfg *config.Config,
	logger *zap.Logger,
) *question.ServiceImplementation {
	return question.NewService(repo, users, badges, indexer, bus, cfg.QuestionAnsweredTopic, logger)
}

func provideNotificationService(repo notification.Repository, badges *badge.Service, logger *zap.Logger) notification.Service {
	return notification.NewService(repo, badges, logger)
}

func provideDispatcher(bus *events.Bus, users *user.ServiceImplementation, sender *firebase.FirebaseService, cfg *config.Config, logger *zap.Logger) *push.Dispatcher {
	return push.NewDispatcher(bus, users, sender, cfg.QuestionAnsweredTopic, logger)
}

// provideLogger flushes buffered log entries on shutdown.
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := applogger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Sync() }, nil
}
