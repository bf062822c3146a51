// Package firebase sends push messages through Firebase Cloud Messaging.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"religious_services_backend/internal/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrTokenUnregistered reports a device token FCM no longer accepts.
var ErrTokenUnregistered = errors.New("device token is no longer registered")

// PushMessage is a single notification addressed to one device.
type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// FirebaseService wraps the FCM client. Without a service account key it is
// disabled and Send does nothing.
type FirebaseService struct {
	client *messaging.Client
	logger *zap.Logger
}

// NewFirebaseService initializes the Firebase Admin SDK when
// FIREBASE_SERVICE_ACCOUNT_KEY_PATH is set.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	log := logger.Named("Firebase")
	if cfg.FirebaseServiceAccountKeyPath == "" {
		log.Info("Firebase service account key path not configured, push messages disabled")
		return &FirebaseService{logger: log}, nil
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		log.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Error("Failed to get Firebase Messaging client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Messaging client: %w", err)
	}

	log.Info("Firebase Admin SDK initialized successfully.")
	return &FirebaseService{client: client, logger: log}, nil
}

// Enabled reports whether messages are actually delivered.
func (s *FirebaseService) Enabled() bool {
	return s != nil && s.client != nil
}

// Send delivers msg. It returns ErrTokenUnregistered when FCM rejects the
// token as stale so callers can forget it.
func (s *FirebaseService) Send(ctx context.Context, msg PushMessage) error {
	if !s.Enabled() {
		return nil
	}
	if msg.Token == "" {
		return fmt.Errorf("device token must not be empty")
	}

	id, err := s.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err != nil {
		if messaging.IsUnregistered(err) {
			return ErrTokenUnregistered
		}
		s.logger.Warn("FCM send failed", zap.Error(err))
		return fmt.Errorf("failed to send push message: %w", err)
	}

	s.logger.Debug("Push message sent", zap.String("messageID", id))
	return nil
}
