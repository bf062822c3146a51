package app

import (
	"fmt"

	"religious_services_backend/internal/content"
	"religious_services_backend/internal/notification"
	"religious_services_backend/internal/question"
	"religious_services_backend/internal/synagogue"
	"religious_services_backend/internal/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table the application owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&question.Question{},
		&question.Answer{},
		&notification.Notification{},
		&synagogue.Synagogue{},
		&content.Post{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("Database migrations completed.")
	return nil
}
