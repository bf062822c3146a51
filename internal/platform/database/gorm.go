package database

import (
	"fmt"
	"time"

	"religious_services_backend/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLevel maps the application LOG_LEVEL onto GORM's coarser levels.
// SQL statements are only traced at debug.
func gormLevel(appLevel string) gormlogger.LogLevel {
	switch appLevel {
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	case "silent", "fatal", "panic":
		return gormlogger.Silent
	}
	return gormlogger.Warn
}

// NewGORM opens the PostgreSQL pool, applies the pool limits and pings it.
func NewGORM(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	sqlLog := gormlogger.New(zap.NewStdLog(logger.Named("gorm")), gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  gormLevel(cfg.LogLevel),
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{Logger: sqlLog, PrepareStmt: true})
	if err != nil {
		return nil, fmt.Errorf("open postgres %s/%s: %w", cfg.DBHost, cfg.DBName, err)
	}

	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	pool.SetMaxIdleConns(cfg.DBMaxIdleConns)
	pool.SetMaxOpenConns(cfg.DBMaxOpenConns)
	pool.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping postgres %s/%s: %w", cfg.DBHost, cfg.DBName, err)
	}

	logger.Info("Connected to database", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return db, nil
}

// Close releases the pool behind db. A nil db is ignored.
func Close(db *gorm.DB, logger *zap.Logger) {
	if db == nil {
		return
	}
	pool, err := db.DB()
	if err == nil {
		err = pool.Close()
	}
	if err != nil {
		logger.Warn("Failed to close database pool", zap.Error(err))
	}
}
