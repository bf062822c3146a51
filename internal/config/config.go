package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application. Duration fields are
// filled by Load from plain numbers in the unit their key names, so the
// decoder skips them.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"-"`
	CORSOrigins   []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"-"`
	DBAutoMigrate     bool          `mapstructure:"DB_AUTO_MIGRATE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// JWT
	JWTSecretKey                string        `mapstructure:"JWT_SECRET_KEY"`
	JWTAccessTokenExpiryMinutes time.Duration `mapstructure:"-"`
	JWTRefreshTokenExpiryDays   time.Duration `mapstructure:"-"`
	JWTIssuer                   string        `mapstructure:"JWT_ISSUER"`

	// Redis (badge count cache). Empty URL disables caching.
	RedisURL      string        `mapstructure:"REDIS_URL"`
	BadgeCacheTTL time.Duration `mapstructure:"-"`

	// Elasticsearch. Empty URL disables search indexing.
	ElasticsearchURL   string `mapstructure:"ELASTICSEARCH_URL"`
	QuestionsIndexName string `mapstructure:"ELASTICSEARCH_QUESTIONS_INDEX"`

	// Events. Empty broker list selects the in-process channel.
	KafkaBrokers          []string `mapstructure:"KAFKA_BROKERS"`
	KafkaConsumerGroup    string   `mapstructure:"KAFKA_CONSUMER_GROUP"`
	QuestionAnsweredTopic string   `mapstructure:"EVENTS_QUESTION_ANSWERED_TOPIC"`

	// Firebase Cloud Messaging. Empty key path disables push.
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`

	// Uploads
	UploadsPath      string `mapstructure:"UPLOADS_PATH"`
	UploadsURLPrefix string `mapstructure:"UPLOADS_URL_PREFIX"`
	MaxUploadSizeMB  int64  `mapstructure:"MAX_UPLOAD_SIZE_MB"`

	// Cron Jobs
	NotificationCleanupJobSchedule string `mapstructure:"NOTIFICATION_CLEANUP_JOB_SCHEDULE"`
	NotificationRetentionDays      int    `mapstructure:"NOTIFICATION_RETENTION_DAYS"`
}

// defaults apply when neither the environment nor .env sets a key.
// Durations are plain numbers in the unit their key names.
var defaults = map[string]interface{}{
	"GIN_MODE":               "debug",
	"SERVER_HOST":            "0.0.0.0",
	"SERVER_PORT":            "8080",
	"SERVER_TIMEOUT_SECONDS": 30,
	"CORS_ALLOWED_ORIGINS":   "*",

	"DB_HOST":                      "localhost",
	"DB_PORT":                      "5432",
	"DB_USER":                      "postgres",
	"DB_PASSWORD":                  "password",
	"DB_NAME":                      "religious_services_db",
	"DB_SSL_MODE":                  "disable",
	"DB_TIMEZONE":                  "Asia/Jerusalem",
	"DB_MAX_IDLE_CONNS":            10,
	"DB_MAX_OPEN_CONNS":            100,
	"DB_CONN_MAX_LIFETIME_MINUTES": 60,
	"DB_AUTO_MIGRATE":              true,

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "console",

	"JWT_SECRET_KEY":                  "",
	"JWT_ACCESS_TOKEN_EXPIRY_MINUTES": 60,
	"JWT_REFRESH_TOKEN_EXPIRY_DAYS":   7,
	"JWT_ISSUER":                      "religious_services_backend",

	"REDIS_URL":               "",
	"BADGE_CACHE_TTL_SECONDS": 5,

	"ELASTICSEARCH_URL":             "",
	"ELASTICSEARCH_QUESTIONS_INDEX": "questions",

	"KAFKA_BROKERS":                  "",
	"KAFKA_CONSUMER_GROUP":           "religious_services_backend",
	"EVENTS_QUESTION_ANSWERED_TOPIC": "question.answered",

	"FIREBASE_SERVICE_ACCOUNT_KEY_PATH": "",
	"FIREBASE_PROJECT_ID":               "",

	"UPLOADS_PATH":       "./uploads",
	"UPLOADS_URL_PREFIX": "/uploads",
	"MAX_UPLOAD_SIZE_MB": 5,

	"NOTIFICATION_CLEANUP_JOB_SCHEDULE": "@daily",
	"NOTIFICATION_RETENTION_DAYS":       90,
}

// DSN returns the PostgreSQL connection string GORM expects.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

// Load reads an optional .env file, then the environment, over the defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	for key, dst := range map[string]struct {
		field *time.Duration
		unit  time.Duration
	}{
		"SERVER_TIMEOUT_SECONDS":          {&cfg.ServerTimeout, time.Second},
		"DB_CONN_MAX_LIFETIME_MINUTES":    {&cfg.DBConnMaxLifetime, time.Minute},
		"JWT_ACCESS_TOKEN_EXPIRY_MINUTES": {&cfg.JWTAccessTokenExpiryMinutes, time.Minute},
		"JWT_REFRESH_TOKEN_EXPIRY_DAYS":   {&cfg.JWTRefreshTokenExpiryDays, 24 * time.Hour},
		"BADGE_CACHE_TTL_SECONDS":         {&cfg.BadgeCacheTTL, time.Second},
	} {
		*dst.field = time.Duration(v.GetInt(key)) * dst.unit
	}
	cfg.CORSOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return errors.New("JWT_SECRET_KEY is not set")
	}
	if c.FirebaseServiceAccountKeyPath != "" {
		if _, err := os.Stat(c.FirebaseServiceAccountKeyPath); err != nil {
			return fmt.Errorf("FIREBASE_SERVICE_ACCOUNT_KEY_PATH: %w", err)
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
