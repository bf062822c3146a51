package logger

import (
	"strings"

	"religious_services_backend/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Release mode starts from zap's production
// preset, anything else from the development one; LOG_FORMAT=json switches
// the encoder either way.
func New(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if cfg.GinMode == "release" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.LogLevel))
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zc.Encoding = "console"
	if strings.EqualFold(cfg.LogFormat, "json") {
		zc.Encoding = "json"
		zc.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	}
	return zc.Build()
}

// ParseLevel accepts zap level names in any case plus "warning". Unknown
// values mean info.
func ParseLevel(level string) zapcore.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return zapcore.WarnLevel
	}
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}
