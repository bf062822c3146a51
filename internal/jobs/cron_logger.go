package jobs

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// zapCronLogger lets robfig/cron report through zap. cron logs every tick at
// info, so those lines are demoted to debug.
type zapCronLogger struct {
	logger *zap.Logger
}

func NewCronLogger(logger *zap.Logger) cron.Logger {
	return zapCronLogger{logger: logger}
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, pairs(keysAndValues)...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(pairs(keysAndValues), zap.Error(err))...)
}

// pairs turns cron's alternating key/value list into zap fields. A dangling
// key is kept with a nil value.
func pairs(kv []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		var value interface{}
		if i+1 < len(kv) {
			value = kv[i+1]
		}
		fields = append(fields, zap.Any(fmt.Sprint(kv[i]), value))
	}
	return fields
}
