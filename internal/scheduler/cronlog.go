package scheduler

import (
	"fmt"

	"github.com/wonny/quantum/pkg/logger"
)

// cronLogger adapts pkg/logger to cron.Logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error("cron: " + msg)
}

func fields(kv []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}
