package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/marketplace-backend/pkg/logger"
)

// cronLogger adapts the service logger to robfig/cron's Logger interface.
type cronLogger struct {
	ctx  context.Context
	logg *logger.Logger
}

func newCronLogger(ctx context.Context, logg *logger.Logger) cronLogger {
	return cronLogger{ctx: logg.WithField(ctx, "component", "scheduler"), logg: logg}
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logg.Info(l.withPairs(keysAndValues), msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logg.Error(l.withPairs(keysAndValues), msg, err)
}

func (l cronLogger) withPairs(keysAndValues []any) context.Context {
	if len(keysAndValues) == 0 {
		return l.ctx
	}
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.logg.WithFields(l.ctx, fields)
}
