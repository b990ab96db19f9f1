// Package observability carries the logging and metrics plumbing: a
// logrus entry travelling in the context (with the correlation ID), a
// watermill adapter over it, and the prometheus counters.
package observability

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	correlationIDKey
)

// InitLogging sets the process-wide logrus defaults.
func InitLogging(level logrus.Level) {
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})
}

// ToContext stores the entry in the context. Handlers downstream pick it up
// with FromContext and inherit its fields.
func ToContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey, entry)
}

// FromContext returns the context's entry, or the standard logger when the
// context carries none.
func FromContext(ctx context.Context) *logrus.Entry {
	entry, ok := ctx.Value(loggerKey).(*logrus.Entry)
	if !ok {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return entry
}

// ContextWithCorrelationID stores the correlation ID for propagation into
// published messages and outgoing logs.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}
