package observability

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
)

// WatermillLogrusAdapter routes watermill's internal logging through logrus
// so router logs and application logs share one stream.
type WatermillLogrusAdapter struct {
	entry *logrus.Entry
}

func NewWatermillLogrusAdapter(entry *logrus.Entry) WatermillLogrusAdapter {
	return WatermillLogrusAdapter{entry: entry}
}

func (a WatermillLogrusAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.entry.WithError(err).WithFields(logrus.Fields(fields)).Error(msg)
}

func (a WatermillLogrusAdapter) Info(msg string, fields watermill.LogFields) {
	a.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

func (a WatermillLogrusAdapter) Debug(msg string, fields watermill.LogFields) {
	a.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (a WatermillLogrusAdapter) Trace(msg string, fields watermill.LogFields) {
	a.entry.WithFields(logrus.Fields(fields)).Trace(msg)
}

func (a WatermillLogrusAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return WatermillLogrusAdapter{entry: a.entry.WithFields(logrus.Fields(fields))}
}
