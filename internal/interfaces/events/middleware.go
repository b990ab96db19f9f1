package events

import (
	"encoding/json"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tickets/internal/observability"
)

func CorrelationIDMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := msg.Metadata.Get("correlation_id")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		ctx := observability.ContextWithCorrelationID(msg.Context(), correlationID)
		ctx = observability.ToContext(ctx,
			logrus.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"message_uuid":   msg.UUID,
			}),
		)
		msg.SetContext(ctx)

		return next(msg)
	}
}

func LoggingMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		observability.FromContext(msg.Context()).
			WithField("metadata", msg.Metadata).
			Debug("Handling a message")

		messages, err := next(msg)
		if err != nil {
			observability.FromContext(msg.Context()).
				WithField("payload", string(msg.Payload)).
				WithError(err).
				Error("Message handling error")
		}

		return messages, err
	}
}

// MetricsMiddleware counts handled messages by result.
func MetricsMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		messages, err := next(msg)
		if err != nil {
			observability.MessagesHandled.WithLabelValues("error").Inc()
		} else {
			observability.MessagesHandled.WithLabelValues("ok").Inc()
		}
		return messages, err
	}
}

var ErrJSONUnmarshal = errors.New("json unmarshal error")

func isUnmarshalError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.Is(err, ErrJSONUnmarshal) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// SkipMarshallingErrorsMiddleware drops malformed messages instead of
// retrying them forever.
func SkipMarshallingErrorsMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		messages, err := next(msg)
		if err != nil && isUnmarshalError(err) {
			observability.FromContext(msg.Context()).
				WithError(err).
				Warn("Skipping unmarshalable message")
			return nil, nil
		}
		return messages, err
	}
}
