package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared across the assistant.
const (
	FieldProvider = "provider"
	FieldModel    = "ai_model"
	FieldSession  = "session_id"
	FieldIntent   = "intent"
)

// StringField is a key/value pair that is only logged when both sides are set.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts pairs into zap fields. Blank keys or values are dropped.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key, value := strings.TrimSpace(field.Key), strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields returns log enriched with fields. A nil log becomes a no-op logger.
func WithFields(log *zap.Logger, fields ...zap.Field) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if len(fields) == 0 {
		return log
	}

	return log.With(fields...)
}

// WithProvider tags entries with the upstream provider and, for AI backends, the model.
func WithProvider(log *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(log, StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)...)
}

func WithSession(log *zap.Logger, sessionID string) *zap.Logger {
	return WithFields(log, StringFields(StringField{Key: FieldSession, Value: sessionID})...)
}
