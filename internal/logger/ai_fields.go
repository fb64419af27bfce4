package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Field keys shared by every log line the judge emits, so one provider's
// calls can be filtered out of a mixed stream.
const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
)

// StringField is one string-valued log field candidate.
type StringField struct {
	Key   string
	Value string
}

// StringFields turns the candidates into zap fields. Keys and values are
// trimmed; entries left empty after trimming are dropped.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger. A nil logger falls back to a
// no-op one, so callers never have to guard the return value.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields builds the provider/model fields for scoring log lines.
// Whatever is unknown is simply left off the entry.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields tags the logger with the judging provider and model.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}
