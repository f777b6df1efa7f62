package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldRunID identifies one pipeline run across all of its log entries.
	FieldRunID = "run_id"
	// FieldVariant is the pipeline variant name.
	FieldVariant   = "pipeline"
	FieldStage     = "stage"
	FieldCandidate = "candidate"
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
)

// StringField is a key/value pair that is logged only when both are set.
type StringField struct {
	Key   string
	Value string
}

// StringFields trims the pairs and drops those with an empty key or value.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		key, value := strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to logger. A nil logger becomes a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// Stage returns the field naming a pipeline stage.
func Stage(name string) zap.Field {
	return zap.String(FieldStage, name)
}

// Candidate returns the field naming a candidate.
func Candidate(name string) zap.Field {
	return zap.String(FieldCandidate, name)
}

// WithRun attaches the run id and variant to the logger, skipping empty values.
func WithRun(logger *zap.Logger, runID, variant string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldRunID, Value: runID},
		StringField{Key: FieldVariant, Value: variant},
	)...)
}

// WithModel attaches the text generation provider and model.
func WithModel(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)...)
}
