package logging

import (
	"context"
	"log/slog"

	"voicecorpus/internal/services"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the structured logging key for build run identifiers.
	FieldRunID = "run_id"
	// FieldStage is the structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldRecording is the structured logging key for the source recording being processed.
	FieldRecording = "recording"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries an operator-facing next step.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the decision being logged (segment_validation, transcript_filter).
	FieldDecisionType = "decision_type"
	// FieldDecisionResult is accepted or rejected.
	FieldDecisionResult = "decision_result"
	// FieldDecisionReason is the rejection reason code, or "ok".
	FieldDecisionReason = "decision_reason"
	// FieldSegmentIndex is the zero-based segment position within a recording.
	FieldSegmentIndex = "segment_index"
	// FieldSegmentSeconds is the candidate segment duration.
	FieldSegmentSeconds = "segment_seconds"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rec, ok := services.RecordingFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRecording, rec))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
