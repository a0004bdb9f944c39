package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrConflict      = errors.New("conflict")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint returns a short operator-facing suggestion for the error class.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "check the configuration file with 'voicecorpus config validate'"
	case errors.Is(err, ErrNotFound):
		return "verify the path exists and is readable"
	case errors.Is(err, ErrTimeout):
		return "raise transcription.timeout_seconds or check the transcription backend load"
	case errors.Is(err, ErrExternalTool):
		return "run 'voicecorpus check' to verify external tools"
	case errors.Is(err, ErrConflict):
		return "pass --force to replace the existing corpus, or wait for the other build to finish"
	case errors.Is(err, ErrValidation):
		return "inspect the input file; it may be corrupt or in an unsupported format"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
