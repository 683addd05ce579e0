package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPreset   = errors.New("unknown preset")
	ErrToolUnavailable = errors.New("tool unavailable")
	ErrProbe           = errors.New("probe error")
	ErrTransform       = errors.New("transform error")
	ErrUpload          = errors.New("upload error")
	ErrInternal        = errors.New("internal error")
)

// FailureKind labels a pipeline error for history records, notifications, and
// the HTTP response mapping.
type FailureKind string

const (
	KindUnknownPreset   FailureKind = "unknown_preset"
	KindToolUnavailable FailureKind = "tool_unavailable"
	KindProbe           FailureKind = "probe_error"
	KindTransform       FailureKind = "transform_error"
	KindUpload          FailureKind = "upload_error"
	KindInternal        FailureKind = "internal"
)

// Wrap builds an error message that includes step context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, step, operation, message string, err error) error {
	detail := buildDetail(step, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf maps a pipeline error to the failure kind persisted with the job.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, ErrUnknownPreset):
		return KindUnknownPreset
	case errors.Is(err, ErrToolUnavailable):
		return KindToolUnavailable
	case errors.Is(err, ErrProbe):
		return KindProbe
	case errors.Is(err, ErrTransform):
		return KindTransform
	case errors.Is(err, ErrUpload):
		return KindUpload
	default:
		return KindInternal
	}
}

func buildDetail(step, operation, message string) string {
	parts := make([]string, 0, 3)
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
