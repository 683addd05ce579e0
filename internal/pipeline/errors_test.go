package pipeline_test

import (
	"errors"
	"strings"
	"testing"

	"clarion/internal/pipeline"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := pipeline.Wrap(pipeline.ErrTransform, "transform", "run ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, pipeline.ErrTransform) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transform", "run ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := pipeline.Wrap(nil, "", "", "", errors.New("boom"))
	if !errors.Is(err, pipeline.ErrInternal) {
		t.Fatalf("expected internal marker for nil marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKindOfMapping(t *testing.T) {
	tests := []struct {
		marker error
		expect pipeline.FailureKind
	}{
		{pipeline.ErrUnknownPreset, pipeline.KindUnknownPreset},
		{pipeline.ErrToolUnavailable, pipeline.KindToolUnavailable},
		{pipeline.ErrProbe, pipeline.KindProbe},
		{pipeline.ErrTransform, pipeline.KindTransform},
		{pipeline.ErrUpload, pipeline.KindUpload},
		{pipeline.ErrInternal, pipeline.KindInternal},
	}
	for _, tc := range tests {
		err := pipeline.Wrap(tc.marker, "step", "op", "", nil)
		if kind := pipeline.KindOf(err); kind != tc.expect {
			t.Fatalf("expected kind %s for %v, got %s", tc.expect, tc.marker, kind)
		}
	}

	if kind := pipeline.KindOf(errors.New("untagged")); kind != pipeline.KindInternal {
		t.Fatalf("expected internal kind for untagged error, got %s", kind)
	}
}
