package services_test

import (
	"errors"
	"strings"
	"testing"

	"voicecorpus/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transcribe", "whisper_server", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcribe", "whisper_server", "request failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestHintMentionsCheckForExternalTools(t *testing.T) {
	hint := services.Hint(services.Wrap(services.ErrExternalTool, "decode", "ffmpeg", "", nil))
	if !strings.Contains(hint, "voicecorpus check") {
		t.Fatalf("unexpected hint %q", hint)
	}
}

func TestHintForConflict(t *testing.T) {
	err := services.Wrap(services.ErrConflict, "corpus", "prepare", "dataset has 3 clips", errors.New("dataset already contains a corpus"))
	hint := services.Hint(err)
	if !strings.Contains(hint, "--force") || strings.Contains(hint, "corrupt") {
		t.Fatalf("unexpected hint %q", hint)
	}
}
