package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"voicecorpus/internal/services"
)

func argValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestTranscribeReadsSegments(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "staged.wav")
	if err := os.WriteFile(clip, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotArgs []string
	svc := NewService(Config{})
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != UVXCommand {
			t.Fatalf("unexpected command %q", name)
		}
		gotArgs = args
		out := filepath.Join(argValue(args, "--output_dir"), "staged.json")
		payload := `{"segments":[{"text":" Hello there. ","start":0,"end":1},{"text":"","start":1,"end":1.2},{"text":"How are you?","start":1.2,"end":2}]}`
		return os.WriteFile(out, []byte(payload), 0o644)
	})

	text, err := svc.Transcribe(context.Background(), clip, "en-us")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello there. How are you?" {
		t.Fatalf("text = %q", text)
	}
	if argValue(gotArgs, "--language") != "en" {
		t.Fatalf("language arg = %q", argValue(gotArgs, "--language"))
	}
	if argValue(gotArgs, "--model") != DefaultModel {
		t.Fatalf("model arg = %q", argValue(gotArgs, "--model"))
	}
	if argValue(gotArgs, "--device") != CPUDevice {
		t.Fatalf("device arg = %q", argValue(gotArgs, "--device"))
	}

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(clip), ".whisperx-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("scratch dirs not removed: %v", leftovers)
	}
}

func TestBuildArgsCUDAAndPyannote(t *testing.T) {
	svc := NewService(Config{Model: "medium", CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf_x"})
	args := svc.buildArgs("/tmp/a.wav", "/tmp/out", "")
	if argValue(args, "--extra-index-url") != PypiIndexURL {
		t.Fatalf("missing extra index url: %v", args)
	}
	if argValue(args, "--device") != CUDADevice || argValue(args, "--hf_token") != "hf_x" {
		t.Fatalf("unexpected args: %v", args)
	}
	if slices.Contains(args, "--language") {
		t.Fatalf("language flag should be omitted: %v", args)
	}
	if !strings.Contains(strings.Join(args, " "), "--model medium") {
		t.Fatalf("model not set: %v", args)
	}
}

func TestTranscribeCommandFailure(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "staged.wav")
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	_, err := svc.Transcribe(context.Background(), clip, "en")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("got %v, want ErrExternalTool", err)
	}
}

func TestTranscribeMissingOutput(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "staged.wav")
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error { return nil })
	if _, err := svc.Transcribe(context.Background(), clip, "en"); err == nil {
		t.Fatal("expected error when whisperx writes no json")
	}
}
