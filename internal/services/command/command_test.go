package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"voicecorpus/internal/services"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stt.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse(t *testing.T) {
	args, err := Parse(`python3 "/opt/my models/stt.py" --beam 5`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"python3", "/opt/my models/stt.py", "--beam", "5"}
	if !slices.Equal(args, want) {
		t.Fatalf("args = %q, want %q", args, want)
	}

	for _, bad := range []string{"", "   ", `unterminated "quote`} {
		if _, err := Parse(bad); !errors.Is(err, services.ErrConfiguration) {
			t.Errorf("Parse(%q) = %v, want ErrConfiguration", bad, err)
		}
	}
}

func TestArgs(t *testing.T) {
	r, err := New("stt --fast")
	if err != nil {
		t.Fatal(err)
	}
	got := r.Args("/tmp/clip.wav", "en-US")
	want := []string{"--fast", "--audio", "/tmp/clip.wav", "--language", "en"}
	if !slices.Equal(got, want) {
		t.Fatalf("args = %q, want %q", got, want)
	}
	if got := r.Args("/tmp/clip.wav", ""); slices.Contains(got, "--language") {
		t.Fatalf("empty language should omit flag: %q", got)
	}
}

func TestTranscribe(t *testing.T) {
	script := writeScript(t, `
while [ $# -gt 0 ]; do
  case "$1" in
    --audio) audio="$2"; shift ;;
    --language) lang="$2"; shift ;;
  esac
  shift
done
printf '{"text":"%s %s"}\n' "$(basename "$audio")" "$lang"
`)
	r, err := New(script)
	if err != nil {
		t.Fatal(err)
	}
	text, err := r.Transcribe(context.Background(), "/data/clip.wav", "de")
	if err != nil {
		t.Fatal(err)
	}
	if text != "clip.wav de" {
		t.Fatalf("text = %q", text)
	}
}

func TestTranscribeFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "exit status", body: "echo boom >&2\nexit 3\n"},
		{name: "invalid json", body: "echo not-json\n"},
		{name: "error field", body: `echo '{"error":"model missing"}'` + "\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := New(writeScript(t, tc.body))
			if err != nil {
				t.Fatal(err)
			}
			_, err = r.Transcribe(context.Background(), "/data/clip.wav", "en")
			if !errors.Is(err, services.ErrExternalTool) {
				t.Fatalf("got %v, want ErrExternalTool", err)
			}
		})
	}
}

func TestTranscribeMissingBinary(t *testing.T) {
	r, err := New("voicecorpus-definitely-missing-stt")
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Transcribe(context.Background(), "/data/clip.wav", "en")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("got %v, want ErrConfiguration", err)
	}
}
