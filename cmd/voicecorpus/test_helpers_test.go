package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"voicecorpus/internal/config"
	"voicecorpus/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	server     *httptest.Server
	requests   *atomic.Int64
}

// setupCLITestEnv writes a config pointing at a fake whisper server that
// answers every clip with "spoken line N".
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("VOICECORPUS_WHISPER_URL", "")

	requests := &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			w.WriteHeader(http.StatusOK)
			return
		}
		n := requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"text":" spoken line %d\n"}`, n)
	}))
	t.Cleanup(srv.Close)
	cfg.Transcription.WhisperServer.URL = srv.URL

	configPath := filepath.Join(base, "voicecorpus.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		server:     srv,
		requests:   requests,
	}
}

func (e *cliTestEnv) writeRecording(t *testing.T, name string, lengths ...float64) {
	t.Helper()
	rate := e.cfg.Audio.SampleRate
	testsupport.WriteWAV(t, filepath.Join(e.cfg.Paths.InputDir, name), testsupport.Utterances(rate, 0.5, lengths...), rate)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
input_dir = %q
dataset_dir = %q
state_dir = %q
log_dir = %q

[voice]
name = %q

[audio]
sample_rate = %d

[segment]
min_seconds = %v
max_seconds = %v

[transcription]
backend = "whisper_server"
workers = %d

[transcription.whisper_server]
url = %q

[logging]
level = "error"
`,
		cfg.Paths.InputDir,
		cfg.Paths.DatasetDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Voice.Name,
		cfg.Audio.SampleRate,
		cfg.Segment.MinSeconds,
		cfg.Segment.MaxSeconds,
		cfg.Transcription.Workers,
		cfg.Transcription.WhisperServer.URL,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
