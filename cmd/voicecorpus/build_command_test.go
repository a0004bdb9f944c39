package main

import (
	"os"
	"strings"
	"testing"
)

func TestBuildVerifyAndRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeRecording(t, "a.wav", 0.6, 1.2)
	env.writeRecording(t, "b.wav", 1.8)

	out, _, err := runCLI(t, []string{"build", "--no-progress"}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireContains(t, out, "Clips written")
	requireContains(t, out, env.cfg.ManifestPath())

	data, err := os.ReadFile(env.cfg.ManifestPath())
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	want := "test_0001.wav|spoken line 1\ntest_0002.wav|spoken line 2\ntest_0003.wav|spoken line 3"
	if string(data) != want {
		t.Fatalf("manifest = %q, want %q", data, want)
	}
	if got := env.requests.Load(); got != 3 {
		t.Fatalf("expected 3 inference requests, got %d", got)
	}

	out, _, err = runCLI(t, []string{"verify"}, env.configPath)
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
	requireContains(t, out, "no issues")

	out, _, err = runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, "whisper_server")

	lines := strings.Split(out, "\n")
	var id string
	for _, line := range lines {
		if strings.Contains(line, "completed") {
			fields := strings.Fields(strings.Trim(line, "│ "))
			id = fields[0]
			break
		}
	}
	if id == "" {
		t.Fatalf("no run id in output:\n%s", out)
	}
	out, _, err = runCLI(t, []string{"runs", "show", id, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, `"accepted": 3`)
}

func TestBuildRequiresForceForExistingCorpus(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeRecording(t, "a.wav", 1.2)

	if _, _, err := runCLI(t, []string{"build", "--no-progress"}, env.configPath); err != nil {
		t.Fatalf("first build: %v", err)
	}
	_, _, err := runCLI(t, []string{"build", "--no-progress"}, env.configPath)
	if err == nil {
		t.Fatal("expected second build without --force to fail")
	}
	requireContains(t, err.Error(), "--force")

	if _, _, err := runCLI(t, []string{"build", "--no-progress", "--force"}, env.configPath); err != nil {
		t.Fatalf("forced build: %v", err)
	}
}

func TestBuildRejectsInvalidBackendFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"build", "--no-progress", "--backend", "carrier-pigeon"}, env.configPath)
	if err == nil {
		t.Fatal("expected invalid backend to fail")
	}
	requireContains(t, err.Error(), "transcription.backend")
}

func TestFormatSeconds(t *testing.T) {
	tests := map[float64]string{
		0:      "0:00:00",
		59.4:   "0:00:59",
		61:     "0:01:01",
		3725.6: "1:02:06",
	}
	for in, want := range tests {
		if got := formatSeconds(in); got != want {
			t.Fatalf("formatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}
