package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"voicecorpus/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The input and dataset directories exist; segment bounds are widened so
// short synthetic tones are accepted.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "input")
	cfgVal.Paths.DatasetDir = filepath.Join(base, "dataset")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Voice.Name = "test"
	cfgVal.Audio.SampleRate = 16000
	cfgVal.Segment.MinSeconds = 0.2
	cfgVal.Segment.MaxSeconds = 5
	cfgVal.Transcription.Workers = 1

	for _, dir := range []string{cfgVal.Paths.InputDir, cfgVal.Paths.DatasetDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{cfg: &cfgVal}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers sets the transcription worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.Workers = n
	}
}

// WithVoice overrides the voice name used as the clip prefix.
func WithVoice(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Voice.Name = name
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
