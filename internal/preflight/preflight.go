package preflight

import (
	"context"

	"voicecorpus/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the preflight checks that apply to the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckReadableDirectory("Input directory", cfg.Paths.InputDir),
		CheckCreatableDirectory("Dataset directory", cfg.Paths.DatasetDir),
		CheckFreeSpace("Dataset free space", cfg.Paths.DatasetDir, MinFreeBytes),
	}

	if cfg.Transcription.Backend == config.BackendWhisperServer {
		results = append(results, CheckWhisperServer(ctx, cfg.Transcription.WhisperServer.URL))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
