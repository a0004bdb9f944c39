package testsupport

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"time"

	"voicecorpus/internal/audio"
)

// ScriptLine is the answer for clips whose duration is closest to Seconds.
type ScriptLine struct {
	Seconds float64
	Text    string
	Err     error
}

// ScriptedTranscriber answers with the script line nearest to each clip's
// duration, so tests can address clips independently of staging names and
// call order. Splitter boundaries are frame-quantized; keep scripted
// durations at least half a second apart.
type ScriptedTranscriber struct {
	Lines []ScriptLine
	// Fallback is returned when Lines is empty.
	Fallback string
	// Delay is slept before answering, honouring cancellation.
	Delay time.Duration
	// OnCall runs before each transcription with the call number (1-based).
	OnCall func(n int)

	mu    sync.Mutex
	calls []string
}

// Transcribe implements transcribe.Transcriber.
func (s *ScriptedTranscriber) Transcribe(ctx context.Context, path, _ string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, filepath.Base(path))
	n := len(s.calls)
	s.mu.Unlock()
	if s.OnCall != nil {
		s.OnCall(n)
	}

	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.Lines) == 0 {
		return s.Fallback, nil
	}

	info, err := audio.ReadInfo(path)
	if err != nil {
		return "", fmt.Errorf("scripted transcriber: %w", err)
	}
	line := s.Lines[0]
	best := math.Inf(1)
	for _, l := range s.Lines {
		if d := math.Abs(l.Seconds - info.Seconds()); d < best {
			best, line = d, l
		}
	}
	if line.Err != nil {
		return "", line.Err
	}
	return line.Text, nil
}

// Name identifies the transcriber in run records.
func (s *ScriptedTranscriber) Name() string { return "scripted" }

// Calls returns the number of Transcribe calls so far.
func (s *ScriptedTranscriber) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
