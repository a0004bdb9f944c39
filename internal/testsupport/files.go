package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"voicecorpus/internal/audio"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// Tone returns seconds of a 220 Hz sine at half amplitude.
func Tone(seconds float64, rate int) []float64 {
	n := int(seconds * float64(rate))
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*220*float64(i)/float64(rate))
	}
	return out
}

// Silence returns seconds of digital silence.
func Silence(seconds float64, rate int) []float64 {
	return make([]float64, int(seconds*float64(rate)))
}

// Concat joins sample runs in order.
func Concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Utterances builds tone bursts of the given lengths separated by gap seconds
// of silence, with gap seconds of padding at both ends.
func Utterances(rate int, gap float64, lengths ...float64) []float64 {
	parts := [][]float64{Silence(gap, rate)}
	for _, l := range lengths {
		parts = append(parts, Tone(l, rate), Silence(gap, rate))
	}
	return Concat(parts...)
}

// WriteWAV writes samples as a mono 16-bit PCM WAV file at path.
func WriteWAV(t testing.TB, path string, samples []float64, rate int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	_ = os.Remove(path)
	if err := audio.WriteClipFile(path, samples, rate); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}
