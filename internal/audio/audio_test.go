package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func sine(n, rate int, freq, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func TestWriteClipAndDecodeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	samples := sine(22050, 22050, 220, 0.5)
	if err := WriteClipFile(path, samples, 22050); err != nil {
		t.Fatalf("WriteClipFile: %v", err)
	}

	info, err := ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if info.SampleRate != 22050 || info.Channels != 1 || info.BitDepth != 16 || info.Format != 1 {
		t.Fatalf("unexpected header: %+v", info)
	}
	if info.Frames != int64(len(samples)) {
		t.Fatalf("frames = %d, want %d", info.Frames, len(samples))
	}
	if math.Abs(info.Seconds()-1.0) > 1e-9 {
		t.Fatalf("seconds = %v, want 1", info.Seconds())
	}

	w, err := (&NativeDecoder{SampleRate: 22050}).Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if w.Len() != len(samples) {
		t.Fatalf("decoded %d samples, want %d", w.Len(), len(samples))
	}
	for i := 0; i < len(samples); i += 997 {
		if math.Abs(w.Samples[i]-samples[i]) > 1e-3 {
			t.Fatalf("sample %d = %v, want %v", i, w.Samples[i], samples[i])
		}
	}
}

func TestWriteClipFileRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := WriteClipFile(path, []float64{0, 0.1}, 16000); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteClipFile(path, []float64{0, 0.1}, 16000); err == nil {
		t.Fatal("expected error when clip exists")
	}
}

func TestFloatToPCM16Clips(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{1.5, math.MaxInt16},
		{-2, math.MinInt16},
		{0.5, 16384},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := floatToPCM16(tt.in); got != tt.want {
			t.Errorf("floatToPCM16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDownmix(t *testing.T) {
	got := Downmix([]float64{1, 0, 0.5, 0.5, -1, 1, 9}, 2)
	want := []float64{0.5, 0.5, 0}
	if len(got) != len(want) {
		t.Fatalf("Downmix = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Downmix[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	mono := []float64{0.1, 0.2}
	if out := Downmix(mono, 1); &out[0] != &mono[0] {
		t.Fatal("mono input should be returned unchanged")
	}
}

func TestResample(t *testing.T) {
	in := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	down := Resample(in, 8, 4)
	if len(down) != 4 || down[1] != 2 || down[3] != 6 {
		t.Fatalf("downsample = %v", down)
	}
	up := Resample([]float64{0, 2}, 1, 2)
	if len(up) != 4 || up[1] != 1 || up[2] != 2 || up[3] != 2 {
		t.Fatalf("upsample = %v", up)
	}
	same := Resample(in, 8, 8)
	if len(same) != len(in) {
		t.Fatalf("same-rate resample changed length")
	}
}

func TestNativeDecoderResamplesAndDownmixesStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeStereoWAV(t, path, 44100, 44100)

	w, err := (&NativeDecoder{SampleRate: 22050}).Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if w.SampleRate != 22050 {
		t.Fatalf("sample rate = %d", w.SampleRate)
	}
	if w.Len() != 22050 {
		t.Fatalf("len = %d, want 22050", w.Len())
	}
	// left = +0.5, right = -0.25 -> mean 0.125
	if math.Abs(w.Samples[100]-0.125) > 1e-3 {
		t.Fatalf("downmixed sample = %v, want 0.125", w.Samples[100])
	}
}

func TestNativeDecoderRejectsUnknownExtension(t *testing.T) {
	d := &NativeDecoder{SampleRate: 22050}
	if d.Supports("talk.flac") {
		t.Fatal("flac should not be native")
	}
	_, err := d.Decode(context.Background(), "talk.flac")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

type recordingDecoder struct {
	calls []string
}

func (r *recordingDecoder) Decode(_ context.Context, path string) (Waveform, error) {
	r.calls = append(r.calls, path)
	return Waveform{Samples: []float64{0}, SampleRate: 22050}, nil
}

func TestAutoDecoderRouting(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "a.wav")
	if err := WriteClipFile(wavPath, []float64{0.1, 0.2}, 22050); err != nil {
		t.Fatal(err)
	}
	fallback := &recordingDecoder{}
	auto := &AutoDecoder{Native: &NativeDecoder{SampleRate: 22050}, Fallback: fallback}

	if _, err := auto.Decode(context.Background(), wavPath); err != nil {
		t.Fatalf("native decode: %v", err)
	}
	if len(fallback.calls) != 0 {
		t.Fatalf("wav should decode natively, fallback called with %v", fallback.calls)
	}

	if _, err := auto.Decode(context.Background(), filepath.Join(dir, "b.m4a")); err != nil {
		t.Fatalf("fallback decode: %v", err)
	}

	bogus := filepath.Join(dir, "c.wav")
	if err := os.WriteFile(bogus, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := auto.Decode(context.Background(), bogus); err != nil {
		t.Fatalf("invalid wav should fall back: %v", err)
	}
	if len(fallback.calls) != 2 {
		t.Fatalf("expected 2 fallback calls, got %v", fallback.calls)
	}
}

func TestNewDecoder(t *testing.T) {
	for _, kind := range []string{"", "auto", "native", "ffmpeg"} {
		if _, err := NewDecoder(kind, 22050, "ffmpeg"); err != nil {
			t.Fatalf("NewDecoder(%q): %v", kind, err)
		}
	}
	if _, err := NewDecoder("sox", 22050, ""); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestFFmpegDecoderMissingBinary(t *testing.T) {
	d := &FFmpegDecoder{Binary: "definitely-not-ffmpeg-binary", SampleRate: 22050}
	if _, err := d.Decode(context.Background(), "x.mp3"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestFFmpegDecoderReadsStdout(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffmpeg")
	// Emits two samples: 0x4000 (0.5) and 0xC000 (-0.5).
	script := "#!/bin/sh\nprintf '\\000\\100\\000\\300'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	w, err := (&FFmpegDecoder{Binary: stub, SampleRate: 16000}).Decode(context.Background(), "in.m4a")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if w.Len() != 2 || w.Samples[0] != 0.5 || w.Samples[1] != -0.5 || w.SampleRate != 16000 {
		t.Fatalf("unexpected waveform: %+v", w)
	}
}

func writeStereoWAV(t *testing.T, path string, rate, frames int) {
	t.Helper()
	const bits = 16
	dataLen := frames * 2 * 2
	buf := make([]byte, 44+dataLen)
	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataLen))
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1)
	binary.LittleEndian.PutUint16(buf[22:], 2)
	binary.LittleEndian.PutUint32(buf[24:], uint32(rate))
	binary.LittleEndian.PutUint32(buf[28:], uint32(rate*2*bits/8))
	binary.LittleEndian.PutUint16(buf[32:], 2*bits/8)
	binary.LittleEndian.PutUint16(buf[34:], bits)
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataLen))
	left := int16(16384)
	right := int16(-8192)
	for i := 0; i < frames; i++ {
		off := 44 + i*4
		binary.LittleEndian.PutUint16(buf[off:], uint16(left))
		binary.LittleEndian.PutUint16(buf[off+2:], uint16(right))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write stereo wav: %v", err)
	}
}
