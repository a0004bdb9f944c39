package audio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat reports that a decoder cannot read the given file.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decoder turns a recording on disk into a mono waveform at a fixed rate.
type Decoder interface {
	Decode(ctx context.Context, path string) (Waveform, error)
}

// Decoder kinds accepted by NewDecoder.
const (
	KindAuto   = "auto"
	KindNative = "native"
	KindFFmpeg = "ffmpeg"
)

// NewDecoder builds the decoder named by kind.
func NewDecoder(kind string, sampleRate int, ffmpegBinary string) (Decoder, error) {
	native := &NativeDecoder{SampleRate: sampleRate}
	ffmpeg := &FFmpegDecoder{Binary: ffmpegBinary, SampleRate: sampleRate}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindAuto:
		return &AutoDecoder{Native: native, Fallback: ffmpeg}, nil
	case KindNative:
		return native, nil
	case KindFFmpeg:
		return ffmpeg, nil
	default:
		return nil, fmt.Errorf("audio decoder: unknown kind %q", kind)
	}
}

// AutoDecoder prefers the native decoder and falls back to another decoder
// for formats the native one cannot read.
type AutoDecoder struct {
	Native   *NativeDecoder
	Fallback Decoder
}

// Decode implements Decoder.
func (d *AutoDecoder) Decode(ctx context.Context, path string) (Waveform, error) {
	if d.Native != nil && d.Native.Supports(path) {
		w, err := d.Native.Decode(ctx, path)
		if err == nil || !errors.Is(err, ErrUnsupportedFormat) || d.Fallback == nil {
			return w, err
		}
	}
	if d.Fallback == nil {
		return Waveform{}, fmt.Errorf("decode %s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
	return d.Fallback.Decode(ctx, path)
}

func extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
