package audio

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// wavFormatPCM is the WAVE format tag for integer PCM.
const wavFormatPCM = 1

// NativeDecoder decodes WAV and MP3 without external tools.
type NativeDecoder struct {
	SampleRate int
}

// Supports reports whether the file extension is handled natively.
func (d *NativeDecoder) Supports(path string) bool {
	switch extension(path) {
	case ".wav", ".mp3":
		return true
	default:
		return false
	}
}

// Decode implements Decoder.
func (d *NativeDecoder) Decode(ctx context.Context, path string) (Waveform, error) {
	if err := ctx.Err(); err != nil {
		return Waveform{}, err
	}

	var (
		samples []float64
		rate    int
		err     error
	)
	switch extension(path) {
	case ".wav":
		samples, rate, err = decodeWAV(path)
	case ".mp3":
		samples, rate, err = decodeMP3(path)
	default:
		return Waveform{}, fmt.Errorf("native decode %s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return Waveform{}, err
	}

	target := d.SampleRate
	if target <= 0 {
		target = rate
	}
	return Waveform{Samples: Resample(samples, rate, target), SampleRate: target}, nil
}

func decodeWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("wav %s: invalid file: %w", path, ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, 0, fmt.Errorf("wav %s: format tag %d: %w", path, dec.WavAudioFormat, ErrUnsupportedFormat)
	}
	if dec.BitDepth == 0 || dec.BitDepth > 32 {
		return nil, 0, fmt.Errorf("wav %s: bit depth %d: %w", path, dec.BitDepth, ErrUnsupportedFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("read wav pcm: %w", err)
	}
	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = int(dec.NumChans)
	}

	scale := float64(int64(1) << (dec.BitDepth - 1))
	// 8-bit WAV is unsigned with a 128 midpoint.
	offset := 0.0
	if dec.BitDepth == 8 {
		offset = 128
	}
	interleaved := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		interleaved[i] = (float64(v) - offset) / scale
	}
	return Downmix(interleaved, channels), int(dec.SampleRate), nil
}

func decodeMP3(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open mp3: %w", err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3 %s: %v: %w", path, err, ErrUnsupportedFormat)
	}
	// go-mp3 always yields signed 16-bit little-endian stereo.
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("read mp3 pcm: %w", err)
	}
	return Downmix(pcm16ToFloat(pcm), 2), dec.SampleRate(), nil
}

func pcm16ToFloat(pcm []byte) []float64 {
	out := make([]float64, len(pcm)/2)
	for i := range out {
		v := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		out[i] = float64(v) / 32768.0
	}
	return out
}
