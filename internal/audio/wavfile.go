package audio

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ClipBitDepth is the sample width of every clip written to the corpus.
const ClipBitDepth = 16

// WritePCM16 encodes mono samples as a 16-bit PCM WAV stream. Samples outside
// [-1, 1] are clipped.
func WritePCM16(w io.WriteSeeker, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("write wav: invalid sample rate %d", sampleRate)
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = floatToPCM16(s)
	}
	buffer := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: ClipBitDepth,
	}

	enc := wav.NewEncoder(w, sampleRate, ClipBitDepth, 1, wavFormatPCM)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// WriteClipFile writes samples to path as a mono 16-bit PCM WAV file.
func WriteClipFile(path string, samples []float64, sampleRate int) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create clip: %w", err)
	}
	if err := WritePCM16(f, samples, sampleRate); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close clip: %w", err)
	}
	return nil
}

func floatToPCM16(s float64) int {
	switch {
	case math.IsNaN(s):
		return 0
	case s >= 1:
		return math.MaxInt16
	case s <= -1:
		return math.MinInt16
	default:
		return int(math.Round(s * math.MaxInt16))
	}
}

// Info describes a WAV file header.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Format     int
	Frames     int64
}

// Duration returns the playback length described by the header.
func (i Info) Duration() time.Duration {
	if i.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(i.Frames) / float64(i.SampleRate) * float64(time.Second))
}

// Seconds returns Duration in seconds.
func (i Info) Seconds() float64 {
	if i.SampleRate <= 0 {
		return 0
	}
	return float64(i.Frames) / float64(i.SampleRate)
}

// ReadInfo parses the header of a WAV file without decoding its samples.
func ReadInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, fmt.Errorf("wav %s: invalid file: %w", path, ErrUnsupportedFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("wav %s: locate pcm chunk: %w", path, err)
	}

	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Format:     int(dec.WavAudioFormat),
	}
	frameSize := int64(info.Channels) * int64(info.BitDepth/8)
	if frameSize > 0 {
		info.Frames = dec.PCMLen() / frameSize
	}
	return info, nil
}
