package audio

import "time"

// Waveform is a mono signal with samples in [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Len returns the number of samples.
func (w Waveform) Len() int {
	return len(w.Samples)
}

// Duration returns the playback length of the waveform.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// Slice returns the samples in [start, end) clipped to the waveform bounds.
// The returned slice shares memory with the waveform.
func (w Waveform) Slice(start, end int) []float64 {
	if start < 0 {
		start = 0
	}
	if end > len(w.Samples) {
		end = len(w.Samples)
	}
	if start >= end {
		return nil
	}
	return w.Samples[start:end]
}

// Downmix averages interleaved multi-channel samples into a mono signal.
// Trailing samples that do not form a full frame are dropped.
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += interleaved[base+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// Resample converts samples between rates with linear interpolation.
func Resample(samples []float64, from, to int) []float64 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(from) / float64(to)
	n := int(float64(len(samples)) / ratio)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)
		switch {
		case idx+1 < len(samples):
			out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
		case idx < len(samples):
			out[i] = samples[idx]
		}
	}
	return out
}
