package segment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"voicecorpus/internal/audio"
)

// Interval is a half-open sample range [Start, End) within a waveform.
type Interval struct {
	Start int
	End   int
}

// Len returns the number of samples in the interval.
func (iv Interval) Len() int {
	if iv.End <= iv.Start {
		return 0
	}
	return iv.End - iv.Start
}

// Seconds returns the interval duration at the given sample rate.
func (iv Interval) Seconds(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(iv.Len()) / float64(sampleRate)
}

// Segmenter splits a waveform into non-silent intervals ordered by time.
type Segmenter interface {
	Split(w audio.Waveform) ([]Interval, error)
}

// Defaults for EnergySplitter.
const (
	DefaultTopDB       = 40.0
	DefaultFrameLength = 2048
	DefaultHopLength   = 512

	// amin floors power values before the log so silence maps to a finite dB.
	amin = 1e-10
)

// EnergySplitter marks frames as voiced when their mean-square energy is
// within TopDB decibels of the loudest frame in the signal. Frames are
// centered: the signal is padded by FrameLength/2 zeros on each side.
type EnergySplitter struct {
	TopDB       float64
	FrameLength int
	HopLength   int
}

// NewEnergySplitter returns a splitter with the standard parameters.
func NewEnergySplitter() *EnergySplitter {
	return &EnergySplitter{TopDB: DefaultTopDB, FrameLength: DefaultFrameLength, HopLength: DefaultHopLength}
}

// Split implements Segmenter.
func (s *EnergySplitter) Split(w audio.Waveform) ([]Interval, error) {
	if s.FrameLength <= 0 || s.HopLength <= 0 {
		return nil, fmt.Errorf("segment: frame length %d and hop length %d must be positive", s.FrameLength, s.HopLength)
	}
	if s.TopDB <= 0 {
		return nil, fmt.Errorf("segment: top_db %v must be positive", s.TopDB)
	}
	n := len(w.Samples)
	if n == 0 {
		return nil, nil
	}

	energy := s.frameEnergy(w.Samples)
	peak := floats.Max(energy)
	if peak <= amin {
		return nil, nil
	}

	ref := 10 * math.Log10(peak)
	threshold := -s.TopDB
	var intervals []Interval
	start := -1
	for t, ms := range energy {
		db := 10*math.Log10(math.Max(amin, ms)) - ref
		voiced := db > threshold
		switch {
		case voiced && start < 0:
			start = t
		case !voiced && start >= 0:
			intervals = appendInterval(intervals, start, t, s.HopLength, n)
			start = -1
		}
	}
	if start >= 0 {
		intervals = appendInterval(intervals, start, len(energy), s.HopLength, n)
	}
	return intervals, nil
}

// frameEnergy returns the mean square of each centered frame. The padded
// signal is always at least one frame long for a non-empty input.
func (s *EnergySplitter) frameEnergy(samples []float64) []float64 {
	pad := s.FrameLength / 2
	padded := make([]float64, len(samples)+2*pad)
	copy(padded[pad:], samples)

	frames := 1 + (len(padded)-s.FrameLength)/s.HopLength
	energy := make([]float64, frames)
	for t := 0; t < frames; t++ {
		frame := padded[t*s.HopLength : t*s.HopLength+s.FrameLength]
		energy[t] = floats.Dot(frame, frame) / float64(s.FrameLength)
	}
	return energy
}

func appendInterval(intervals []Interval, startFrame, endFrame, hop, n int) []Interval {
	start := startFrame * hop
	end := endFrame * hop
	if end > n {
		end = n
	}
	if start >= end {
		return intervals
	}
	return append(intervals, Interval{Start: start, End: end})
}
