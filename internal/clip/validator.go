package clip

import (
	"fmt"

	"voicecorpus/internal/segment"
)

// Rejection reasons reported by Validator.
const (
	ReasonTooShort = "too_short"
	ReasonTooLong  = "too_long"
)

// Default duration bounds in seconds.
const (
	DefaultMinSeconds = 1.0
	DefaultMaxSeconds = 10.0
)

// Decision records whether a segment is usable as a training clip.
type Decision struct {
	Accepted bool
	Reason   string
	Seconds  float64
}

// Validator accepts segments whose duration d satisfies Min <= d < Max.
type Validator struct {
	MinSeconds float64
	MaxSeconds float64
}

// NewValidator returns a validator with explicit bounds.
func NewValidator(minSeconds, maxSeconds float64) (Validator, error) {
	v := Validator{MinSeconds: minSeconds, MaxSeconds: maxSeconds}
	if err := v.Validate(); err != nil {
		return Validator{}, err
	}
	return v, nil
}

// Validate reports bounds that cannot accept any segment.
func (v Validator) Validate() error {
	if v.MinSeconds < 0 || v.MaxSeconds <= v.MinSeconds {
		return fmt.Errorf("clip validator: invalid bounds [%v, %v)", v.MinSeconds, v.MaxSeconds)
	}
	return nil
}

// Check classifies iv at the given sample rate.
func (v Validator) Check(iv segment.Interval, sampleRate int) Decision {
	seconds := iv.Seconds(sampleRate)
	switch {
	case seconds < v.MinSeconds:
		return Decision{Reason: ReasonTooShort, Seconds: seconds}
	case seconds >= v.MaxSeconds:
		return Decision{Reason: ReasonTooLong, Seconds: seconds}
	default:
		return Decision{Accepted: true, Seconds: seconds}
	}
}

