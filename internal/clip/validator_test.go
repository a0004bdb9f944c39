package clip

import (
	"testing"

	"voicecorpus/internal/segment"
)

func TestValidatorBoundaries(t *testing.T) {
	const rate = 22050
	v := Validator{MinSeconds: DefaultMinSeconds, MaxSeconds: DefaultMaxSeconds}
	tests := []struct {
		name     string
		samples  int
		accepted bool
		reason   string
	}{
		{"just under minimum", rate - 1, false, ReasonTooShort},
		{"exactly minimum", rate, true, ""},
		{"middle", 5 * rate, true, ""},
		{"just under maximum", 10*rate - 1, true, ""},
		{"exactly maximum", 10 * rate, false, ReasonTooLong},
		{"empty", 0, false, ReasonTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := v.Check(segment.Interval{Start: 1000, End: 1000 + tt.samples}, rate)
			if d.Accepted != tt.accepted || d.Reason != tt.reason {
				t.Fatalf("Check = %+v, want accepted=%v reason=%q", d, tt.accepted, tt.reason)
			}
		})
	}
}

func TestNewValidator(t *testing.T) {
	if _, err := NewValidator(1, 10); err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	for _, bounds := range [][2]float64{{-1, 10}, {5, 5}, {10, 1}} {
		if _, err := NewValidator(bounds[0], bounds[1]); err == nil {
			t.Fatalf("expected error for bounds %v", bounds)
		}
	}
	if err := (Validator{}).Validate(); err == nil {
		t.Fatal("expected zero-value validator to be invalid")
	}
}
