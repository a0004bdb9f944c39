package logging

// ProgressSampler thins done/total progress logs to one line per percentage
// step, plus the first and the final event.
type ProgressSampler struct {
	step int
	last int
}

// NewProgressSampler returns a sampler that emits every step percent.
// Non-positive or oversized steps fall back to 10.
func NewProgressSampler(step int) *ProgressSampler {
	if step <= 0 || step > 100 {
		step = 10
	}
	return &ProgressSampler{step: step, last: -1}
}

// ShouldLog reports whether the done/total event should be logged. A nil
// sampler logs everything; a non-positive total logs only the first event
// since the last Reset.
func (s *ProgressSampler) ShouldLog(done, total int) bool {
	if s == nil {
		return true
	}
	bucket := 0
	if total > 0 {
		if done > total {
			done = total
		}
		bucket = done * 100 / total / s.step
		if done == total {
			bucket = 100/s.step + 1
		}
	}
	if bucket <= s.last {
		return false
	}
	s.last = bucket
	return true
}

// Reset starts a new series, e.g. when the next recording begins.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.last = -1
}
