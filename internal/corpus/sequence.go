package corpus

import (
	"errors"
	"fmt"
)

// ErrReleaseOrder reports an attempt to release an ID other than the newest claim.
var ErrReleaseOrder = errors.New("sequence: only the most recent claim can be released")

// Sequence numbers accepted clips contiguously from 1. It is a value: Claim
// and Release return the updated sequence and leave the receiver unchanged.
type Sequence struct {
	last int
}

// Last returns the most recently claimed ID, or 0 before the first claim.
func (s Sequence) Last() int {
	return s.last
}

// Claim returns the advanced sequence and the ID it assigns.
func (s Sequence) Claim() (Sequence, int) {
	next := s.last + 1
	return Sequence{last: next}, next
}

// Release undoes the most recent claim so the next Claim reuses id.
func (s Sequence) Release(id int) (Sequence, error) {
	if s.last == 0 || id != s.last {
		return s, fmt.Errorf("%w: release %d, last claim %d", ErrReleaseOrder, id, s.last)
	}
	return Sequence{last: s.last - 1}, nil
}
