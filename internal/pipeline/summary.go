package pipeline

import (
	"sort"
	"time"

	"voicecorpus/internal/corpus"
)

// Summary describes a finished or aborted run.
type Summary struct {
	RunID          string
	Recordings     int
	DecodeFailures int
	Segments       int
	Accepted       int
	TotalSeconds   float64
	Rejections     map[string]int
	Entries        []corpus.Entry
	Duration       time.Duration
	Interrupted    bool
}

func newSummary(runID string) Summary {
	return Summary{RunID: runID, Rejections: make(map[string]int)}
}

func (s *Summary) addRejection(reason string) {
	s.Rejections[reason]++
}

// RejectedTotal sums rejections over every reason.
func (s Summary) RejectedTotal() int {
	total := 0
	for _, n := range s.Rejections {
		total += n
	}
	return total
}

// ReasonCount is one row of a rejection breakdown.
type ReasonCount struct {
	Reason string
	Count  int
}

// RejectionBreakdown returns rejections sorted by descending count, then reason.
func (s Summary) RejectionBreakdown() []ReasonCount {
	out := make([]ReasonCount, 0, len(s.Rejections))
	for reason, n := range s.Rejections {
		out = append(out, ReasonCount{Reason: reason, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}
