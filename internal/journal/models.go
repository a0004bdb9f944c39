package journal

import "time"

// Status represents the lifecycle of a build run.
type Status string

const (
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// IsTerminal reports whether the run has finished.
func (s Status) IsTerminal() bool {
	return s != StatusRunning
}

// Decision results.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

// Decision stages identify which pipeline step produced a result.
const (
	StageDecode     = "decode"
	StageValidate   = "validate"
	StageTranscribe = "transcribe"
	StageFilter     = "filter"
	StageCommit     = "commit"
)

// Run is one execution of the build pipeline.
type Run struct {
	ID           string
	Status       Status
	StartedAt    time.Time
	FinishedAt   *time.Time
	InputDir     string
	DatasetDir   string
	Voice        string
	Backend      string
	SampleRate   int
	Counts       Counts
	ErrorMessage string
}

// Duration returns how long the run took, or how long it has been running.
func (r Run) Duration(now time.Time) time.Duration {
	end := now
	if r.FinishedAt != nil {
		end = *r.FinishedAt
	}
	if end.Before(r.StartedAt) {
		return 0
	}
	return end.Sub(r.StartedAt)
}

// Counts are the run totals persisted when the run finishes.
type Counts struct {
	Recordings   int
	Segments     int
	Accepted     int
	Rejected     int
	TotalSeconds float64
}

// Decision is the outcome for one segment (or one undecodable recording,
// with SegmentIndex -1).
type Decision struct {
	ID           int64
	RunID        string
	Recording    string
	SegmentIndex int
	StartSample  int
	EndSample    int
	Seconds      float64
	Stage        string
	Result       string
	Reason       string
	ClipFile     string
	Text         string
	CreatedAt    time.Time
}

// ReasonCount tallies decisions sharing a stage and reason.
type ReasonCount struct {
	Stage  string
	Reason string
	Count  int
}
