package journal

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const runColumns = "id, status, started_at, finished_at, input_dir, dataset_dir, voice, backend, sample_rate, recordings, segments, accepted, rejected, total_seconds, error_message"

const decisionColumns = "id, run_id, recording, segment_index, start_sample, end_sample, seconds, stage, result, reason, clip_file, text, created_at"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type rowScanner interface{ Scan(dest ...any) error }

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run         Run
		statusStr   string
		startedRaw  string
		finishedRaw sql.NullString
		errorMsg    sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&statusStr,
		&startedRaw,
		&finishedRaw,
		&run.InputDir,
		&run.DatasetDir,
		&run.Voice,
		&run.Backend,
		&run.SampleRate,
		&run.Counts.Recordings,
		&run.Counts.Segments,
		&run.Counts.Accepted,
		&run.Counts.Rejected,
		&run.Counts.TotalSeconds,
		&errorMsg,
	); err != nil {
		return nil, err
	}
	run.Status = Status(statusStr)
	run.ErrorMessage = errorMsg.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func scanDecision(scanner rowScanner) (Decision, error) {
	var (
		d          Decision
		reason     sql.NullString
		clipFile   sql.NullString
		text       sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(
		&d.ID,
		&d.RunID,
		&d.Recording,
		&d.SegmentIndex,
		&d.StartSample,
		&d.EndSample,
		&d.Seconds,
		&d.Stage,
		&d.Result,
		&reason,
		&clipFile,
		&text,
		&createdRaw,
	); err != nil {
		return Decision{}, err
	}
	d.Reason = reason.String
	d.ClipFile = clipFile.String
	d.Text = text.String
	if created, err := parseTimeString(createdRaw); err == nil {
		d.CreatedAt = created
	}
	return d, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
