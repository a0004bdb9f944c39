package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"voicecorpus/internal/config"
)

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the journal configured in cfg.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JournalPath())
}

// OpenPath initializes or connects to the journal database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas below are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// StartRun inserts a run in the running state.
func (s *Store) StartRun(ctx context.Context, run Run) (*Run, error) {
	if strings.TrimSpace(run.ID) == "" {
		return nil, errors.New("start run: id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = StatusRunning
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, status, started_at, input_dir, dataset_dir, voice, backend, sample_rate
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Status,
		run.StartedAt.UTC().Format(timeLayout),
		run.InputDir,
		run.DatasetDir,
		run.Voice,
		run.Backend,
		run.SampleRate,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetRun(ctx, run.ID)
}

// FinishRun records the terminal status and totals of a run.
func (s *Store) FinishRun(ctx context.Context, id string, status Status, counts Counts, errMsg string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("finish run: %q is not a terminal status", status)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, finished_at = ?, recordings = ?, segments = ?, accepted = ?,
             rejected = ?, total_seconds = ?, error_message = ?
         WHERE id = ?`,
		status,
		time.Now().UTC().Format(timeLayout),
		counts.Recordings,
		counts.Segments,
		counts.Accepted,
		counts.Rejected,
		counts.TotalSeconds,
		nullableString(errMsg),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: run %s not found", id)
	}
	return nil
}

// MarkStaleRunning moves runs left in the running state for datasetDir to
// interrupted. It is called while holding the dataset lock, so no such run
// can still be alive.
func (s *Store) MarkStaleRunning(ctx context.Context, datasetDir string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error_message = ?
         WHERE status = ? AND dataset_dir = ?`,
		StatusInterrupted,
		time.Now().UTC().Format(timeLayout),
		"run did not finish",
		StatusRunning,
		datasetDir,
	)
	if err != nil {
		return 0, fmt.Errorf("mark stale runs: %w", err)
	}
	return res.RowsAffected()
}

// RecordDecision appends one decision row.
func (s *Store) RecordDecision(ctx context.Context, d Decision) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO decisions (
            run_id, recording, segment_index, start_sample, end_sample, seconds,
            stage, result, reason, clip_file, text, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.RunID,
		d.Recording,
		d.SegmentIndex,
		d.StartSample,
		d.EndSample,
		d.Seconds,
		d.Stage,
		d.Result,
		nullableString(d.Reason),
		nullableString(d.ClipFile),
		nullableString(d.Text),
		d.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// GetRun fetches a run by ID. A missing run returns nil without error.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// FindRun resolves a full run ID or a unique prefix of one.
func (s *Store) FindRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, errors.New("find run: id required")
	}
	if run, err := s.GetRun(ctx, idOrPrefix); err != nil || run != nil {
		return run, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ESCAPE '\' ORDER BY started_at DESC LIMIT 2`,
		escapeLike(idOrPrefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()
	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("find run: prefix %q matches more than one run", idOrPrefix)
	}
}

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Decisions returns the decisions of a run in insertion order. When result is
// non-empty only decisions with that result are returned.
func (s *Store) Decisions(ctx context.Context, runID, result string) ([]Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE run_id = ?`
	args := []any{runID}
	if result != "" {
		query += ` AND result = ?`
		args = append(args, result)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return decisions, nil
}

// RejectionCounts tallies rejected decisions of a run by stage and reason,
// most frequent first.
func (s *Store) RejectionCounts(ctx context.Context, runID string) ([]ReasonCount, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT stage, COALESCE(reason, ''), COUNT(1) FROM decisions
         WHERE run_id = ? AND result = ?
         GROUP BY stage, reason
         ORDER BY COUNT(1) DESC, stage, reason`,
		runID,
		ResultRejected,
	)
	if err != nil {
		return nil, fmt.Errorf("count rejections: %w", err)
	}
	defer rows.Close()

	var counts []ReasonCount
	for rows.Next() {
		var rc ReasonCount
		if err := rows.Scan(&rc.Stage, &rc.Reason, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan rejection count: %w", err)
		}
		counts = append(counts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rejection counts: %w", err)
	}
	return counts, nil
}

// Prune deletes finished runs that started before cutoff, with their decisions.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE status != ? AND started_at < ?`,
		StatusRunning,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
