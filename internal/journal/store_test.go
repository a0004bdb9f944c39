package journal_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"voicecorpus/internal/journal"
)

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.OpenPath(filepath.Join(t.TempDir(), "state", "journal.db"))
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func startRun(t *testing.T, store *journal.Store, id string, started time.Time) *journal.Run {
	t.Helper()
	run, err := store.StartRun(context.Background(), journal.Run{
		ID:         id,
		StartedAt:  started,
		InputDir:   "/in",
		DatasetDir: "/dataset",
		Voice:      "narrator",
		Backend:    "whisper_server",
		SampleRate: 22050,
	})
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	return run
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run := startRun(t, store, "run-1", time.Time{})
	if run.Status != journal.StatusRunning || run.StartedAt.IsZero() || run.FinishedAt != nil {
		t.Fatalf("unexpected started run: %#v", run)
	}

	decisions := []journal.Decision{
		{RunID: "run-1", Recording: "a.wav", SegmentIndex: 0, StartSample: 0, EndSample: 22050, Seconds: 1, Stage: journal.StageCommit, Result: journal.ResultAccepted, ClipFile: "narrator_0001.wav", Text: "Hello."},
		{RunID: "run-1", Recording: "a.wav", SegmentIndex: 1, StartSample: 30000, EndSample: 31000, Seconds: 0.05, Stage: journal.StageValidate, Result: journal.ResultRejected, Reason: "too_short"},
		{RunID: "run-1", Recording: "a.wav", SegmentIndex: 2, StartSample: 40000, EndSample: 70000, Seconds: 1.4, Stage: journal.StageFilter, Result: journal.ResultRejected, Reason: "boilerplate_prefix", Text: "Subtitles by"},
		{RunID: "run-1", Recording: "b.wav", SegmentIndex: 0, StartSample: 0, EndSample: 500, Seconds: 0.02, Stage: journal.StageValidate, Result: journal.ResultRejected, Reason: "too_short"},
	}
	for _, d := range decisions {
		if err := store.RecordDecision(ctx, d); err != nil {
			t.Fatalf("RecordDecision failed: %v", err)
		}
	}

	counts := journal.Counts{Recordings: 2, Segments: 4, Accepted: 1, Rejected: 3, TotalSeconds: 1}
	if err := store.FinishRun(ctx, "run-1", journal.StatusCompleted, counts, ""); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	fetched, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if fetched.Status != journal.StatusCompleted || fetched.FinishedAt == nil {
		t.Fatalf("run not finished: %#v", fetched)
	}
	if fetched.Counts != counts {
		t.Fatalf("counts = %#v, want %#v", fetched.Counts, counts)
	}

	all, err := store.Decisions(ctx, "run-1", "")
	if err != nil {
		t.Fatalf("Decisions failed: %v", err)
	}
	if len(all) != 4 || all[0].ClipFile != "narrator_0001.wav" || all[2].Text != "Subtitles by" {
		t.Fatalf("unexpected decisions: %#v", all)
	}
	rejected, err := store.Decisions(ctx, "run-1", journal.ResultRejected)
	if err != nil {
		t.Fatalf("Decisions failed: %v", err)
	}
	if len(rejected) != 3 {
		t.Fatalf("rejected decisions = %d, want 3", len(rejected))
	}

	reasons, err := store.RejectionCounts(ctx, "run-1")
	if err != nil {
		t.Fatalf("RejectionCounts failed: %v", err)
	}
	if len(reasons) != 2 || reasons[0].Reason != "too_short" || reasons[0].Count != 2 {
		t.Fatalf("unexpected reason counts: %#v", reasons)
	}
}

func TestFinishRunValidation(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	startRun(t, store, "run-1", time.Time{})

	if err := store.FinishRun(ctx, "run-1", journal.StatusRunning, journal.Counts{}, ""); err == nil {
		t.Fatal("expected error finishing with non-terminal status")
	}
	if err := store.FinishRun(ctx, "missing", journal.StatusFailed, journal.Counts{}, "boom"); err == nil {
		t.Fatal("expected error finishing unknown run")
	}
}

func TestListAndFindRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	startRun(t, store, "abc-111", base)
	startRun(t, store, "abc-222", base.Add(time.Minute))
	startRun(t, store, "def-333", base.Add(500*time.Millisecond))

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "abc-222" || runs[1].ID != "def-333" || runs[2].ID != "abc-111" {
		t.Fatalf("unexpected order: %v", []string{runs[0].ID, runs[1].ID, runs[2].ID})
	}
	limited, err := store.ListRuns(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limited list: %d %v", len(limited), err)
	}

	found, err := store.FindRun(ctx, "def")
	if err != nil || found == nil || found.ID != "def-333" {
		t.Fatalf("FindRun(def) = %#v, %v", found, err)
	}
	if _, err := store.FindRun(ctx, "abc"); err == nil {
		t.Fatal("expected ambiguity error")
	}
	missing, err := store.FindRun(ctx, "zzz")
	if err != nil || missing != nil {
		t.Fatalf("FindRun(zzz) = %#v, %v", missing, err)
	}
}

func TestMarkStaleRunning(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	startRun(t, store, "stale", time.Time{})

	n, err := store.MarkStaleRunning(ctx, "/dataset")
	if err != nil {
		t.Fatalf("MarkStaleRunning failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("marked %d runs, want 1", n)
	}
	run, err := store.GetRun(ctx, "stale")
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != journal.StatusInterrupted {
		t.Fatalf("status = %s", run.Status)
	}
}

func TestPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)
	startRun(t, store, "old", old)
	startRun(t, store, "active", old)
	startRun(t, store, "new", time.Time{})
	if err := store.FinishRun(ctx, "old", journal.StatusCompleted, journal.Counts{}, ""); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordDecision(ctx, journal.Decision{RunID: "old", Recording: "a.wav", Stage: journal.StageValidate, Result: journal.ResultRejected}); err != nil {
		t.Fatal(err)
	}

	n, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned %d runs, want 1", n)
	}
	if run, _ := store.GetRun(ctx, "active"); run == nil {
		t.Fatal("running run should survive prune")
	}
	decisions, err := store.Decisions(ctx, "old", "")
	if err != nil || len(decisions) != 0 {
		t.Fatalf("decisions of pruned run: %d %v", len(decisions), err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.OpenPath(path)
	if err != nil {
		t.Fatal(err)
	}
	startRun(t, store, "persisted", time.Time{})
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := journal.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	run, err := reopened.GetRun(context.Background(), "persisted")
	if err != nil || run == nil {
		t.Fatalf("run lost after reopen: %v", err)
	}
}
