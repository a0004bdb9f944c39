package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"voicecorpus/internal/audio"
	"voicecorpus/internal/services"
)

const testRate = 16000

func newTestWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	dataset := filepath.Join(t.TempDir(), "dataset")
	w, err := NewWriter(Options{
		DatasetDir: dataset,
		StagingDir: filepath.Join(dataset, ".staging", "run-1"),
		Voice:      "Narrator One",
		SampleRate: testRate,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Prepare(false); err != nil {
		t.Fatal(err)
	}
	return w, dataset
}

func tone(n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 0.25
		} else {
			samples[i] = -0.25
		}
	}
	return samples
}

func stageAndNumber(t *testing.T, w *Writer, n int) NumberedClip {
	t.Helper()
	staged, err := w.Stage(tone(n))
	if err != nil {
		t.Fatal(err)
	}
	numbered, err := w.Number(staged)
	if err != nil {
		t.Fatal(err)
	}
	return numbered
}

func TestWriterRejectedClipDoesNotLeaveGap(t *testing.T) {
	w, dataset := newTestWriter(t)
	if w.Voice() != "narrator_one" {
		t.Fatalf("voice = %q", w.Voice())
	}

	first := stageAndNumber(t, w, testRate)
	if first.ID != 1 {
		t.Fatalf("first id = %d", first.ID)
	}
	if err := w.Reject(first); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(first.Path); !os.IsNotExist(err) {
		t.Fatalf("rejected clip still staged: %v", err)
	}

	second := stageAndNumber(t, w, testRate)
	if second.ID != 1 {
		t.Fatalf("id after reject = %d, want 1", second.ID)
	}
	entry, err := w.Commit(second, "Kept line.", "book.wav")
	if err != nil {
		t.Fatal(err)
	}
	if entry.File != "narrator_one_0001.wav" {
		t.Fatalf("file = %q", entry.File)
	}

	third := stageAndNumber(t, w, testRate/2)
	if third.ID != 2 {
		t.Fatalf("third id = %d", third.ID)
	}
	if _, err := w.Commit(third, "Second line.", "book.wav"); err != nil {
		t.Fatal(err)
	}

	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dataset, ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	want := "narrator_one_0001.wav|Kept line.\nnarrator_one_0002.wav|Second line."
	if string(data) != want {
		t.Fatalf("manifest = %q", data)
	}
	if _, err := os.Stat(filepath.Join(dataset, ".staging", "run-1")); !os.IsNotExist(err) {
		t.Fatalf("staging dir not removed: %v", err)
	}

	report, err := Verify(dataset, VerifyOptions{Voice: "Narrator One", SampleRate: testRate, MinSeconds: 0.25, MaxSeconds: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !report.OK() {
		t.Fatalf("verify issues: %v", report.Issues)
	}
	if report.Entries != 2 {
		t.Fatalf("entries = %d", report.Entries)
	}
}

func TestWriterDiscardKeepsSequence(t *testing.T) {
	w, _ := newTestWriter(t)
	staged, err := w.Stage(tone(100))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Discard(staged); err != nil {
		t.Fatal(err)
	}
	if w.Sequence().Last() != 0 {
		t.Fatalf("discard advanced sequence to %d", w.Sequence().Last())
	}
}

func TestWriterSinglePendingClaim(t *testing.T) {
	w, _ := newTestWriter(t)
	stageAndNumber(t, w, 100)
	staged, err := w.Stage(tone(100))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Number(staged); err == nil {
		t.Fatal("expected error numbering while a claim is pending")
	}
	if err := w.Finalize(); err == nil {
		t.Fatal("expected finalize to fail with a pending claim")
	}
}

func TestWriterEmptyCorpus(t *testing.T) {
	w, dataset := newTestWriter(t)
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dataset, ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty manifest, got %q", data)
	}
	if err := w.Finalize(); err == nil {
		t.Fatal("second finalize should fail")
	}
}

func TestWriterPrepareRequiresForce(t *testing.T) {
	w, dataset := newTestWriter(t)
	clip := stageAndNumber(t, w, 100)
	if _, err := w.Commit(clip, "text", "rec.wav"); err != nil {
		t.Fatal(err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}

	again, err := NewWriter(Options{
		DatasetDir: dataset,
		StagingDir: filepath.Join(dataset, ".staging", "run-2"),
		Voice:      "narrator_one",
		SampleRate: testRate,
	})
	if err != nil {
		t.Fatal(err)
	}
	err = again.Prepare(false)
	if !errors.Is(err, ErrCorpusExists) || !errors.Is(err, services.ErrConflict) {
		t.Fatalf("prepare without force: got %v", err)
	}
	if err := again.Prepare(true); err != nil {
		t.Fatalf("prepare with force: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataset, ManifestName)); !os.IsNotExist(err) {
		t.Fatal("forced prepare should remove the old manifest")
	}
	clips, err := existingClips(again.WavsDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(clips) != 0 {
		t.Fatalf("forced prepare left %d clips", len(clips))
	}
}

func TestWriterAbortKeepsExistingManifest(t *testing.T) {
	w, dataset := newTestWriter(t)
	manifest := filepath.Join(dataset, ManifestName)
	if err := os.WriteFile(manifest, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	stageAndNumber(t, w, 100)
	if err := w.Abort(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(manifest)
	if err != nil || string(data) != "keep" {
		t.Fatalf("manifest changed after abort: %q %v", data, err)
	}
}

func TestNewWriterValidation(t *testing.T) {
	if _, err := NewWriter(Options{StagingDir: "s", SampleRate: 1}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("missing dataset: %v", err)
	}
	if _, err := NewWriter(Options{DatasetDir: "d", StagingDir: "s"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("missing rate: %v", err)
	}
}

func newForcedWriter(t *testing.T, dataset, run string) *Writer {
	t.Helper()
	w, err := NewWriter(Options{
		DatasetDir: dataset,
		StagingDir: filepath.Join(dataset, ".staging", run),
		Voice:      "Narrator One",
		SampleRate: testRate,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Prepare(true); err != nil {
		t.Fatalf("forced prepare: %v", err)
	}
	return w
}

func writeFirstCorpus(t *testing.T) (string, string) {
	t.Helper()
	w, dataset := newTestWriter(t)
	for _, text := range []string{"first", "second"} {
		if _, err := w.Commit(stageAndNumber(t, w, 100), text, "rec.wav"); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dataset, ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	return dataset, string(data)
}

func clipNames(t *testing.T, dir string) []string {
	t.Helper()
	clips, err := existingClips(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(clips))
	for i, path := range clips {
		names[i] = filepath.Base(path)
	}
	return names
}

func TestWriterForcedAbortRestoresPreviousCorpus(t *testing.T) {
	dataset, before := writeFirstCorpus(t)
	w := newForcedWriter(t, dataset, "run-2")

	if _, err := w.Commit(stageAndNumber(t, w, 200), "replacement", "other.wav"); err != nil {
		t.Fatal(err)
	}
	if err := w.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dataset, ManifestName))
	if err != nil {
		t.Fatalf("manifest missing after abort: %v", err)
	}
	if string(data) != before {
		t.Fatalf("manifest = %q, want %q", data, before)
	}
	names := clipNames(t, w.WavsDir())
	if len(names) != 2 || names[0] != "narrator_one_0001.wav" || names[1] != "narrator_one_0002.wav" {
		t.Fatalf("clips after abort = %v", names)
	}
	info, err := audio.ReadInfo(filepath.Join(w.WavsDir(), "narrator_one_0001.wav"))
	if err != nil || info.Frames != 100 {
		t.Fatalf("restored clip has %d frames (%v), want the original", info.Frames, err)
	}
	if _, err := os.Stat(filepath.Join(dataset, PreviousDirName)); !os.IsNotExist(err) {
		t.Fatalf("backup dir left behind: %v", err)
	}
}

func TestWriterForcedFinalizeDropsPreviousCorpus(t *testing.T) {
	dataset, _ := writeFirstCorpus(t)
	w := newForcedWriter(t, dataset, "run-2")
	if _, err := w.Commit(stageAndNumber(t, w, 200), "replacement", "other.wav"); err != nil {
		t.Fatal(err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dataset, ManifestName))
	if err != nil || string(data) != "narrator_one_0001.wav|replacement" {
		t.Fatalf("manifest = %q (%v)", data, err)
	}
	if names := clipNames(t, w.WavsDir()); len(names) != 1 {
		t.Fatalf("clips after replace = %v", names)
	}
	if _, err := os.Stat(filepath.Join(dataset, PreviousDirName)); !os.IsNotExist(err) {
		t.Fatalf("backup dir left behind: %v", err)
	}
}

func TestWriterPrepareRecoversUnfinishedForcedBuild(t *testing.T) {
	dataset, before := writeFirstCorpus(t)
	crashed := newForcedWriter(t, dataset, "run-2")
	if _, err := crashed.Commit(stageAndNumber(t, crashed, 200), "lost", "other.wav"); err != nil {
		t.Fatal(err)
	}
	// The forced build stops here without Finalize or Abort.

	w, err := NewWriter(Options{
		DatasetDir: dataset,
		StagingDir: filepath.Join(dataset, ".staging", "run-3"),
		Voice:      "Narrator One",
		SampleRate: testRate,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Prepare(false); !errors.Is(err, ErrCorpusExists) {
		t.Fatalf("expected the restored corpus to block an unforced build, got %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dataset, ManifestName))
	if err != nil || string(data) != before {
		t.Fatalf("manifest = %q (%v), want %q", data, err, before)
	}
	if names := clipNames(t, w.WavsDir()); len(names) != 2 {
		t.Fatalf("clips after recovery = %v", names)
	}
}

func TestWriterPrepareRemovesStaleBackup(t *testing.T) {
	dataset, before := writeFirstCorpus(t)
	stale := filepath.Join(dataset, PreviousDirName)
	if err := os.MkdirAll(filepath.Join(stale, WavsDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stale, previousReadyName), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stale, WavsDirName, "narrator_one_0009.wav"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newForcedWriter(t, dataset, "run-2")
	if err := w.Abort(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dataset, ManifestName))
	if err != nil || string(data) != before {
		t.Fatalf("manifest = %q (%v), want %q", data, err, before)
	}
	for _, name := range clipNames(t, w.WavsDir()) {
		if name == "narrator_one_0009.wav" {
			t.Fatal("stale backup clip was restored")
		}
	}
}
