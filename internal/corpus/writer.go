package corpus

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"voicecorpus/internal/audio"
	"voicecorpus/internal/fileutil"
	"voicecorpus/internal/logging"
	"voicecorpus/internal/services"
	"voicecorpus/internal/textutil"
)

// ErrCorpusExists reports that the dataset already holds a corpus.
var ErrCorpusExists = errors.New("dataset already contains a corpus")

// previousReadyName marks a completed move into the backup directory.
const previousReadyName = ".ready"

// Options configures a Writer.
type Options struct {
	DatasetDir string
	StagingDir string
	Voice      string
	SampleRate int
	Logger     *slog.Logger
}

// StagedClip is a clip written under a temporary name, not yet numbered.
type StagedClip struct {
	Path    string
	Samples int
	Seconds float64
}

// NumberedClip is a staged clip that holds a claimed sequence ID.
type NumberedClip struct {
	StagedClip
	ID int
}

// Writer owns the clip directory, the sequence, and the accepted entries of
// one build run. It is not safe for concurrent use.
type Writer struct {
	datasetDir string
	wavsDir    string
	stagingDir string
	voice      string
	sampleRate int
	logger     *slog.Logger

	seq       Sequence
	entries   []Entry
	pending   *NumberedClip
	finalized bool
	replacing bool
}

// NewWriter validates options and returns a Writer. The dataset and staging
// directories are created by Prepare.
func NewWriter(opts Options) (*Writer, error) {
	if strings.TrimSpace(opts.DatasetDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "corpus", "new writer", "dataset dir is required", nil)
	}
	if strings.TrimSpace(opts.StagingDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "corpus", "new writer", "staging dir is required", nil)
	}
	if opts.SampleRate <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "corpus", "new writer", fmt.Sprintf("invalid sample rate %d", opts.SampleRate), nil)
	}
	return &Writer{
		datasetDir: opts.DatasetDir,
		wavsDir:    filepath.Join(opts.DatasetDir, WavsDirName),
		stagingDir: opts.StagingDir,
		voice:      textutil.SanitizeToken(opts.Voice),
		sampleRate: opts.SampleRate,
		logger:     logging.NewComponentLogger(opts.Logger, "corpus"),
	}, nil
}

// Voice returns the sanitized clip filename prefix.
func (w *Writer) Voice() string { return w.voice }

// WavsDir returns the clip directory.
func (w *Writer) WavsDir() string { return w.wavsDir }

// ManifestPath returns the manifest location.
func (w *Writer) ManifestPath() string { return filepath.Join(w.datasetDir, ManifestName) }

// FileName returns the clip filename for id.
func (w *Writer) FileName(id int) string {
	return fmt.Sprintf("%s_%04d.wav", w.voice, id)
}

// Prepare creates the dataset layout. An existing manifest or clip files make
// it fail with ErrCorpusExists unless force is set, in which case they are
// moved aside. Finalize discards the moved corpus and Abort puts it back.
func (w *Writer) Prepare(force bool) error {
	if err := os.MkdirAll(w.wavsDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "corpus", "prepare", "create wavs dir", err)
	}
	if err := w.recoverPrevious(); err != nil {
		return services.Wrap(services.ErrConfiguration, "corpus", "prepare", "recover previous corpus", err)
	}
	existing, err := existingClips(w.wavsDir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "corpus", "prepare", "list wavs dir", err)
	}
	manifestExists := fileutil.Exists(w.ManifestPath())
	if manifestExists || len(existing) > 0 {
		if !force {
			return services.Wrap(services.ErrConflict, "corpus", "prepare",
				fmt.Sprintf("%s has %d clips (manifest present: %t); pass --force to replace", w.datasetDir, len(existing), manifestExists),
				ErrCorpusExists)
		}
		if err := w.movePrevious(existing, manifestExists); err != nil {
			if undoErr := w.restorePrevious(false); undoErr != nil {
				err = errors.Join(err, undoErr)
			} else {
				w.replacing = false
			}
			return services.Wrap(services.ErrConfiguration, "corpus", "prepare", "move previous corpus aside", err)
		}
		w.logger.Info("existing corpus moved aside",
			logging.Int("clips_moved", len(existing)),
			logging.Bool("manifest_moved", manifestExists),
			logging.String("backup_dir", w.previousDir()),
			logging.String(logging.FieldEventType, "corpus_replaced"),
		)
	}
	if err := os.MkdirAll(w.stagingDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "corpus", "prepare", "create staging dir", err)
	}
	return nil
}

// Stage writes samples to a temporary clip in the staging directory.
func (w *Writer) Stage(samples []float64) (StagedClip, error) {
	path := filepath.Join(w.stagingDir, uuid.NewString()+".wav")
	if err := audio.WriteClipFile(path, samples, w.sampleRate); err != nil {
		return StagedClip{}, services.Wrap(services.ErrValidation, "corpus", "stage", "write clip", err)
	}
	return StagedClip{
		Path:    path,
		Samples: len(samples),
		Seconds: float64(len(samples)) / float64(w.sampleRate),
	}, nil
}

// Number claims the next sequence ID for a staged clip. The claim must be
// resolved by Commit or Reject before another clip is numbered.
func (w *Writer) Number(staged StagedClip) (NumberedClip, error) {
	if w.pending != nil {
		return NumberedClip{}, fmt.Errorf("corpus: clip %d is still pending", w.pending.ID)
	}
	next, id := w.seq.Claim()
	w.seq = next
	clip := NumberedClip{StagedClip: staged, ID: id}
	w.pending = &clip
	return clip, nil
}

// Commit moves a numbered clip to its final name and records the entry. When
// the move fails the ID is released.
func (w *Writer) Commit(clip NumberedClip, text, recording string) (Entry, error) {
	if err := w.resolve(clip); err != nil {
		return Entry{}, err
	}
	name := w.FileName(clip.ID)
	if err := fileutil.MoveNoClobber(clip.Path, filepath.Join(w.wavsDir, name)); err != nil {
		if released, relErr := w.seq.Release(clip.ID); relErr == nil {
			w.seq = released
		}
		return Entry{}, services.Wrap(services.ErrValidation, "corpus", "commit", name, err)
	}
	entry := Entry{ID: clip.ID, File: name, Text: text, Recording: recording, Seconds: clip.Seconds}
	w.entries = append(w.entries, entry)
	return entry, nil
}

// Reject deletes a numbered clip and releases its ID so the next clip reuses it.
func (w *Writer) Reject(clip NumberedClip) error {
	if err := w.resolve(clip); err != nil {
		return err
	}
	released, err := w.seq.Release(clip.ID)
	if err != nil {
		return err
	}
	w.seq = released
	return w.Discard(clip.StagedClip)
}

// Discard removes a staged clip that was never numbered.
func (w *Writer) Discard(staged StagedClip) error {
	if err := os.Remove(staged.Path); err != nil && !os.IsNotExist(err) {
		return services.Wrap(services.ErrValidation, "corpus", "discard", filepath.Base(staged.Path), err)
	}
	return nil
}

func (w *Writer) resolve(clip NumberedClip) error {
	if w.pending == nil || w.pending.ID != clip.ID {
		return fmt.Errorf("corpus: clip %d is not the pending claim", clip.ID)
	}
	w.pending = nil
	return nil
}

// Entries returns a copy of the accepted entries in order.
func (w *Writer) Entries() []Entry {
	return append([]Entry(nil), w.entries...)
}

// Sequence returns the current sequence value.
func (w *Writer) Sequence() Sequence {
	return w.seq
}

// Finalize writes the manifest atomically and removes the staging directory.
// It may only be called once.
func (w *Writer) Finalize() error {
	if w.finalized {
		return errors.New("corpus: already finalized")
	}
	if w.pending != nil {
		return fmt.Errorf("corpus: clip %d is still pending", w.pending.ID)
	}
	content := FormatManifest(w.entries)
	if err := fileutil.WriteFileAtomic(w.ManifestPath(), []byte(content), 0o644); err != nil {
		return services.Wrap(services.ErrValidation, "corpus", "finalize", "write manifest", err)
	}
	w.finalized = true
	if w.replacing {
		if err := os.RemoveAll(w.previousDir()); err != nil {
			logging.WarnWithContext(w.logger, "previous corpus cleanup failed", "corpus_backup_cleanup_failed",
				logging.String("path", w.previousDir()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the replaced corpus is removed by the next build"),
			)
		}
		w.replacing = false
	}
	if err := os.RemoveAll(w.stagingDir); err != nil {
		logging.WarnWithContext(w.logger, "staging cleanup failed", "staging_cleanup_failed",
			logging.String("path", w.stagingDir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "temporary clips remain until the next build"),
		)
	}
	return nil
}

// Abort removes the staging directory and the clips committed by this run.
// A corpus moved aside by a forced Prepare is restored, so the previous
// manifest and clips are left as they were.
func (w *Writer) Abort() error {
	var errs []error
	if !w.finalized {
		for _, entry := range w.entries {
			if err := os.Remove(filepath.Join(w.wavsDir, entry.File)); err != nil && !os.IsNotExist(err) {
				errs = append(errs, err)
			}
		}
		w.entries = nil
		if w.replacing {
			if err := w.restorePrevious(true); err != nil {
				errs = append(errs, fmt.Errorf("restore previous corpus: %w", err))
			} else {
				w.replacing = false
				w.logger.Info("previous corpus restored",
					logging.String(logging.FieldEventType, "corpus_restored"),
				)
			}
		}
	}
	if err := os.RemoveAll(w.stagingDir); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return services.Wrap(services.ErrConfiguration, "corpus", "abort", "clean up run", err)
	}
	return nil
}

func (w *Writer) previousDir() string {
	return filepath.Join(w.datasetDir, PreviousDirName)
}

// movePrevious moves the manifest and clips into the backup directory. The
// ready marker is written last, so a backup without it is an incomplete move.
func (w *Writer) movePrevious(clips []string, manifest bool) error {
	dir := w.previousDir()
	if err := os.MkdirAll(filepath.Join(dir, WavsDirName), 0o755); err != nil {
		return err
	}
	w.replacing = true
	if manifest {
		if err := fileutil.MoveNoClobber(w.ManifestPath(), filepath.Join(dir, ManifestName)); err != nil {
			return err
		}
	}
	for _, path := range clips {
		if err := fileutil.MoveNoClobber(path, filepath.Join(dir, WavsDirName, filepath.Base(path))); err != nil {
			return err
		}
	}
	if err := os.WriteFile(filepath.Join(dir, previousReadyName), nil, 0o644); err != nil {
		return err
	}
	return fileutil.SyncDir(w.datasetDir)
}

// restorePrevious moves the backup back into place. With discardCurrent the
// clips now in the wavs directory belong to the replacing build and are
// removed first.
func (w *Writer) restorePrevious(discardCurrent bool) error {
	dir := w.previousDir()
	if discardCurrent {
		current, err := existingClips(w.wavsDir)
		if err != nil {
			return err
		}
		for _, path := range current {
			if err := os.Remove(path); err != nil {
				return err
			}
		}
	}
	saved, err := existingClips(filepath.Join(dir, WavsDirName))
	if err != nil {
		return err
	}
	for _, path := range saved {
		if err := fileutil.MoveNoClobber(path, filepath.Join(w.wavsDir, filepath.Base(path))); err != nil {
			return err
		}
	}
	manifest := filepath.Join(dir, ManifestName)
	if fileutil.Exists(manifest) {
		if err := fileutil.MoveNoClobber(manifest, w.ManifestPath()); err != nil {
			return err
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return fileutil.SyncDir(w.datasetDir)
}

// recoverPrevious handles a backup left by a forced build that never reached
// Finalize or Abort. An incomplete move is undone. A complete move with no
// manifest means the build died mid-run, so its clips are discarded and the
// backup restored. A manifest next to a complete backup means the build
// finished, and the backup is stale.
func (w *Writer) recoverPrevious() error {
	dir := w.previousDir()
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	ready := fileutil.Exists(filepath.Join(dir, previousReadyName))
	if ready && fileutil.Exists(w.ManifestPath()) {
		w.logger.Info("removing stale corpus backup",
			logging.String("backup_dir", dir),
			logging.String(logging.FieldEventType, "corpus_backup_removed"),
		)
		return os.RemoveAll(dir)
	}
	logging.WarnWithContext(w.logger, "restoring corpus left by an unfinished build", "corpus_backup_restored",
		logging.String("backup_dir", dir),
		logging.Bool("move_completed", ready),
		logging.String(logging.FieldErrorHint, "a previous forced build stopped before writing its manifest"),
		logging.String(logging.FieldImpact, "clips from the unfinished build are discarded"),
	)
	return w.restorePrevious(ready)
}

func existingClips(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var clips []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			continue
		}
		clips = append(clips, filepath.Join(dir, entry.Name()))
	}
	return clips, nil
}
