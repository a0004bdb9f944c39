package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"voicecorpus/internal/audio"
	"voicecorpus/internal/clip"
	"voicecorpus/internal/config"
	"voicecorpus/internal/corpus"
	"voicecorpus/internal/filter"
	"voicecorpus/internal/journal"
	"voicecorpus/internal/logging"
	"voicecorpus/internal/observe"
	"voicecorpus/internal/scanner"
	"voicecorpus/internal/segment"
	"voicecorpus/internal/services"
	"voicecorpus/internal/staging"
	"voicecorpus/internal/transcribe"
)

// LockFileName is created inside the dataset directory for the duration of a build.
const LockFileName = ".voicecorpus.lock"

// ErrBuildInProgress is returned when another build holds the dataset lock.
var ErrBuildInProgress = errors.New("another build is using this dataset")

// BuildOptions carries per-invocation overrides for Build.
type BuildOptions struct {
	// Force replaces an existing corpus in the dataset directory.
	Force bool
	// Transcriber overrides the configured backend.
	Transcriber transcribe.Transcriber
	// Segmenter overrides the energy splitter built from configuration.
	Segmenter segment.Segmenter
	Progress  func(Progress)
	Version   string
	Logger    *slog.Logger
}

// Build runs one full corpus build for cfg. It holds the dataset lock for its
// duration and records the run and every decision in the journal.
func Build(ctx context.Context, cfg *config.Config, opts BuildOptions) (Summary, error) {
	logger := logging.NewComponentLogger(opts.Logger, "build")
	if cfg == nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "build", "load config", "configuration is required", nil)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "build", "prepare directories", "", err)
	}

	if err := os.MkdirAll(cfg.Paths.DatasetDir, 0o755); err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "build", "prepare directories", cfg.Paths.DatasetDir, err)
	}
	lockPath := filepath.Join(cfg.Paths.DatasetDir, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return Summary{}, services.Wrap(services.ErrConflict, "build", "acquire lock", lockPath, ErrBuildInProgress)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release dataset lock", logging.Error(err))
		}
	}()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger = logging.WithContext(ctx, logger)

	store, err := journal.Open(cfg)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "build", "open journal", cfg.JournalPath(), err)
	}
	defer store.Close()

	if n, err := store.MarkStaleRunning(ctx, cfg.Paths.DatasetDir); err != nil {
		logger.Warn("failed to mark stale runs", logging.Error(err))
	} else if n > 0 {
		logger.Info("marked stale runs interrupted",
			logging.String(logging.FieldEventType, "stale_runs_marked"),
			logging.Int64("runs", n),
		)
	}

	var transcriber *transcribe.Client
	if opts.Transcriber != nil {
		name := "custom"
		if named, ok := opts.Transcriber.(interface{ Name() string }); ok {
			name = named.Name()
		}
		transcriber = transcribe.Wrap(name, opts.Transcriber, cfg.TranscriptionTimeout(), opts.Logger)
	} else {
		transcriber, err = transcribe.New(cfg, opts.Logger)
		if err != nil {
			return Summary{}, err
		}
	}
	backendName := transcriber.Name()

	run, err := store.StartRun(ctx, journal.Run{
		ID:         runID,
		InputDir:   cfg.Paths.InputDir,
		DatasetDir: cfg.Paths.DatasetDir,
		Voice:      cfg.Voice.Name,
		Backend:    backendName,
		SampleRate: cfg.Audio.SampleRate,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("start run: %w", err)
	}
	logger.Info("build started",
		logging.String(logging.FieldEventType, "build_started"),
		logging.String("input_dir", run.InputDir),
		logging.String("dataset_dir", run.DatasetDir),
		logging.String("voice", run.Voice),
		logging.String("backend", run.Backend),
		logging.Int("workers", cfg.Transcription.Workers),
	)

	summary, err := build(ctx, cfg, opts, runID, transcriber, backendName, store, logger)
	finishRun(store, runID, summary, err, logger)
	return summary, err
}

func build(ctx context.Context, cfg *config.Config, opts BuildOptions, runID string, transcriber transcribe.Transcriber, backendName string, store *journal.Store, logger *slog.Logger) (_ Summary, err error) {
	stageRoot := cfg.StagingRoot()
	staging.CleanStale(ctx, stageRoot, cfg.StagingMaxAge(), map[string]struct{}{runID: {}}, opts.Logger)
	stageDir, err := staging.RunDir(stageRoot, runID)
	if err != nil {
		return Summary{RunID: runID}, services.Wrap(services.ErrConfiguration, "build", "create staging", stageRoot, err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(stageDir)
		}
	}()

	recordings, err := scanner.Scan(cfg.Paths.InputDir, scanner.Options{
		Extensions: cfg.Scan.Extensions,
		Recursive:  cfg.Scan.Recursive,
	})
	if err != nil {
		return Summary{RunID: runID}, err
	}
	logger.Info("recordings discovered",
		logging.String(logging.FieldEventType, "recordings_discovered"),
		logging.Int("recordings", len(recordings)),
		logging.Int64("bytes", scanner.TotalSize(recordings)),
		logging.String("input_digest", scanner.Digest(recordings)),
	)

	decoder, err := audio.NewDecoder(cfg.Audio.Decoder, cfg.Audio.SampleRate, cfg.Audio.FFmpegBinary)
	if err != nil {
		return Summary{RunID: runID}, services.Wrap(services.ErrConfiguration, "build", "decoder", cfg.Audio.Decoder, err)
	}
	segmenter := opts.Segmenter
	if segmenter == nil {
		splitter := segment.NewEnergySplitter()
		splitter.TopDB = cfg.Segment.TopDB
		splitter.FrameLength = cfg.Segment.FrameLength
		splitter.HopLength = cfg.Segment.HopLength
		segmenter = splitter
	}
	validator, err := clip.NewValidator(cfg.Segment.MinSeconds, cfg.Segment.MaxSeconds)
	if err != nil {
		return Summary{RunID: runID}, services.Wrap(services.ErrConfiguration, "build", "validator", "", err)
	}

	writer, err := corpus.NewWriter(corpus.Options{
		DatasetDir: cfg.Paths.DatasetDir,
		StagingDir: stageDir,
		Voice:      cfg.Voice.Name,
		SampleRate: cfg.Audio.SampleRate,
		Logger:     opts.Logger,
	})
	if err != nil {
		return Summary{RunID: runID}, err
	}
	if err := writer.Prepare(opts.Force); err != nil {
		return Summary{RunID: runID}, err
	}
	defer func() {
		if err == nil {
			return
		}
		if abortErr := writer.Abort(); abortErr != nil {
			logging.WarnWithContext(logger, "corpus cleanup failed", "corpus_abort_failed",
				logging.Error(abortErr),
				logging.String(logging.FieldImpact, "the next build restores the previous corpus"),
			)
		}
	}()

	metrics, shutdown, err := startMetrics(ctx, cfg, opts, logger)
	if err != nil {
		return Summary{RunID: runID}, err
	}
	defer shutdown()

	runner, err := NewRunner(Deps{
		Decoder:     decoder,
		Segmenter:   segmenter,
		Validator:   validator,
		Transcriber: transcriber,
		Filter:      filter.New(filter.RulesFromConfig(cfg.Filter), opts.Logger),
		Writer:      writer,
		Journal:     store,
		Metrics:     metrics,
		Logger:      opts.Logger,
	}, Options{
		RunID:    runID,
		Language: cfg.Voice.Language,
		Backend:  backendName,
		Workers:  cfg.Transcription.Workers,
		Progress: opts.Progress,
	})
	if err != nil {
		return Summary{RunID: runID}, err
	}
	return runner.Run(ctx, recordings)
}

// startMetrics returns live instruments and a running /metrics server when
// metrics.listen is set, and no-op instruments otherwise.
func startMetrics(ctx context.Context, cfg *config.Config, opts BuildOptions, logger *slog.Logger) (*observe.Metrics, func(), error) {
	if cfg.Metrics.Listen == "" {
		return observe.NewNopMetrics(), func() {}, nil
	}
	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voicecorpus",
		ServiceVersion: opts.Version,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init metrics: %w", err)
	}
	metrics, err := observe.NewMetrics(provider.MeterProvider)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, nil, fmt.Errorf("init metrics: %w", err)
	}
	server, err := observe.Listen(cfg.Metrics.Listen, provider.Handler, opts.Logger)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, nil, services.Wrap(services.ErrConfiguration, "build", "metrics listen", cfg.Metrics.Listen, err)
	}

	serveCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Serve(serveCtx); err != nil {
			logging.WarnWithContext(logger, "metrics server stopped", "metrics_server_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "metrics are no longer exported for this run"),
			)
		}
	}()
	return metrics, func() {
		cancel()
		<-done
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		_ = provider.Shutdown(shutdownCtx)
	}, nil
}

func finishRun(store *journal.Store, runID string, summary Summary, runErr error, logger *slog.Logger) {
	status := journal.StatusCompleted
	errMsg := ""
	switch {
	case runErr == nil:
	case summary.Interrupted || errors.Is(runErr, context.Canceled):
		status = journal.StatusInterrupted
		errMsg = runErr.Error()
	default:
		status = journal.StatusFailed
		errMsg = runErr.Error()
	}
	counts := journal.Counts{
		Recordings:   summary.Recordings,
		Segments:     summary.Segments,
		Accepted:     summary.Accepted,
		Rejected:     summary.RejectedTotal(),
		TotalSeconds: summary.TotalSeconds,
	}
	// The build context may already be cancelled; the final status must still land.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.FinishRun(ctx, runID, status, counts, errMsg); err != nil {
		logging.WarnWithContext(logger, "failed to record run result", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run stays in running state until the next build"),
		)
	}
	if runErr != nil && status == journal.StatusFailed {
		logging.ErrorWithContext(logger, "build failed", "build_failed",
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, services.Hint(runErr)),
		)
	}
}
