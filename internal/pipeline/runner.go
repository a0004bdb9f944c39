package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"voicecorpus/internal/audio"
	"voicecorpus/internal/clip"
	"voicecorpus/internal/corpus"
	"voicecorpus/internal/filter"
	"voicecorpus/internal/journal"
	"voicecorpus/internal/logging"
	"voicecorpus/internal/observe"
	"voicecorpus/internal/scanner"
	"voicecorpus/internal/segment"
	"voicecorpus/internal/services"
	"voicecorpus/internal/transcribe"
)

// Rejection reasons produced by the runner itself.
const (
	ReasonDecodeFailed        = "decode_failed"
	ReasonTranscriptionFailed = "transcription_failed"
)

// DecisionRecorder persists per-segment outcomes.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, d journal.Decision) error
}

// Deps are the stage implementations a Runner drives.
type Deps struct {
	Decoder     audio.Decoder
	Segmenter   segment.Segmenter
	Validator   clip.Validator
	Transcriber transcribe.Transcriber
	Filter      *filter.Filter
	Writer      *corpus.Writer
	Journal     DecisionRecorder
	Metrics     *observe.Metrics
	Logger      *slog.Logger
}

// Options tune a run.
type Options struct {
	RunID    string
	Language string
	Backend  string
	Workers  int
	Progress func(Progress)
}

// Progress is reported after every decided segment and after every recording.
type Progress struct {
	Recording      string
	RecordingIndex int
	RecordingTotal int
	SegmentsDone   int
	SegmentsTotal  int
	Accepted       int
}

// Runner executes the pipeline over a fixed list of recordings. A Runner is
// used for one run only.
type Runner struct {
	deps    Deps
	opts    Options
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	summary Summary
}

// NewRunner validates deps and returns a Runner.
func NewRunner(deps Deps, opts Options) (*Runner, error) {
	switch {
	case deps.Decoder == nil:
		return nil, errors.New("pipeline: decoder is required")
	case deps.Segmenter == nil:
		return nil, errors.New("pipeline: segmenter is required")
	case deps.Transcriber == nil:
		return nil, errors.New("pipeline: transcriber is required")
	case deps.Filter == nil:
		return nil, errors.New("pipeline: filter is required")
	case deps.Writer == nil:
		return nil, errors.New("pipeline: writer is required")
	}
	if err := deps.Validator.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if deps.Metrics == nil {
		deps.Metrics = observe.NewNopMetrics()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		deps:    deps,
		opts:    opts,
		logger:  logging.NewComponentLogger(deps.Logger, "pipeline"),
		sampler: logging.NewProgressSampler(10),
		summary: newSummary(opts.RunID),
	}, nil
}

// Run processes recordings in order and writes the manifest. On error or
// cancellation the writer is aborted: no manifest is written and any corpus
// replaced by a forced build is restored.
func (r *Runner) Run(ctx context.Context, recordings []scanner.Recording) (Summary, error) {
	started := time.Now()
	ctx = services.WithRunID(ctx, r.opts.RunID)
	r.summary.Recordings = len(recordings)

	for i, rec := range recordings {
		if err := ctx.Err(); err != nil {
			return r.abort(ctx, err, started)
		}
		if err := r.processRecording(ctx, rec, i, len(recordings)); err != nil {
			return r.abort(ctx, err, started)
		}
	}

	if err := r.deps.Writer.Finalize(); err != nil {
		return r.abort(ctx, err, started)
	}
	r.summary.Entries = r.deps.Writer.Entries()
	r.summary.Duration = time.Since(started)
	r.deps.Filter.LogSummary(ctx)

	logger := logging.WithContext(ctx, r.logger)
	if len(r.summary.Entries) == 0 {
		logging.WarnWithContext(logger, "corpus is empty", "corpus_empty",
			logging.Int("recordings", r.summary.Recordings),
			logging.Int("segments", r.summary.Segments),
			logging.String(logging.FieldErrorHint, "check input_dir, segment thresholds and the transcription backend"),
			logging.String(logging.FieldImpact, "metadata.csv was written with no entries"),
		)
	}
	logger.Info("corpus written",
		logging.String(logging.FieldEventType, "corpus_written"),
		logging.Int("clips", len(r.summary.Entries)),
		logging.Int("rejected", r.summary.RejectedTotal()),
		logging.Float64("corpus_seconds", r.summary.TotalSeconds),
		logging.Duration("elapsed", r.summary.Duration),
	)
	return r.summary, nil
}

func (r *Runner) abort(ctx context.Context, cause error, started time.Time) (Summary, error) {
	r.summary.Duration = time.Since(started)
	if err := r.deps.Writer.Abort(); err != nil {
		logging.WarnWithContext(r.logger, "corpus cleanup failed", "corpus_abort_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the next build restores the previous corpus and clears staging"),
		)
	}
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		r.summary.Interrupted = true
		logging.WithContext(ctx, r.logger).Info("build interrupted",
			logging.String(logging.FieldEventType, "build_interrupted"),
			logging.Int("clips_committed", r.deps.Writer.Sequence().Last()),
		)
	}
	return r.summary, cause
}

type candidate struct {
	index    int
	interval segment.Interval
	seconds  float64
}

type outcome struct {
	staged corpus.StagedClip
	text   string
	err    error
}

func (r *Runner) processRecording(ctx context.Context, rec scanner.Recording, index, total int) error {
	ctx = services.WithRecording(ctx, rec.RelPath)
	logger := logging.WithContext(ctx, r.logger)
	r.sampler.Reset()

	decodeStart := time.Now()
	wf, err := r.deps.Decoder.Decode(services.WithStage(ctx, "decode"), rec.Path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.summary.DecodeFailures++
		r.summary.addRejection(ReasonDecodeFailed)
		logging.WarnWithContext(logger, "recording could not be decoded", "recording_decode_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.String(logging.FieldImpact, "recording skipped; remaining recordings continue"),
		)
		r.deps.Metrics.RecordRecording(ctx, ReasonDecodeFailed, 0, 0)
		r.record(ctx, journal.Decision{
			Recording:    rec.RelPath,
			SegmentIndex: -1,
			Stage:        journal.StageDecode,
			Result:       journal.ResultRejected,
			Reason:       ReasonDecodeFailed,
			Text:         err.Error(),
		})
		r.report(rec, index, total, 0, 0)
		return nil
	}
	decodeSeconds := time.Since(decodeStart).Seconds()

	intervals, err := r.deps.Segmenter.Split(wf)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "segment", "split", rec.RelPath, err)
	}
	r.summary.Segments += len(intervals)
	r.deps.Metrics.RecordRecording(ctx, "ok", decodeSeconds, len(intervals))
	logger.Info("recording segmented",
		logging.String(logging.FieldEventType, "recording_segmented"),
		logging.Int("recording_index", index+1),
		logging.Int("recording_total", total),
		logging.Float64("audio_seconds", wf.Duration().Seconds()),
		logging.Int("segments", len(intervals)),
	)

	var candidates []candidate
	done := 0
	for i, iv := range intervals {
		decision := r.deps.Validator.Check(iv, wf.SampleRate)
		if decision.Accepted {
			candidates = append(candidates, candidate{index: i, interval: iv, seconds: decision.Seconds})
			continue
		}
		done++
		r.reject(ctx, rec, i, iv, decision.Seconds, journal.StageValidate, decision.Reason, "")
	}

	outcomes, err := r.transcribeAll(ctx, wf, candidates)
	if err != nil {
		return err
	}

	for k, c := range candidates {
		if err := r.commit(ctx, rec, c, outcomes[k]); err != nil {
			return err
		}
		done++
		r.report(rec, index, total, done, len(intervals))
		if r.sampler.ShouldLog(done, len(intervals)) {
			logger.Info("recording progress",
				logging.String(logging.FieldEventType, "recording_progress"),
				logging.Int("segments_done", done),
				logging.Int("segments_total", len(intervals)),
				logging.Int("clips_total", r.deps.Writer.Sequence().Last()),
			)
		}
	}
	r.report(rec, index, total, len(intervals), len(intervals))
	return nil
}

// transcribeAll stages and transcribes candidates with at most Workers calls
// in flight. Results are indexed like candidates. Staging failures and
// cancellation abort the group; transcription failures are returned per clip.
func (r *Runner) transcribeAll(ctx context.Context, wf audio.Waveform, candidates []candidate) ([]outcome, error) {
	outcomes := make([]outcome, len(candidates))
	if len(candidates) == 0 {
		return outcomes, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for k, c := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			staged, err := r.deps.Writer.Stage(wf.Slice(c.interval.Start, c.interval.End))
			if err != nil {
				return err
			}
			outcomes[k].staged = staged
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := r.transcribeOne(gctx, staged.Path)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			outcomes[k].text = text
			outcomes[k].err = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (r *Runner) transcribeOne(ctx context.Context, path string) (string, error) {
	r.deps.Metrics.ActiveTranscriptions.Add(ctx, 1)
	defer r.deps.Metrics.ActiveTranscriptions.Add(ctx, -1)

	started := time.Now()
	text, err := r.deps.Transcriber.Transcribe(services.WithStage(ctx, "transcribe"), path, r.opts.Language)
	status := "ok"
	switch {
	case errors.Is(err, services.ErrTimeout):
		status = "timeout"
	case err != nil:
		status = "failed"
	}
	r.deps.Metrics.RecordTranscription(ctx, r.opts.Backend, status, time.Since(started).Seconds())
	return text, err
}

func (r *Runner) commit(ctx context.Context, rec scanner.Recording, c candidate, out outcome) error {
	logger := logging.WithContext(ctx, r.logger)
	if out.err != nil {
		if err := r.deps.Writer.Discard(out.staged); err != nil {
			return err
		}
		logging.WarnWithContext(logger, "transcription failed", "transcription_failed",
			append(logging.SegmentAttrs(c.index, c.seconds),
				logging.Error(out.err),
				logging.String(logging.FieldErrorHint, services.Hint(out.err)),
				logging.String(logging.FieldImpact, "segment skipped without a clip number"),
			)...,
		)
		r.reject(ctx, rec, c.index, c.interval, c.seconds, journal.StageTranscribe, ReasonTranscriptionFailed, out.err.Error())
		return nil
	}

	numbered, err := r.deps.Writer.Number(out.staged)
	if err != nil {
		return err
	}
	verdict := r.deps.Filter.Check(out.text)
	if !verdict.Accepted {
		if err := r.deps.Writer.Reject(numbered); err != nil {
			return err
		}
		logger.Debug("transcript rejected",
			logging.Args(append(logging.DecisionAttrs("transcript_filter", journal.ResultRejected, verdict.Reason),
				logging.Int(logging.FieldSegmentIndex, c.index),
				logging.String("text", out.text),
				logging.String("detail", verdict.Detail),
			)...)...,
		)
		r.reject(ctx, rec, c.index, c.interval, c.seconds, journal.StageFilter, verdict.Reason, out.text)
		return nil
	}

	entry, err := r.deps.Writer.Commit(numbered, out.text, rec.RelPath)
	if err != nil {
		return err
	}
	r.summary.Accepted++
	r.summary.TotalSeconds += c.seconds
	r.deps.Metrics.RecordDecision(ctx, journal.ResultAccepted, "", c.seconds)
	logger.Debug("clip accepted",
		logging.Args(append(logging.SegmentAttrs(c.index, c.seconds),
			logging.String(logging.FieldEventType, "clip_accepted"),
			logging.String("clip", entry.File),
		)...)...,
	)
	r.record(ctx, journal.Decision{
		Recording:    rec.RelPath,
		SegmentIndex: c.index,
		StartSample:  c.interval.Start,
		EndSample:    c.interval.End,
		Seconds:      c.seconds,
		Stage:        journal.StageCommit,
		Result:       journal.ResultAccepted,
		ClipFile:     entry.File,
		Text:         entry.Text,
	})
	return nil
}

func (r *Runner) reject(ctx context.Context, rec scanner.Recording, index int, iv segment.Interval, seconds float64, stage, reason, text string) {
	r.summary.addRejection(reason)
	r.deps.Metrics.RecordDecision(ctx, journal.ResultRejected, reason, seconds)
	if stage == journal.StageValidate {
		logging.WithContext(ctx, r.logger).Debug("segment rejected",
			logging.Args(append(logging.DecisionAttrs("segment_validation", journal.ResultRejected, reason),
				logging.SegmentAttrs(index, seconds)...,
			)...)...,
		)
	}
	r.record(ctx, journal.Decision{
		Recording:    rec.RelPath,
		SegmentIndex: index,
		StartSample:  iv.Start,
		EndSample:    iv.End,
		Seconds:      seconds,
		Stage:        stage,
		Result:       journal.ResultRejected,
		Reason:       reason,
		Text:         text,
	})
}

func (r *Runner) record(ctx context.Context, d journal.Decision) {
	if r.deps.Journal == nil {
		return
	}
	d.RunID = r.opts.RunID
	if err := r.deps.Journal.RecordDecision(ctx, d); err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "journal write failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, fmt.Sprintf("decision for segment %d missing from the run journal", d.SegmentIndex)),
		)
	}
}

func (r *Runner) report(rec scanner.Recording, index, total, done, segments int) {
	if r.opts.Progress == nil {
		return
	}
	r.opts.Progress(Progress{
		Recording:      rec.RelPath,
		RecordingIndex: index,
		RecordingTotal: total,
		SegmentsDone:   done,
		SegmentsTotal:  segments,
		Accepted:       r.summary.Accepted,
	})
}
