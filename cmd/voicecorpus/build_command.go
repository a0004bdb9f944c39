package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"voicecorpus/internal/config"
	"voicecorpus/internal/journal"
	"voicecorpus/internal/logging"
	"voicecorpus/internal/pipeline"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var noProgress bool
	var workers int
	var backend string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Segment, transcribe and write the corpus",
		Long: `Build reads every recording in input_dir, splits it on silence, keeps
segments inside the configured duration bounds, transcribes them and writes
wavs/<voice>_NNNN.wav plus metadata.csv into dataset_dir.

An existing corpus is only replaced with --force.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyBuildOverrides(cfg, cmd, workers, backend); err != nil {
				return err
			}

			interactive := !noProgress && shouldColorize(cmd.ErrOrStderr())
			logger, err := ctx.logger(interactive)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logging.PruneLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logging.LogFileName)
			pruneJournal(cmd, ctx, cfg)

			var bar *buildProgress
			opts := pipeline.BuildOptions{
				Force:   force,
				Version: version,
				Logger:  logger,
			}
			if interactive {
				bar = newBuildProgress(cmd.ErrOrStderr())
				opts.Progress = bar.update
			}

			summary, err := pipeline.Build(cmd.Context(), cfg, opts)
			if bar != nil {
				bar.finish()
			}
			if err != nil {
				if summary.Interrupted {
					fmt.Fprintf(cmd.ErrOrStderr(), "Build interrupted; %s was left unchanged\n", cfg.ManifestPath())
				}
				return err
			}
			printBuildSummary(cmd.OutOrStdout(), cfg, summary)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing corpus in dataset_dir")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the interactive progress bar")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent transcriptions (overrides transcription.workers)")
	cmd.Flags().StringVar(&backend, "backend", "", "Transcription backend (overrides transcription.backend)")
	return cmd
}

func applyBuildOverrides(cfg *config.Config, cmd *cobra.Command, workers int, backend string) error {
	changed := false
	if cmd.Flags().Changed("workers") {
		cfg.Transcription.Workers = workers
		changed = true
	}
	if backend = strings.ToLower(strings.TrimSpace(backend)); backend != "" {
		cfg.Transcription.Backend = backend
		changed = true
	}
	if !changed {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// pruneJournal drops runs older than the log retention window. Failures are
// reported but never block a build.
func pruneJournal(cmd *cobra.Command, ctx *commandContext, cfg *config.Config) {
	if cfg.Logging.RetentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -cfg.Logging.RetentionDays)
	err := ctx.withJournal(func(store *journal.Store) error {
		_, err := store.Prune(cmd.Context(), cutoff)
		return err
	})
	if err != nil && cmd.Context().Err() == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: journal prune failed: %v\n", err)
	}
}

type buildProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newBuildProgress(out io.Writer) *buildProgress {
	return &buildProgress{out: out}
}

func (p *buildProgress) update(pr pipeline.Progress) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(pr.RecordingTotal,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	p.bar.Describe(fmt.Sprintf("%-24s %d/%d segments, %d clips",
		truncateLabel(pr.Recording, 24), pr.SegmentsDone, pr.SegmentsTotal, pr.Accepted))
	done := pr.RecordingIndex
	if pr.SegmentsTotal == 0 || pr.SegmentsDone >= pr.SegmentsTotal {
		done++
	}
	_ = p.bar.Set(done)
}

func (p *buildProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func truncateLabel(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}

func printBuildSummary(out io.Writer, cfg *config.Config, summary pipeline.Summary) {
	rows := [][]string{
		{"Run", summary.RunID},
		{"Recordings", strconv.Itoa(summary.Recordings)},
		{"Segments", strconv.Itoa(summary.Segments)},
		{"Clips written", strconv.Itoa(len(summary.Entries))},
		{"Corpus duration", formatSeconds(summary.TotalSeconds)},
		{"Rejected", strconv.Itoa(summary.RejectedTotal())},
		{"Elapsed", summary.Duration.Round(time.Second).String()},
		{"Manifest", cfg.ManifestPath()},
	}
	fmt.Fprint(out, renderTable([]string{"Build", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))

	breakdown := summary.RejectionBreakdown()
	if len(breakdown) == 0 {
		return
	}
	reasonRows := make([][]string, 0, len(breakdown))
	for _, rc := range breakdown {
		reasonRows = append(reasonRows, []string{rc.Reason, strconv.Itoa(rc.Count)})
	}
	fmt.Fprint(out, renderTable([]string{"Rejection reason", "Count"}, reasonRows, []columnAlignment{alignLeft, alignRight}))
}

// formatSeconds renders a duration as h:mm:ss.
func formatSeconds(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

