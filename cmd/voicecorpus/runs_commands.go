package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voicecorpus/internal/journal"
)

const shortIDLength = 8

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the build run journal",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent builds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No builds recorded")
					return nil
				}
				now := time.Now()
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						string(run.Status),
						humanize.Time(run.StartedAt),
						run.Duration(now).Round(time.Second).String(),
						strconv.Itoa(run.Counts.Accepted),
						strconv.Itoa(run.Counts.Rejected),
						formatSeconds(run.Counts.TotalSeconds),
						run.Backend,
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Status", "Started", "Took", "Clips", "Rejected", "Audio", "Backend"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var showRejected bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one build with its rejection breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				run, err := store.FindRun(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %q not found", args[0])
				}
				counts, err := store.RejectionCounts(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				var rejected []journal.Decision
				if showRejected || asJSON {
					rejected, err = store.Decisions(cmd.Context(), run.ID, journal.ResultRejected)
					if err != nil {
						return err
					}
				}
				if asJSON {
					return writeJSON(cmd, runJSON(run, counts, rejected))
				}
				printRun(cmd, run, counts, rejected)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showRejected, "rejected", false, "List every rejected segment")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func printRun(cmd *cobra.Command, run *journal.Run, counts []journal.ReasonCount, rejected []journal.Decision) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(run.Status), string(run.Status), colorize))
	fmt.Fprintln(out, renderStatusLine("Started", statusInfo, run.StartedAt.Local().Format(time.DateTime), colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, run.Duration(time.Now()).Round(time.Second).String(), colorize))
	fmt.Fprintln(out, renderStatusLine("Input", statusInfo, run.InputDir, colorize))
	fmt.Fprintln(out, renderStatusLine("Dataset", statusInfo, run.DatasetDir, colorize))
	fmt.Fprintln(out, renderStatusLine("Voice", statusInfo, run.Voice, colorize))
	fmt.Fprintln(out, renderStatusLine("Backend", statusInfo, run.Backend, colorize))
	fmt.Fprintln(out, renderStatusLine("Recordings", statusInfo, strconv.Itoa(run.Counts.Recordings), colorize))
	fmt.Fprintln(out, renderStatusLine("Segments", statusInfo, strconv.Itoa(run.Counts.Segments), colorize))
	fmt.Fprintln(out, renderStatusLine("Clips", statusInfo, fmt.Sprintf("%d (%s)", run.Counts.Accepted, formatSeconds(run.Counts.TotalSeconds)), colorize))
	if run.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, run.ErrorMessage, colorize))
	}

	if len(counts) > 0 {
		rows := make([][]string, 0, len(counts))
		for _, rc := range counts {
			rows = append(rows, []string{rc.Stage, rc.Reason, strconv.Itoa(rc.Count)})
		}
		fmt.Fprint(out, renderTable([]string{"Stage", "Reason", "Count"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight}))
	}
	if len(rejected) > 0 {
		rows := make([][]string, 0, len(rejected))
		for _, d := range rejected {
			segment := "-"
			if d.SegmentIndex >= 0 {
				segment = strconv.Itoa(d.SegmentIndex)
			}
			rows = append(rows, []string{d.Recording, segment, fmt.Sprintf("%.2f", d.Seconds), d.Reason, d.Text})
		}
		fmt.Fprint(out, renderTable([]string{"Recording", "Segment", "Seconds", "Reason", "Text"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft}))
	}
}

func runStatusKind(status journal.Status) statusKind {
	switch status {
	case journal.StatusCompleted:
		return statusOK
	case journal.StatusFailed:
		return statusError
	case journal.StatusInterrupted:
		return statusWarn
	default:
		return statusInfo
	}
}

type runDecisionJSON struct {
	Recording    string  `json:"recording"`
	SegmentIndex int     `json:"segment_index"`
	Seconds      float64 `json:"seconds"`
	Stage        string  `json:"stage"`
	Reason       string  `json:"reason"`
	Text         string  `json:"text,omitempty"`
}

type runOutput struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
	InputDir     string            `json:"input_dir"`
	DatasetDir   string            `json:"dataset_dir"`
	Voice        string            `json:"voice"`
	Backend      string            `json:"backend"`
	SampleRate   int               `json:"sample_rate"`
	Recordings   int               `json:"recordings"`
	Segments     int               `json:"segments"`
	Accepted     int               `json:"accepted"`
	Rejected     int               `json:"rejected"`
	TotalSeconds float64           `json:"total_seconds"`
	Error        string            `json:"error,omitempty"`
	Rejections   map[string]int    `json:"rejections"`
	Decisions    []runDecisionJSON `json:"rejected_segments"`
}

func runJSON(run *journal.Run, counts []journal.ReasonCount, rejected []journal.Decision) runOutput {
	out := runOutput{
		ID:           run.ID,
		Status:       string(run.Status),
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
		InputDir:     run.InputDir,
		DatasetDir:   run.DatasetDir,
		Voice:        run.Voice,
		Backend:      run.Backend,
		SampleRate:   run.SampleRate,
		Recordings:   run.Counts.Recordings,
		Segments:     run.Counts.Segments,
		Accepted:     run.Counts.Accepted,
		Rejected:     run.Counts.Rejected,
		TotalSeconds: run.Counts.TotalSeconds,
		Error:        run.ErrorMessage,
		Rejections:   make(map[string]int, len(counts)),
		Decisions:    make([]runDecisionJSON, 0, len(rejected)),
	}
	for _, rc := range counts {
		out.Rejections[rc.Stage+"/"+rc.Reason] = rc.Count
	}
	for _, d := range rejected {
		out.Decisions = append(out.Decisions, runDecisionJSON{
			Recording:    d.Recording,
			SegmentIndex: d.SegmentIndex,
			Seconds:      d.Seconds,
			Stage:        d.Stage,
			Reason:       d.Reason,
			Text:         d.Text,
		})
	}
	return out
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

