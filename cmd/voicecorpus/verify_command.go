package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"voicecorpus/internal/config"
	"voicecorpus/internal/corpus"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var datasetDir string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check an existing corpus for gaps, orphans and format problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := cfg.Paths.DatasetDir
			if datasetDir != "" {
				if dir, err = config.ExpandPath(datasetDir); err != nil {
					return fmt.Errorf("resolve dataset path: %w", err)
				}
			}
			report, err := corpus.Verify(dir, corpus.VerifyOptions{
				Voice:      cfg.Voice.Name,
				SampleRate: cfg.Audio.SampleRate,
				MinSeconds: cfg.Segment.MinSeconds,
				MaxSeconds: cfg.Segment.MaxSeconds,
			})
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeJSON(cmd, verifyJSON(report)); err != nil {
					return err
				}
			} else {
				printVerifyReport(cmd, dir, report)
			}
			if !report.OK() {
				return fmt.Errorf("corpus has %d issue(s)", len(report.Issues))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetDir, "dataset", "", "Dataset directory to verify (defaults to paths.dataset_dir)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func printVerifyReport(cmd *cobra.Command, dir string, report corpus.Report) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Corpus "+dir, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Entries", statusInfo, strconv.Itoa(report.Entries), colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, formatSeconds(report.TotalSeconds), colorize))
	if report.OK() {
		fmt.Fprintln(out, renderStatusLine("Integrity", statusOK, "no issues", colorize))
		return
	}
	fmt.Fprintln(out, renderStatusLine("Integrity", statusError, fmt.Sprintf("%d issue(s)", len(report.Issues)), colorize))

	rows := make([][]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		line := "-"
		if issue.Line > 0 {
			line = strconv.Itoa(issue.Line)
		}
		rows = append(rows, []string{line, optional(issue.File != "", issue.File), issue.Kind, issue.Detail})
	}
	fmt.Fprint(out, renderTable([]string{"Line", "File", "Issue", "Detail"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
}

type verifyIssue struct {
	Line   int    `json:"line,omitempty"`
	File   string `json:"file,omitempty"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

type verifyOutput struct {
	Entries      int           `json:"entries"`
	TotalSeconds float64       `json:"total_seconds"`
	OK           bool          `json:"ok"`
	Issues       []verifyIssue `json:"issues"`
}

func verifyJSON(report corpus.Report) verifyOutput {
	out := verifyOutput{
		Entries:      report.Entries,
		TotalSeconds: report.TotalSeconds,
		OK:           report.OK(),
		Issues:       make([]verifyIssue, 0, len(report.Issues)),
	}
	for _, issue := range report.Issues {
		out.Issues = append(out.Issues, verifyIssue{Line: issue.Line, File: issue.File, Kind: issue.Kind, Detail: issue.Detail})
	}
	return out
}

