package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voicecorpus/internal/deps"
	"voicecorpus/internal/language"
	"voicecorpus/internal/preflight"
	"voicecorpus/internal/staging"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report external tools, directories and backend reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			if ctx.configPath != "" {
				fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, ctx.configPath, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Voice", statusInfo, fmt.Sprintf("%s (%s, %s)", cfg.Voice.Name, cfg.Voice.Language, language.DisplayName(cfg.Voice.Language)), colorize))
			fmt.Fprintln(out, renderStatusLine("Backend", statusInfo, fmt.Sprintf("%s, %d worker(s)", cfg.Transcription.Backend, cfg.Transcription.Workers), colorize))
			fmt.Fprintln(out, renderStatusLine("Metrics", statusInfo, optional(cfg.Metrics.Listen != "", cfg.Metrics.Listen), colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			for _, status := range statuses {
				kind := statusOK
				if !status.Available {
					kind = statusError
					if status.Optional {
						kind = statusWarn
					}
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, status.Detail, colorize))
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out, stagingStatusLine(cfg.StagingRoot(), colorize))

			missing := deps.MissingRequired(statuses)
			failed := preflight.Failed(results)
			if n := len(missing) + len(failed); n > 0 {
				return fmt.Errorf("%d required check(s) failed", n)
			}
			return nil
		},
	}
}

// stagingStatusLine reports run directories left behind by interrupted
// builds. They are swept by the next build once older than the staging age.
func stagingStatusLine(root string, colorize bool) string {
	dirs, err := staging.ListDirectories(root)
	if err != nil {
		return renderStatusLine("Staging", statusWarn, fmt.Sprintf("%s (error: %v)", root, err), colorize)
	}
	if len(dirs) == 0 {
		return renderStatusLine("Staging", statusOK, "no leftover run directories", colorize)
	}
	var size int64
	files := 0
	for _, dir := range dirs {
		size += dir.Size
		files += dir.Files
	}
	detail := fmt.Sprintf("%d leftover run director%s, %d clip(s), %s", len(dirs), plural(len(dirs), "y", "ies"), files, humanize.IBytes(uint64(size)))
	return renderStatusLine("Staging", statusWarn, detail, colorize)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
