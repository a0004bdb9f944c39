package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"voicecorpus/internal/corpus"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the input and dataset directory layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			dirs := []string{
				cfg.Paths.InputDir,
				cfg.Paths.DatasetDir,
				filepath.Join(cfg.Paths.DatasetDir, corpus.WavsDirName),
			}
			for _, dir := range dirs {
				_, statErr := os.Stat(dir)
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", dir, err)
				}
				if os.IsNotExist(statErr) {
					fmt.Fprintf(out, "Created %s\n", dir)
				} else {
					fmt.Fprintf(out, "Exists  %s\n", dir)
				}
			}
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintf(out, "  1. Copy recordings of %q into %s\n", cfg.Voice.Name, cfg.Paths.InputDir)
			fmt.Fprintln(out, "  2. Run 'voicecorpus check' to confirm the transcription backend is reachable")
			fmt.Fprintln(out, "  3. Run 'voicecorpus build'")
			return nil
		},
	}
}
