package main

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voicecorpus/internal/audio"
	"voicecorpus/internal/config"
	"voicecorpus/internal/media/ffprobe"
	"voicecorpus/internal/scanner"
)

const probeTimeout = 15 * time.Second

type recordingDetails struct {
	seconds  float64
	rate     int
	channels int
	codec    string
	bitRate  int64
	streams  int
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var noProbe bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the recordings a build would process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			recordings, err := scanner.Scan(cfg.Paths.InputDir, scanner.Options{
				Extensions: cfg.Scan.Extensions,
				Recursive:  cfg.Scan.Recursive,
			})
			if err != nil {
				return err
			}

			probe := ""
			if !noProbe {
				if resolved, err := exec.LookPath(cfg.Audio.FFprobeBinary); err == nil {
					probe = resolved
				}
			}

			details := make([]recordingDetails, len(recordings))
			var totalSeconds float64
			for i, rec := range recordings {
				details[i] = inspectRecording(cmd.Context(), probe, rec)
				totalSeconds += details[i].seconds
			}

			if asJSON {
				return writeJSON(cmd, scanJSON(recordings, details))
			}

			out := cmd.OutOrStdout()
			if len(recordings) == 0 {
				fmt.Fprintf(out, "No recordings found in %s (extensions: %s)\n", cfg.Paths.InputDir, strings.Join(cfg.Scan.Extensions, " "))
				return nil
			}
			rows := make([][]string, 0, len(recordings))
			for i, rec := range recordings {
				d := details[i]
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					rec.RelPath,
					humanize.IBytes(uint64(rec.Size)),
					optional(d.seconds > 0, formatSeconds(d.seconds)),
					optional(d.rate > 0, strconv.Itoa(d.rate)),
					optional(d.channels > 0, strconv.Itoa(d.channels)),
					optional(d.codec != "", d.codec),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"#", "Recording", "Size", "Duration", "Rate", "Ch", "Codec"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
				"", fmt.Sprintf("%d recordings", len(recordings)), humanize.IBytes(uint64(scanner.TotalSize(recordings))), formatSeconds(totalSeconds),
			))
			if probe == "" && !noProbe {
				fmt.Fprintf(out, "%s not found; durations shown for WAV files only\n", cfg.Audio.FFprobeBinary)
			}
			printScanNotes(cmd, cfg, details)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noProbe, "no-probe", false, "Skip ffprobe inspection")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func inspectRecording(ctx context.Context, probe string, rec scanner.Recording) recordingDetails {
	if probe != "" {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if result, err := ffprobe.Inspect(probeCtx, probe, rec.Path); err == nil {
			d := recordingDetails{bitRate: result.BitRate(), streams: result.AudioStreamCount()}
			if secs := result.DurationSeconds(); !math.IsNaN(secs) {
				d.seconds = secs
			}
			if stream, ok := result.PrimaryAudio(); ok {
				d.rate = stream.SampleRateHz()
				d.channels = stream.Channels
				d.codec = stream.CodecName
			}
			return d
		}
	}
	if rec.Ext == ".wav" {
		if info, err := audio.ReadInfo(rec.Path); err == nil {
			return recordingDetails{
				seconds:  info.Seconds(),
				rate:     info.SampleRate,
				channels: info.Channels,
				codec:    "pcm",
				bitRate:  int64(info.SampleRate * info.Channels * info.BitDepth),
				streams:  1,
			}
		}
	}
	return recordingDetails{}
}

func printScanNotes(cmd *cobra.Command, cfg *config.Config, details []recordingDetails) {
	resampled, multi := 0, 0
	for _, d := range details {
		if d.rate > 0 && d.rate != cfg.Audio.SampleRate {
			resampled++
		}
		if d.streams > 1 {
			multi++
		}
	}
	if resampled > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d recordings will be resampled to %d Hz\n", resampled, cfg.Audio.SampleRate)
	}
	if multi > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d recordings carry more than one audio stream; only the first is decoded\n", multi)
	}
}

type scanEntry struct {
	Path     string  `json:"path"`
	Size     int64   `json:"size_bytes"`
	Seconds  float64 `json:"duration_seconds,omitempty"`
	Rate     int     `json:"sample_rate,omitempty"`
	Channels int     `json:"channels,omitempty"`
	Codec    string  `json:"codec,omitempty"`
	BitRate  int64   `json:"bit_rate,omitempty"`
	Streams  int     `json:"audio_streams,omitempty"`
}

func scanJSON(recordings []scanner.Recording, details []recordingDetails) []scanEntry {
	out := make([]scanEntry, len(recordings))
	for i, rec := range recordings {
		d := details[i]
		out[i] = scanEntry{
			Path:     rec.RelPath,
			Size:     rec.Size,
			Seconds:  d.seconds,
			Rate:     d.rate,
			Channels: d.channels,
			Codec:    d.codec,
			BitRate:  d.bitRate,
			Streams:  d.streams,
		}
	}
	return out
}

func optional(ok bool, value string) string {
	if !ok {
		return "-"
	}
	return value
}
