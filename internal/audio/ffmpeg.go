package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"voicecorpus/internal/services"
)

// FFmpegDecoder pipes recordings through ffmpeg as mono s16le PCM.
type FFmpegDecoder struct {
	Binary     string
	SampleRate int
}

// Decode implements Decoder.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string) (Waveform, error) {
	binary := strings.TrimSpace(d.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return Waveform{}, services.Wrap(services.ErrExternalTool, "decode", "ffmpeg", "binary not found", err)
	}
	if d.SampleRate <= 0 {
		return Waveform{}, services.Wrap(services.ErrConfiguration, "decode", "ffmpeg", "sample rate must be positive", nil)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-f", "s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.SampleRate),
		"-",
	}
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Waveform{}, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Waveform{}, services.Wrap(services.ErrValidation, "decode", "ffmpeg",
				fmt.Sprintf("exit %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String())), err)
		}
		return Waveform{}, services.Wrap(services.ErrExternalTool, "decode", "ffmpeg", "run", err)
	}

	return Waveform{Samples: pcm16ToFloat(stdout.Bytes()), SampleRate: d.SampleRate}, nil
}
