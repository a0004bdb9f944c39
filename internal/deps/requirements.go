package deps

import (
	"strings"

	"github.com/mattn/go-shellwords"

	"voicecorpus/internal/config"
)

// whisperxRunner is the launcher used by the whisperx transcription backend.
const whisperxRunner = "uvx"

// Requirements lists the binaries the configured pipeline will execute.
// FFmpeg is only required when the decoder is forced to ffmpeg; in auto mode
// it widens format support and is reported as optional.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Audio.FFmpegBinary,
			Description: "Decodes recordings the native decoder cannot read",
			Optional:    cfg.Audio.Decoder != config.DecoderFFmpeg,
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Audio.FFprobeBinary,
			Description: "Reports recording details in scan output",
			Optional:    true,
		},
	}
	switch cfg.Transcription.Backend {
	case config.BackendWhisperX:
		reqs = append(reqs, Requirement{
			Name:        "WhisperX",
			Command:     whisperxRunner,
			Description: "Runs whisperx through uv for transcription",
		})
	case config.BackendCommand:
		reqs = append(reqs, Requirement{
			Name:        "Transcription command",
			Command:     commandBinary(cfg.Transcription.Command.Command),
			Description: "External transcription command",
		})
	}
	return reqs
}

func commandBinary(commandLine string) string {
	args, err := shellwords.Parse(strings.TrimSpace(commandLine))
	if err != nil || len(args) == 0 {
		return ""
	}
	return args[0]
}
