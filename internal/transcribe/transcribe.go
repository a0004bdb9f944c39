package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"voicecorpus/internal/config"
	"voicecorpus/internal/logging"
	"voicecorpus/internal/services"
	"voicecorpus/internal/services/command"
	"voicecorpus/internal/services/openai"
	"voicecorpus/internal/services/whisperserver"
	"voicecorpus/internal/services/whisperx"
)

// Backend names accepted in [transcription] backend.
const (
	BackendWhisperServer = "whisper_server"
	BackendOpenAI        = "openai"
	BackendCommand       = "command"
	BackendWhisperX      = "whisperx"
)

// Transcriber turns one audio clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
}

// Normalize applies Unicode NFC, replaces line breaks with spaces, and trims
// surrounding whitespace.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(text)
	return strings.TrimSpace(text)
}

// Client applies the per-call deadline, normalization and error
// classification around a backend.
type Client struct {
	backend Transcriber
	name    string
	timeout time.Duration
	logger  *slog.Logger
}

// Wrap builds a Client around an arbitrary backend. A zero timeout disables
// the per-call deadline.
func Wrap(name string, backend Transcriber, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		backend: backend,
		name:    name,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "transcribe"),
	}
}

// Name returns the backend name.
func (c *Client) Name() string { return c.name }

// Transcribe runs one attempt against the backend and returns normalized text.
func (c *Client) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	text, err := c.backend.Transcribe(callCtx, audioPath, language)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return "", ctx.Err()
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
			return "", services.Wrap(services.ErrTimeout, "transcribe", c.name, fmt.Sprintf("no result after %s", c.timeout), err)
		default:
			return "", err
		}
	}
	normalized := Normalize(text)
	c.logger.Debug("clip transcribed",
		logging.String("backend", c.name),
		logging.String("clip", audioPath),
		logging.Duration("elapsed", time.Since(started)),
		logging.Int("chars", len([]rune(normalized))),
	)
	return normalized, nil
}

// New builds the backend selected by cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	return Wrap(cfg.Transcription.Backend, backend, cfg.TranscriptionTimeout(), logger), nil
}

func newBackend(cfg *config.Config) (Transcriber, error) {
	t := cfg.Transcription
	switch t.Backend {
	case BackendWhisperServer:
		return whisperserver.NewClient(whisperserver.Config{
			URL:            t.WhisperServer.URL,
			Model:          t.WhisperServer.Model,
			TimeoutSeconds: t.TimeoutSeconds,
		}), nil
	case BackendOpenAI:
		var opts []openai.Option
		if t.OpenAI.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(t.OpenAI.BaseURL))
		}
		if t.TimeoutSeconds > 0 {
			opts = append(opts, openai.WithTimeout(cfg.TranscriptionTimeout()))
		}
		return openai.New(t.OpenAI.APIKey, t.OpenAI.Model, opts...)
	case BackendCommand:
		return command.New(t.Command.Command)
	case BackendWhisperX:
		return whisperx.NewService(whisperx.Config{
			Model:       t.WhisperX.Model,
			CUDAEnabled: t.WhisperX.CUDAEnabled,
			VADMethod:   t.WhisperX.VADMethod,
			HFToken:     t.WhisperX.HFToken,
		}), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "new", fmt.Sprintf("unknown backend %q", t.Backend), nil)
	}
}
