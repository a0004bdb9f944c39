// Package openai transcribes clips through the OpenAI audio transcription API
// or any server that implements the same endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	langpkg "voicecorpus/internal/language"
	"voicecorpus/internal/services"
)

// DefaultModel is the default transcription model.
const DefaultModel = string(oai.AudioModelWhisper1)

// Provider implements clip transcription using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

type config struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// New constructs a Provider. If model is empty, DefaultModel is used.
// Requests are issued once; failed clips are skipped by the caller.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "openai", "new", "api key must not be empty", nil)
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		base := cfg.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	switch {
	case cfg.httpClient != nil:
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	case cfg.timeout > 0:
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Transcribe uploads one clip and returns its text.
func (p *Provider) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "openai", "open clip", filepath.Base(audioPath), err)
	}
	defer file.Close()

	params := oai.AudioTranscriptionNewParams{
		File:  file,
		Model: oai.AudioModel(p.model),
	}
	if lang := langpkg.ToISO2(language); lang != "" {
		params.Language = oai.String(lang)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", classify(err)
	}
	return resp.Text, nil
}

func classify(err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		detail := fmt.Sprintf("http %d", apiErr.StatusCode)
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "openai", "transcribe", detail, err)
		case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500:
			return services.Wrap(services.ErrTransient, "openai", "transcribe", detail, err)
		default:
			return services.Wrap(services.ErrExternalTool, "openai", "transcribe", detail, err)
		}
	}
	return services.Wrap(services.ErrExternalTool, "openai", "transcribe", "", err)
}
