package whisperserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	langpkg "voicecorpus/internal/language"
	"voicecorpus/internal/services"
)

const (
	// DefaultURL is the whisper.cpp server default listen address.
	DefaultURL = "http://127.0.0.1:8080"

	inferencePath      = "/inference"
	responseFormatJSON = "json"
	defaultHTTPTimeout = 120 * time.Second
	maxErrorBody       = 512
)

// Config captures the settings required to reach a whisper.cpp server.
type Config struct {
	URL            string
	Model          string
	TimeoutSeconds int
}

// Client posts clips to a whisper.cpp compatible /inference endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			URL:            strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.URL == "" {
		client.cfg.URL = DefaultURL
	}
	return client
}

// Endpoint returns the inference URL.
func (c *Client) Endpoint() string {
	return c.cfg.URL + inferencePath
}

type inferenceResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("whisper server: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Transcribe uploads one clip and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	body, contentType, err := c.buildForm(audioPath, language)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "whisper_server", "build request", filepath.Base(audioPath), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), body)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "whisper_server", "build request", c.Endpoint(), err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", services.Wrap(services.ErrTimeout, "whisper_server", "inference", c.Endpoint(), err)
		}
		return "", services.Wrap(services.ErrExternalTool, "whisper_server", "inference", c.Endpoint(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "whisper_server", "read response", "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(data)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return "", services.Wrap(services.ErrExternalTool, "whisper_server", "inference", "", &httpStatusError{StatusCode: resp.StatusCode, Body: snippet})
	}

	var parsed inferenceResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "whisper_server", "decode response", "", err)
	}
	if parsed.Error != "" {
		return "", services.Wrap(services.ErrExternalTool, "whisper_server", "inference", parsed.Error, nil)
	}
	return parsed.Text, nil
}

func (c *Client) buildForm(audioPath, language string) (*bytes.Buffer, string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}
	fields := map[string]string{"response_format": responseFormatJSON}
	if lang := langpkg.ToISO2(language); lang != "" {
		fields["language"] = lang
	}
	if c.cfg.Model != "" {
		fields["model"] = c.cfg.Model
	}
	for _, key := range []string{"language", "model", "response_format"} {
		value, ok := fields[key]
		if !ok {
			continue
		}
		if err := form.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return &buf, form.FormDataContentType(), nil
}
