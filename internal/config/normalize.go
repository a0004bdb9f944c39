package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVoice()
	c.normalizeScan()
	c.normalizeAudio()
	c.normalizeTranscription()
	c.normalizeFilter()
	c.normalizeLogging()
	c.Metrics.Listen = strings.TrimSpace(c.Metrics.Listen)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		c.Paths.InputDir = defaultInputDir
	}
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatasetDir) == "" {
		c.Paths.DatasetDir = defaultDatasetDir
	}
	if c.Paths.DatasetDir, err = expandPath(c.Paths.DatasetDir); err != nil {
		return fmt.Errorf("paths.dataset_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeVoice() {
	c.Voice.Name = strings.TrimSpace(c.Voice.Name)
	if c.Voice.Name == "" {
		c.Voice.Name = defaultVoiceName
	}
	c.Voice.Language = strings.ToLower(strings.TrimSpace(c.Voice.Language))
	if c.Voice.Language == "" {
		c.Voice.Language = defaultLanguage
	}
}

func (c *Config) normalizeScan() {
	if len(c.Scan.Extensions) == 0 {
		c.Scan.Extensions = DefaultExtensions()
		return
	}
	exts := make([]string, 0, len(c.Scan.Extensions))
	seen := make(map[string]struct{}, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = DefaultExtensions()
	}
	c.Scan.Extensions = exts
}

func (c *Config) normalizeAudio() {
	c.Audio.Decoder = strings.ToLower(strings.TrimSpace(c.Audio.Decoder))
	if c.Audio.Decoder == "" {
		c.Audio.Decoder = defaultDecoder
	}
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
	if c.Audio.FFprobeBinary == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeTranscription() {
	t := &c.Transcription
	t.Backend = strings.ToLower(strings.TrimSpace(t.Backend))
	if t.Backend == "" {
		t.Backend = defaultBackend
	}
	if t.Workers <= 0 {
		t.Workers = defaultWorkers
	}
	if t.TimeoutSeconds <= 0 {
		t.TimeoutSeconds = defaultTimeoutSeconds
	}

	t.WhisperServer.URL = strings.TrimRight(strings.TrimSpace(t.WhisperServer.URL), "/")
	if value, ok := os.LookupEnv("VOICECORPUS_WHISPER_URL"); ok && strings.TrimSpace(value) != "" && t.WhisperServer.URL == defaultWhisperServerURL {
		t.WhisperServer.URL = strings.TrimRight(strings.TrimSpace(value), "/")
	}
	if t.WhisperServer.URL == "" {
		t.WhisperServer.URL = defaultWhisperServerURL
	}
	t.WhisperServer.Model = strings.TrimSpace(t.WhisperServer.Model)

	t.OpenAI.APIKey = strings.TrimSpace(t.OpenAI.APIKey)
	if t.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			t.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	t.OpenAI.BaseURL = strings.TrimSpace(t.OpenAI.BaseURL)
	t.OpenAI.Model = strings.TrimSpace(t.OpenAI.Model)
	if t.OpenAI.Model == "" {
		t.OpenAI.Model = defaultOpenAIModel
	}

	t.Command.Command = strings.TrimSpace(t.Command.Command)

	t.WhisperX.Model = strings.TrimSpace(t.WhisperX.Model)
	if t.WhisperX.Model == "" {
		t.WhisperX.Model = defaultWhisperXModel
	}
	t.WhisperX.VADMethod = strings.ToLower(strings.TrimSpace(t.WhisperX.VADMethod))
	if t.WhisperX.VADMethod == "" {
		t.WhisperX.VADMethod = defaultWhisperXVADMethod
	}
	t.WhisperX.HFToken = strings.TrimSpace(t.WhisperX.HFToken)
	for _, key := range []string{"HUGGING_FACE_HUB_TOKEN", "HF_TOKEN"} {
		if t.WhisperX.HFToken != "" {
			break
		}
		t.WhisperX.HFToken = strings.TrimSpace(os.Getenv(key))
	}
}

func (c *Config) normalizeFilter() {
	if c.Filter.Prefixes == nil {
		c.Filter.Prefixes = DefaultPrefixes()
	}
	prefixes := make([]string, 0, len(c.Filter.Prefixes))
	for _, prefix := range c.Filter.Prefixes {
		if trimmed := strings.TrimSpace(prefix); trimmed != "" {
			prefixes = append(prefixes, trimmed)
		}
	}
	c.Filter.Prefixes = prefixes

	phrases := make([]string, 0, len(c.Filter.Phrases))
	for _, phrase := range c.Filter.Phrases {
		if trimmed := strings.TrimSpace(phrase); trimmed != "" {
			phrases = append(phrases, trimmed)
		}
	}
	c.Filter.Phrases = phrases

	if c.Filter.MinChars < 0 {
		c.Filter.MinChars = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
