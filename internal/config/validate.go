package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateSegment(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateFilter(); err != nil {
		return err
	}
	if err := c.validateStaging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		return errors.New("paths.input_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DatasetDir) == "" {
		return errors.New("paths.dataset_dir must be set")
	}
	if c.Paths.InputDir == c.Paths.DatasetDir {
		return errors.New("paths.input_dir and paths.dataset_dir must differ")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate < minSupportedSampleRateHz || c.Audio.SampleRate > maxSupportedSampleRateHz {
		return fmt.Errorf("audio.sample_rate must be between %d and %d", minSupportedSampleRateHz, maxSupportedSampleRateHz)
	}
	switch c.Audio.Decoder {
	case DecoderAuto, DecoderNative, DecoderFFmpeg:
	default:
		return fmt.Errorf("audio.decoder: unsupported value %q (use auto, native, or ffmpeg)", c.Audio.Decoder)
	}
	return nil
}

func (c *Config) validateSegment() error {
	s := c.Segment
	if s.TopDB <= 0 || s.TopDB > maxSupportedTopDB {
		return fmt.Errorf("segment.top_db must be in (0, %.0f]", maxSupportedTopDB)
	}
	if err := ensurePositiveMap(map[string]int{
		"segment.frame_length": s.FrameLength,
		"segment.hop_length":   s.HopLength,
	}); err != nil {
		return err
	}
	if s.HopLength > s.FrameLength {
		return errors.New("segment.hop_length must not exceed segment.frame_length")
	}
	if s.MinSeconds < 0 {
		return errors.New("segment.min_seconds must be >= 0")
	}
	if s.MaxSeconds <= s.MinSeconds {
		return errors.New("segment.max_seconds must be greater than segment.min_seconds")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	if t.Workers > maxTranscriptionWorkers {
		return fmt.Errorf("transcription.workers must be <= %d", maxTranscriptionWorkers)
	}
	switch t.Backend {
	case BackendWhisperServer:
		parsed, err := url.Parse(t.WhisperServer.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("transcription.whisper_server.url must be an absolute URL, got %q", t.WhisperServer.URL)
		}
	case BackendOpenAI:
		if t.OpenAI.APIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("transcription.openai.api_key is required for the openai backend. Set OPENAI_API_KEY or edit %s (create with 'voicecorpus config init')", defaultPath)
		}
	case BackendCommand:
		if t.Command.Command == "" {
			return errors.New("transcription.command.command must be set when transcription.backend is command")
		}
	case BackendWhisperX:
		switch t.WhisperX.VADMethod {
		case VADMethodSilero:
		case VADMethodPyannote:
			if t.WhisperX.HFToken == "" {
				return errors.New("transcription.whisperx.hf_token is required when vad_method is pyannote. Set HF_TOKEN or edit the config file")
			}
		default:
			return fmt.Errorf("transcription.whisperx.vad_method: unsupported value %q (use silero or pyannote)", t.WhisperX.VADMethod)
		}
	default:
		return fmt.Errorf("transcription.backend: unsupported value %q (use whisper_server, openai, command, or whisperx)", t.Backend)
	}
	return nil
}

func (c *Config) validateFilter() error {
	if c.Filter.PhraseSimilarity < 0 || c.Filter.PhraseSimilarity > 1 {
		return fmt.Errorf("filter.phrase_similarity must be between 0 and 1, got %v", c.Filter.PhraseSimilarity)
	}
	for _, prefix := range c.Filter.Prefixes {
		if strings.Contains(prefix, "|") {
			return fmt.Errorf("filter.prefixes: %q contains the manifest delimiter", prefix)
		}
	}
	return nil
}

func (c *Config) validateStaging() error {
	if c.Staging.MaxAgeHours < 0 {
		return errors.New("staging.max_age_hours must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
