package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	InputDir   string `toml:"input_dir"`
	DatasetDir string `toml:"dataset_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Voice identifies the speaker the corpus is built for.
type Voice struct {
	Name     string `toml:"name"`
	Language string `toml:"language"`
}

// Scan controls source recording discovery.
type Scan struct {
	Extensions []string `toml:"extensions"`
	Recursive  bool     `toml:"recursive"`
}

// Audio contains decoding and output format settings.
type Audio struct {
	SampleRate    int    `toml:"sample_rate"`
	Decoder       string `toml:"decoder"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Segment contains silence detection and clip duration bounds.
type Segment struct {
	TopDB       float64 `toml:"top_db"`
	FrameLength int     `toml:"frame_length"`
	HopLength   int     `toml:"hop_length"`
	MinSeconds  float64 `toml:"min_seconds"`
	MaxSeconds  float64 `toml:"max_seconds"`
}

// WhisperServer configures a whisper.cpp compatible HTTP server.
type WhisperServer struct {
	URL   string `toml:"url"`
	Model string `toml:"model"`
}

// OpenAI configures the OpenAI (or compatible) transcription endpoint.
type OpenAI struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// Command configures an external transcription command.
type Command struct {
	Command string `toml:"command"`
}

// WhisperX configures transcription through uvx whisperx. VADMethod is
// "silero" or "pyannote"; pyannote needs HFToken.
type WhisperX struct {
	Model       string `toml:"model"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method"`
	HFToken     string `toml:"hf_token"`
}

// Transcription selects and configures the speech-to-text backend.
type Transcription struct {
	Backend        string        `toml:"backend"`
	Workers        int           `toml:"workers"`
	TimeoutSeconds int           `toml:"timeout_seconds"`
	WhisperServer  WhisperServer `toml:"whisper_server"`
	OpenAI         OpenAI        `toml:"openai"`
	Command        Command       `toml:"command"`
	WhisperX       WhisperX      `toml:"whisperx"`
}

// Filter configures hallucination rejection rules.
type Filter struct {
	Prefixes           []string `toml:"prefixes"`
	MinChars           int      `toml:"min_chars"`
	IgnoreCase         bool     `toml:"ignore_case"`
	Phrases            []string `toml:"phrases"`
	PhraseSimilarity   float64  `toml:"phrase_similarity"`
	RejectMusicSymbols bool     `toml:"reject_music_symbols"`
}

// Staging controls cleanup of leftover clip staging directories.
type Staging struct {
	MaxAgeHours int `toml:"max_age_hours"`
}

// Metrics controls the optional Prometheus endpoint.
type Metrics struct {
	Listen string `toml:"listen"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for voicecorpus.
//
// Configuration sections by subsystem:
//   - Paths: input recordings, dataset output, journal state, logs
//   - Voice: speaker name (clip filename prefix) and language code
//   - Scan: recognised extensions and directory traversal
//   - Audio: target sample rate and decoder selection
//   - Segment: silence threshold, frame geometry, clip duration bounds
//   - Transcription: backend selection, worker pool size, per-backend settings
//   - Filter: hallucination rejection rules
//   - Staging: stale staging directory cleanup
//   - Metrics: Prometheus listen address
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Voice         Voice         `toml:"voice"`
	Scan          Scan          `toml:"scan"`
	Audio         Audio         `toml:"audio"`
	Segment       Segment       `toml:"segment"`
	Transcription Transcription `toml:"transcription"`
	Filter        Filter        `toml:"filter"`
	Staging       Staging       `toml:"staging"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("voicecorpus.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The input and
// dataset directories are left to the commands that use them so a typo in
// input_dir is reported instead of silently creating an empty directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the SQLite run journal location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// WavsDir returns the directory holding accepted clips.
func (c *Config) WavsDir() string {
	return filepath.Join(c.Paths.DatasetDir, "wavs")
}

// ManifestPath returns the metadata.csv location.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Paths.DatasetDir, "metadata.csv")
}

// StagingRoot returns the directory under which per-run staging dirs live.
func (c *Config) StagingRoot() string {
	return filepath.Join(c.Paths.DatasetDir, ".staging")
}

// TranscriptionTimeout returns the per-clip transcription deadline.
func (c *Config) TranscriptionTimeout() time.Duration {
	return time.Duration(c.Transcription.TimeoutSeconds) * time.Second
}

// StagingMaxAge returns the age after which leftover staging dirs are removed.
func (c *Config) StagingMaxAge() time.Duration {
	return time.Duration(c.Staging.MaxAgeHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
