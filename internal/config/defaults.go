package config

const (
	defaultConfigPath          = "~/.config/voicecorpus/config.toml"
	defaultInputDir            = "raw_audio"
	defaultDatasetDir          = "dataset"
	defaultStateDir            = "~/.local/share/voicecorpus"
	defaultLogDir              = "~/.local/share/voicecorpus/logs"
	defaultVoiceName           = "my_custom_voice"
	defaultLanguage            = "en-us"
	defaultSampleRate          = 22050
	defaultDecoder             = DecoderAuto
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultTopDB               = 40.0
	defaultFrameLength         = 2048
	defaultHopLength           = 512
	defaultMinSeconds          = 1.0
	defaultMaxSeconds          = 10.0
	defaultBackend             = BackendWhisperServer
	defaultWorkers             = 1
	defaultTimeoutSeconds      = 120
	defaultWhisperServerURL    = "http://127.0.0.1:8080"
	defaultOpenAIModel         = "whisper-1"
	defaultWhisperXModel       = "large-v3"
	defaultWhisperXVADMethod   = VADMethodSilero
	defaultMinChars            = 2
	defaultStagingMaxAgeHours  = 24
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	maxTranscriptionWorkers    = 32
	maxSupportedSampleRateHz   = 192000
	minSupportedSampleRateHz   = 8000
	maxSupportedTopDB          = 120.0
)

// WhisperX voice activity detection methods.
const (
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"
)

// Decoder selections.
const (
	DecoderAuto   = "auto"
	DecoderNative = "native"
	DecoderFFmpeg = "ffmpeg"
)

// Transcription backend selections.
const (
	BackendWhisperServer = "whisper_server"
	BackendOpenAI        = "openai"
	BackendCommand       = "command"
	BackendWhisperX      = "whisperx"
)

// DefaultExtensions lists the recording extensions scanned by default.
func DefaultExtensions() []string {
	return []string{".mp3", ".wav", ".m4a", ".flac", ".ogg"}
}

// DefaultPrefixes lists the boilerplate transcript prefixes rejected by default.
func DefaultPrefixes() []string {
	return []string{"Subtitle", "Copyright", "Translated", "Captioning"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:   defaultInputDir,
			DatasetDir: defaultDatasetDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Voice: Voice{
			Name:     defaultVoiceName,
			Language: defaultLanguage,
		},
		Scan: Scan{
			Extensions: DefaultExtensions(),
		},
		Audio: Audio{
			SampleRate:    defaultSampleRate,
			Decoder:       defaultDecoder,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Segment: Segment{
			TopDB:       defaultTopDB,
			FrameLength: defaultFrameLength,
			HopLength:   defaultHopLength,
			MinSeconds:  defaultMinSeconds,
			MaxSeconds:  defaultMaxSeconds,
		},
		Transcription: Transcription{
			Backend:        defaultBackend,
			Workers:        defaultWorkers,
			TimeoutSeconds: defaultTimeoutSeconds,
			WhisperServer: WhisperServer{
				URL: defaultWhisperServerURL,
			},
			OpenAI: OpenAI{
				Model: defaultOpenAIModel,
			},
			WhisperX: WhisperX{
				Model:     defaultWhisperXModel,
				VADMethod: defaultWhisperXVADMethod,
			},
		},
		Filter: Filter{
			Prefixes: DefaultPrefixes(),
			MinChars: defaultMinChars,
		},
		Staging: Staging{
			MaxAgeHours: defaultStagingMaxAgeHours,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
