package config

const (
	defaultLogDir                = "~/.local/share/redub/logs"
	defaultStateDir              = "~/.local/share/redub"
	defaultEnvFile               = ".env"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultPython                = "python3"
	defaultSeparationModel       = "htdemucs"
	defaultTranscriptionEngine   = EngineWhisper
	defaultWhisperModel          = "base"
	defaultTranslationProvider   = ProviderGemini
	defaultGeminiBaseURL         = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel           = "gemini-2.0-flash-exp"
	defaultOpenAIChatURL         = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIChatModel       = "gpt-4o-mini"
	defaultTranslationTimeout    = 60
	defaultTranslationAttempts   = 3
	defaultSynthesisEngine       = EngineEdgeTTS
	defaultEdgeTTSBinary         = "edge-tts"
	defaultVoice                 = "vi-VN-HoaiMyNeural"
	defaultPitch                 = "+0Hz"
	defaultRate                  = "+0%"
	defaultSynthesisConcurrency  = 8
	defaultOpenAISpeechModel     = "tts-1"
	defaultOpenAISpeechVoice     = "nova"
	defaultMixSampleRate         = 44100
	defaultMixChannels           = 2
	defaultMixOutputFormat       = "mp3"
	defaultVideoCodec            = "libx264"
	defaultAudioCodec            = "aac"
	defaultAudioBitrate          = "192k"
	defaultTargetLanguage        = "Vietnamese"
	defaultWorkDirName           = "dubbing_temp"
	defaultSessionDatabaseName   = "sessions.db"
	defaultTranscriptionLanguage = ""
	defaultNtfyRequestTimeout    = 10
)

// Engine and provider identifiers accepted in configuration files.
const (
	EngineWhisper  = "whisper"
	EngineOpenAI   = "openai"
	EngineEdgeTTS  = "edge-tts"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
			EnvFile:  defaultEnvFile,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Separation: Separation{
			Python: defaultPython,
			Model:  defaultSeparationModel,
		},
		Transcription: Transcription{
			Engine:   defaultTranscriptionEngine,
			Python:   defaultPython,
			Model:    defaultWhisperModel,
			Language: defaultTranscriptionLanguage,
		},
		Translation: Translation{
			Provider:       defaultTranslationProvider,
			TargetLanguage: defaultTargetLanguage,
			TimeoutSeconds: defaultTranslationTimeout,
			MaxAttempts:    defaultTranslationAttempts,
		},
		Synthesis: Synthesis{
			Engine:        defaultSynthesisEngine,
			EdgeTTSBinary: defaultEdgeTTSBinary,
			Voice:         defaultVoice,
			Pitch:         defaultPitch,
			Rate:          defaultRate,
			Concurrency:   defaultSynthesisConcurrency,
			OpenAIModel:   defaultOpenAISpeechModel,
			OpenAIVoice:   defaultOpenAISpeechVoice,
		},
		Mixing: Mixing{
			SampleRate:   defaultMixSampleRate,
			Channels:     defaultMixChannels,
			OutputFormat: defaultMixOutputFormat,
		},
		Muxing: Muxing{
			VideoCodec:   defaultVideoCodec,
			AudioCodec:   defaultAudioCodec,
			AudioBitrate: defaultAudioBitrate,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
