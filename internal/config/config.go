package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// STT Backend
	STTBackend string // "deepgram", "openai", "gemini", "vosk" or "none"

	// Deepgram settings
	DeepgramAPIKey    string
	DeepgramModel     string
	DeepgramPunctuate bool

	// OpenAI settings
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Gemini settings
	GenAIAPIKey string
	GenAIModel  string

	// Vosk settings
	VoskModelPath string

	// Transcoding
	FFmpegPath  string
	FFprobePath string
	TempDir     string

	// Transcription
	MaxChunkSeconds   int
	MaxParallelSTT    int
	TranscribeTimeout time.Duration
	VADEnabled        bool

	// Storage
	StoreBackend string // "file" or "sqlite"
	StoreDir     string
	SQLitePath   string

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file found, using environment variables only")
	}

	cfg := &Config{
		STTBackend: getEnvOrDefault("STT_BACKEND", "none"),

		// Deepgram
		DeepgramAPIKey:    os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramModel:     getEnvOrDefault("DEEPGRAM_MODEL", "nova-2"),
		DeepgramPunctuate: getBoolEnvOrDefault("DEEPGRAM_PUNCTUATE", true),

		// OpenAI
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "whisper-1"),

		// Gemini
		GenAIAPIKey: os.Getenv("GENAI_API_KEY"),
		GenAIModel:  getEnvOrDefault("GENAI_MODEL", "gemini-2.5-flash"),

		// Vosk
		VoskModelPath: getEnvOrDefault("VOSK_MODEL_PATH", "./models/vosk/en"),

		// Transcoding
		FFmpegPath:  getEnvOrDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getEnvOrDefault("FFPROBE_PATH", "ffprobe"),
		TempDir:     os.Getenv("TEMP_DIR"),

		// Transcription
		MaxChunkSeconds:   getIntEnvOrDefault("MAX_CHUNK_SECONDS", 600),
		MaxParallelSTT:    getIntEnvOrDefault("MAX_PARALLEL_STT", 4),
		TranscribeTimeout: getDurationEnvOrDefault("TRANSCRIBE_TIMEOUT", 5*time.Minute),
		VADEnabled:        getBoolEnvOrDefault("VAD_ENABLED", false),

		// Storage
		StoreBackend: getEnvOrDefault("STORE_BACKEND", "file"),
		StoreDir:     getEnvOrDefault("STORE_DIR", "./data"),
		SQLitePath:   getEnvOrDefault("SQLITE_PATH", "./data/objects.sqlite"),

		// Logging
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	return cfg, cfg.validate()
}

// validate reports every problem at once.
func (c *Config) validate() error {
	var errs []error

	switch c.STTBackend {
	case "none":
	case "vosk":
		if info, err := os.Stat(c.VoskModelPath); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("VOSK_MODEL_PATH %q must be an existing model directory when using vosk backend", c.VoskModelPath))
		}
	case "deepgram":
		if c.DeepgramAPIKey == "" {
			errs = append(errs, fmt.Errorf("DEEPGRAM_API_KEY is required when using deepgram backend"))
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, fmt.Errorf("OPENAI_API_KEY is required when using openai backend"))
		}
	case "gemini":
		if c.GenAIAPIKey == "" {
			errs = append(errs, fmt.Errorf("GENAI_API_KEY is required when using gemini backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("STT_BACKEND must be one of 'deepgram', 'openai', 'gemini', 'vosk' or 'none'"))
	}

	if c.StoreBackend != "file" && c.StoreBackend != "sqlite" {
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be 'file' or 'sqlite'"))
	}

	if c.MaxChunkSeconds <= 0 {
		errs = append(errs, fmt.Errorf("MAX_CHUNK_SECONDS must be positive"))
	}
	if c.MaxParallelSTT <= 0 {
		errs = append(errs, fmt.Errorf("MAX_PARALLEL_STT must be positive"))
	}
	if c.TranscribeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("TRANSCRIBE_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
