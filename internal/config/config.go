package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Engine names selectable via RECOGNITION_ENGINE.
const (
	EngineSpeechKit = "speechkit"
	EngineWhisper   = "whisper"
)

type Config struct {
	Port string

	// recognition
	Engine             string
	YandexAPIKey       string
	RecognitionTimeout time.Duration

	// local whisper engine
	WhisperBin           string
	WhisperModelURL      string
	WhisperModelChecksum string
	ModelsDir            string

	// optional transcript summary
	OpenAIKey string

	// pipeline
	TempDir            string
	OutputDir          string
	MaxConcurrentTasks int
	MaxFileSizeBytes   int64
	JobTTL             time.Duration
	DownloadRetries    int
	DownloadBackoff    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Engine:               getEnv("RECOGNITION_ENGINE", EngineSpeechKit),
		YandexAPIKey:         os.Getenv("YANDEX_API_KEY"),
		RecognitionTimeout:   time.Duration(getEnvInt("RECOGNITION_TIMEOUT_MINUTES", 120)) * time.Minute,
		WhisperBin:           getEnv("WHISPER_BIN", "whisper-cli"),
		WhisperModelURL:      getEnv("WHISPER_MODEL_URL", "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin"),
		WhisperModelChecksum: os.Getenv("WHISPER_MODEL_CHECKSUM"),
		ModelsDir:            getEnv("MODELS_DIR", "models"),
		OpenAIKey:            os.Getenv("OPENAI_API_KEY"),
		TempDir:              getEnv("TEMP_DIR", "temp_files"),
		OutputDir:            getEnv("OUTPUT_DIR", "completed_transcripts"),
		MaxConcurrentTasks:   getEnvInt("MAX_CONCURRENT_TASKS", 2),
		MaxFileSizeBytes:     getEnvInt64("MAX_FILE_SIZE_BYTES", 1<<30),
		JobTTL:               time.Duration(getEnvInt("JOB_TTL_HOURS", 24)) * time.Hour,
		DownloadRetries:      getEnvInt("DOWNLOAD_RETRIES", 5),
		DownloadBackoff:      time.Duration(getEnvInt("DOWNLOAD_BACKOFF_SECONDS", 5)) * time.Second,
	}

	switch cfg.Engine {
	case EngineSpeechKit:
		if cfg.YandexAPIKey == "" {
			return nil, fmt.Errorf("YANDEX_API_KEY is required when RECOGNITION_ENGINE=%s", EngineSpeechKit)
		}
	case EngineWhisper:
	default:
		return nil, fmt.Errorf("unsupported RECOGNITION_ENGINE: %s (supported: %s, %s)", cfg.Engine, EngineSpeechKit, EngineWhisper)
	}

	if cfg.MaxConcurrentTasks < 1 {
		cfg.MaxConcurrentTasks = 1
	}

	for _, dir := range []string{cfg.TempDir, cfg.OutputDir, cfg.ModelsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
