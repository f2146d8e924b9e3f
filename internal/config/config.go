package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"hwocr/internal/logger"
)

// Engine names accepted for OCR_ENGINE.
const (
	EngineTesseract = "tesseract"
	EngineVision    = "vision"
)

type Config struct {
	// OCR Configuration
	OCREngine          string        // "tesseract" (local) or "vision" (Google Cloud Vision)
	RecognitionTimeout time.Duration // per recognition call, including the retry pass
	TesseractPageSegMode int         // page segmentation mode passed to Tesseract

	// Classification Configuration
	MinMathMarkers int // marker occurrences required before text counts as mathematical

	// Cache Configuration
	CacheEnabled    bool
	CacheMaxEntries int
	CacheTTL        time.Duration
	RedisAddr       string // when set, cache entries live in redis instead of process memory

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OCREngine:            getEnv("OCR_ENGINE", EngineTesseract),
		RecognitionTimeout:   time.Duration(getEnvInt("OCR_TIMEOUT_SECONDS", 30)) * time.Second,
		TesseractPageSegMode: getEnvInt("OCR_TESSERACT_PSM", 6),
		MinMathMarkers:       getEnvInt("CLASSIFY_MIN_MARKERS", 2),
		CacheEnabled:         getEnvBool("CACHE_ENABLED", true),
		CacheMaxEntries:      getEnvInt("CACHE_MAX_ENTRIES", 256),
		CacheTTL:             time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:            getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCREngine {
	case EngineTesseract, EngineVision:
	default:
		return fmt.Errorf("OCR_ENGINE must be %q or %q, got %q", EngineTesseract, EngineVision, c.OCREngine)
	}
	if c.RecognitionTimeout <= 0 {
		return fmt.Errorf("OCR_TIMEOUT_SECONDS must be positive")
	}
	if c.MinMathMarkers < 1 {
		return fmt.Errorf("CLASSIFY_MIN_MARKERS must be at least 1")
	}
	if c.CacheEnabled && c.RedisAddr == "" && c.CacheMaxEntries < 1 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be at least 1 when the in-memory cache is enabled")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}
