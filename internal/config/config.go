package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the ordering chat service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool

	DatabaseURL string

	// Memory tuning: the raw-turn window kept verbatim and the turn count
	// that triggers compaction. The threshold must stay above the buffer or
	// there is never anything old enough to summarize.
	MemoryBufferSize       int
	MemorySummaryThreshold int

	LLMMode       string
	LLMHTTPURL    string
	LLMAPIKey     string
	LLMMaxRetries int
	LLMBaseDelay  time.Duration
	LLMRetryCap   time.Duration

	SeedFile string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:               envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:       envOrDefault("APP_METRICS_NAMESPACE", "crust"),
		DatabaseURL:            stringsTrimSpace("DATABASE_URL"),
		LLMMode:                envOrDefault("LLM_MODE", "auto"),
		LLMHTTPURL:             stringsTrimSpace("LLM_HTTP_URL"),
		LLMAPIKey:              stringsTrimSpace("LLM_API_KEY"),
		SeedFile:               envOrDefault("APP_SEED_FILE", "seed/menu.yaml"),
		ShutdownTimeout:        15 * time.Second,
		MemoryBufferSize:       6,
		MemorySummaryThreshold: 10,
		LLMMaxRetries:          3,
		LLMBaseDelay:           time.Second,
		LLMRetryCap:            30 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryBufferSize, err = intFromEnv("MEMORY_BUFFER_SIZE", cfg.MemoryBufferSize)
	if err != nil {
		return Config{}, err
	}
	cfg.MemorySummaryThreshold, err = intFromEnv("MEMORY_SUMMARY_THRESHOLD", cfg.MemorySummaryThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMMaxRetries, err = intFromEnv("LLM_MAX_RETRIES", cfg.LLMMaxRetries)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMBaseDelay, err = durationFromEnv("LLM_BASE_DELAY", cfg.LLMBaseDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMRetryCap, err = durationFromEnv("LLM_RETRY_CAP", cfg.LLMRetryCap)
	if err != nil {
		return Config{}, err
	}

	if cfg.MemoryBufferSize <= 0 {
		return Config{}, fmt.Errorf("MEMORY_BUFFER_SIZE must be positive")
	}
	if cfg.MemorySummaryThreshold <= cfg.MemoryBufferSize {
		return Config{}, fmt.Errorf("MEMORY_SUMMARY_THRESHOLD must be greater than MEMORY_BUFFER_SIZE")
	}
	if cfg.LLMMaxRetries <= 0 {
		return Config{}, fmt.Errorf("LLM_MAX_RETRIES must be positive")
	}
	if cfg.LLMBaseDelay <= 0 {
		return Config{}, fmt.Errorf("LLM_BASE_DELAY must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return trimSpace(os.Getenv(key))
}

func trimSpace(v string) string {
	for len(v) > 0 && (v[0] == ' ' || v[0] == '\n' || v[0] == '\t' || v[0] == '\r') {
		v = v[1:]
	}
	for len(v) > 0 {
		c := v[len(v)-1]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			v = v[:len(v)-1]
			continue
		}
		break
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
