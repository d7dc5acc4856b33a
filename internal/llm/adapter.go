package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prontoville/crust/internal/memory"
)

// Generator produces the assistant reply for a prompt given the assembled
// context window.
type Generator interface {
	Generate(ctx context.Context, window []memory.ContextEntry, prompt string) (string, error)
}

// Client bridges the chat runtime with the language backend. It covers both
// call sites: turn generation and memory compaction.
type Client interface {
	Generator
	memory.Summarizer
}

// Config controls adapter construction.
type Config struct {
	Mode    string
	HTTPURL string
	APIKey  string
}

func NewClient(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPClient(cfg.HTTPURL, cfg.APIKey), nil
		}
		return NewMockClient(), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("LLM HTTP url is required for http mode")
		}
		return NewHTTPClient(cfg.HTTPURL, cfg.APIKey), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported llm mode %q", cfg.Mode)
	}
}
