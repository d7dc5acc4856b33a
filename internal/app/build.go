package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/prontoville/crust/internal/cart"
	"github.com/prontoville/crust/internal/catalog"
	"github.com/prontoville/crust/internal/chat"
	"github.com/prontoville/crust/internal/config"
	"github.com/prontoville/crust/internal/httpapi"
	"github.com/prontoville/crust/internal/llm"
	"github.com/prontoville/crust/internal/memory"
	"github.com/prontoville/crust/internal/observability"
	"github.com/prontoville/crust/internal/orders"
	"github.com/prontoville/crust/internal/reliability"
	"github.com/prontoville/crust/internal/seed"
)

type BuildResult struct {
	Config  config.Config
	API     *httpapi.Server
	Chat    *chat.Service
	Metrics *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	memoryStore, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("memory store init failed: %w", err)
	}

	menuStore, err := buildMenuStore(ctx, cfg)
	if err != nil {
		_ = memoryStore.Close()
		return nil, err
	}

	orderStore, err := orders.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = menuStore.Close()
		_ = memoryStore.Close()
		return nil, fmt.Errorf("order store init failed: %w", err)
	}

	client, err := llm.NewClient(llm.Config{
		Mode:    cfg.LLMMode,
		HTTPURL: cfg.LLMHTTPURL,
		APIKey:  cfg.LLMAPIKey,
	})
	if err != nil {
		_ = orderStore.Close()
		_ = menuStore.Close()
		_ = memoryStore.Close()
		return nil, fmt.Errorf("llm client init failed: %w", err)
	}

	retry := reliability.NewPolicy(cfg.LLMMaxRetries, cfg.LLMBaseDelay, cfg.LLMRetryCap)

	mem := memory.NewManager(memoryStore, client, memory.Settings{
		BufferSize:       cfg.MemoryBufferSize,
		SummaryThreshold: cfg.MemorySummaryThreshold,
	}, retry)

	service := chat.NewService(mem, menuStore, cart.NewManager(), orderStore, client, retry, metrics)
	api := httpapi.New(cfg, service, metrics)

	cleanup := func() error {
		var errs []string
		if err := orderStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := menuStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := memoryStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:  cfg,
		API:     api,
		Chat:    service,
		Metrics: metrics,
		Cleanup: cleanup,
	}, nil
}

// buildMenuStore prefers the database when configured, falling back to the
// yaml seed file served from memory.
func buildMenuStore(ctx context.Context, cfg config.Config) (catalog.Store, error) {
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		store, err := catalog.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("menu store init failed: %w", err)
		}
		return store, nil
	}

	data, err := seed.LoadFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("menu seed load failed: %w", err)
	}
	return catalog.NewStaticStore(data), nil
}
