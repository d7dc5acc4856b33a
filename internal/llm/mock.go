package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/prontoville/crust/internal/memory"
)

// MockClient provides deterministic local replies when no backend is
// configured.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Generate(ctx context.Context, window []memory.ContextEntry, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	base := strings.TrimSpace(prompt)
	if base == "" {
		base = "How can I help you order today?"
	}
	if len(window) == 0 {
		return fmt.Sprintf("I heard you: %s", base), nil
	}
	last := strings.TrimSpace(window[len(window)-1].Content)
	if last == "" {
		return fmt.Sprintf("I heard you: %s", base), nil
	}
	return fmt.Sprintf("I heard you: %s\nI also remember: %s", base, last), nil
}

func (c *MockClient) Summarize(ctx context.Context, priorSummary string, turns []memory.Turn) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return fmt.Sprintf("[%d earlier turns folded into summary; prior: %s]", len(turns), strings.TrimSpace(priorSummary)), nil
}
