package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prontoville/crust/internal/memory"
	"github.com/prontoville/crust/internal/reliability"
)

// BackendError is a failed call to the language backend. Retryability follows
// the HTTP status classification.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("llm backend status %d: %s", e.Status, e.Body)
}

func (e *BackendError) Retryable() bool {
	return reliability.IsRetryableHTTPStatus(e.Status)
}

// HTTPClient forwards requests to a generation-proxy HTTP endpoint.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type generateRequest struct {
	System  string                `json:"system"`
	Context []memory.ContextEntry `json:"context,omitempty"`
	Prompt  string                `json:"prompt"`
}

type textResponse struct {
	Text string `json:"text"`
}

func (c *HTTPClient) Generate(ctx context.Context, window []memory.ContextEntry, prompt string) (string, error) {
	return c.post(ctx, "/v1/generate", generateRequest{
		System:  SystemInstruction,
		Context: window,
		Prompt:  prompt,
	})
}

func (c *HTTPClient) Summarize(ctx context.Context, priorSummary string, turns []memory.Turn) (string, error) {
	return c.post(ctx, "/v1/generate", generateRequest{
		Prompt: buildSummaryPrompt(priorSummary, turns),
	})
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", &BackendError{Status: res.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed textResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return "", fmt.Errorf("empty response from llm backend")
	}
	return text, nil
}
