package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prontoville/crust/internal/memory"
)

func TestHTTPClientGenerate(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/generate" {
			t.Errorf("path = %q, want /v1/generate", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer key", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(textResponse{Text: " Sure, one Chicken Tikka coming up. "})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "test-key")
	window := []memory.ContextEntry{{Role: memory.RoleUser, Content: "hi"}}
	text, err := c.Generate(context.Background(), window, "I want a pizza")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "Sure, one Chicken Tikka coming up." {
		t.Fatalf("Generate() = %q, want trimmed reply", text)
	}
	if got.System == "" {
		t.Fatalf("request system instruction is empty")
	}
	if len(got.Context) != 1 || got.Prompt != "I want a pizza" {
		t.Fatalf("request = %+v, want context and prompt forwarded", got)
	}
}

func TestHTTPClientSummarizeBuildsMergePrompt(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(textResponse{Text: "merged"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	turns := []memory.Turn{
		{Role: memory.RoleUser, Content: "my name is Ali"},
		{Role: memory.RoleAssistant, Content: "Hi Ali!"},
	}
	text, err := c.Summarize(context.Background(), "No previous summary.", turns)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if text != "merged" {
		t.Fatalf("Summarize() = %q, want %q", text, "merged")
	}
	if !strings.Contains(got.Prompt, "No previous summary.") {
		t.Fatalf("prompt missing prior summary: %q", got.Prompt)
	}
	if !strings.Contains(got.Prompt, "user: my name is Ali") {
		t.Fatalf("prompt missing turns: %q", got.Prompt)
	}
}

func TestHTTPClientStatusClassification(t *testing.T) {
	status := http.StatusServiceUnavailable
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", status)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	_, err := c.Generate(context.Background(), nil, "hello")
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want BackendError", err)
	}
	if !be.Retryable() {
		t.Fatalf("503 should be retryable")
	}

	status = http.StatusBadRequest
	_, err = c.Generate(context.Background(), nil, "hello")
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want BackendError", err)
	}
	if be.Retryable() {
		t.Fatalf("400 should not be retryable")
	}
}

func TestNewClientModes(t *testing.T) {
	if _, err := NewClient(Config{Mode: "http"}); err == nil {
		t.Fatalf("http mode without url should fail")
	}
	c, err := NewClient(Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("NewClient(auto) error = %v", err)
	}
	if _, ok := c.(*MockClient); !ok {
		t.Fatalf("auto without url should fall back to mock, got %T", c)
	}
	if _, err := NewClient(Config{Mode: "banana"}); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}
