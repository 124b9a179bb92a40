package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joss/promptsmith/internal/domain"
)

func TestAnthropicGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("Missing or wrong x-api-key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("Missing anthropic-version header")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "rendered prompt" {
			t.Errorf("unexpected request messages: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{{Type: "text", Text: "a better prompt"}},
			Usage: anthropicUsage{InputTokens: 12, OutputTokens: 5},
		})
	}))
	defer server.Close()

	b := NewAnthropicWithClient("test-key", server.URL, "claude-sonnet-4-20250514", server.Client())

	got, err := b.Generate(context.Background(), "rendered prompt", domain.StepObjective)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "a better prompt" {
		t.Errorf("Generate() = %q, want %q", got, "a better prompt")
	}

	u := b.TokenUsage()
	if u.PromptTokens != 12 || u.CompletionTokens != 5 {
		t.Errorf("TokenUsage = %+v, want 12/5", u)
	}
	if u.CostUSD <= 0 {
		t.Errorf("CostUSD = %f, want > 0", u.CostUSD)
	}
}

func TestAnthropicAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer server.Close()

	b := NewAnthropicWithClient("bad-key", server.URL, "", server.Client())

	_, err := b.Generate(context.Background(), "prompt", "")
	if err == nil {
		t.Fatal("Generate() error = nil, want API error")
	}

	// A failed call accumulates nothing.
	if u := b.TokenUsage(); u.Total() != 0 {
		t.Errorf("TokenUsage after failure = %+v, want zero", u)
	}
}

func TestAnthropicMissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	b := NewAnthropicWithClient("", "http://unused", "", &http.Client{})

	_, err := b.Generate(context.Background(), "prompt", "")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Generate() error = %v, want ErrNoAPIKey", err)
	}
}

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or wrong Authorization header")
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}

		resp := openaiResponse{Usage: openaiUsage{PromptTokens: 20, CompletionTokens: 8}}
		resp.Choices = append(resp.Choices, struct {
			Message openaiMessage `json:"message"`
		}{Message: openaiMessage{Role: "assistant", Content: "refined text"}})
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	b := NewOpenAIWithClient("test-key", server.URL, "gpt-4o", server.Client())

	got, err := b.Generate(context.Background(), "rendered prompt", domain.StepAudience)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "refined text" {
		t.Errorf("Generate() = %q, want %q", got, "refined text")
	}

	u := b.TokenUsage()
	if u.PromptTokens != 20 || u.CompletionTokens != 8 {
		t.Errorf("TokenUsage = %+v, want 20/8", u)
	}
}

func TestOpenAIEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openaiResponse{})
	}))
	defer server.Close()

	b := NewOpenAIWithClient("test-key", server.URL, "", server.Client())

	_, err := b.Generate(context.Background(), "prompt", "")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Generate() error = %v, want ErrEmptyResponse", err)
	}
}

func TestPricingResolvesConfiguredModel(t *testing.T) {
	a := NewAnthropicWithClient("k", "", "claude-sonnet-4-20250514", nil)
	pricing, ok := a.Pricing()
	if !ok {
		t.Fatal("Pricing() ok = false, want true for a known model")
	}
	if pricing.InputCost <= 0 || pricing.OutputCost <= 0 {
		t.Errorf("Pricing() = %+v, want positive per-token costs", pricing)
	}

	o := NewOpenAIWithClient("k", "", "gpt-4o", nil)
	if _, ok := o.Pricing(); !ok {
		t.Error("Pricing() ok = false, want true for gpt-4o")
	}

	unknown := NewAnthropicWithClient("k", "", "claude-experimental", nil)
	if _, ok := unknown.Pricing(); ok {
		t.Error("Pricing() ok = true, want false for an unknown model")
	}
}

func TestFactoryCreateByID(t *testing.T) {
	f := NewFactory()

	tests := []struct {
		id     string
		wantID string
	}{
		{"mock", "mock"},
		{"dry-run", "mock"},
		{"", "mock"},
		{"anthropic", "anthropic"},
		{"claude", "anthropic"},
		{"openai", "openai"},
		{"gpt", "openai"},
	}

	for _, tt := range tests {
		b, err := f.CreateByID(tt.id, WithAPIKey("k"))
		if err != nil {
			t.Fatalf("CreateByID(%q) error = %v", tt.id, err)
		}
		if b.ID() != tt.wantID {
			t.Errorf("CreateByID(%q).ID() = %q, want %q", tt.id, b.ID(), tt.wantID)
		}
	}

	if _, err := f.CreateByID("cohere"); err == nil {
		t.Error("CreateByID(cohere) error = nil, want unknown backend")
	}
}

func TestFactoryFreshAccumulators(t *testing.T) {
	f := NewFactory()

	b1, _ := f.CreateByID("mock")
	b1.Generate(context.Background(), "one two", "")

	b2, _ := f.CreateByID("mock")
	if u := b2.TokenUsage(); u.Total() != 0 {
		t.Errorf("second instance TokenUsage = %+v, want zero", u)
	}
}
