package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/joss/promptsmith/internal/domain"
	"github.com/joss/promptsmith/internal/logging"
)

const (
	anthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"

	defaultAnthropicModel = "claude-sonnet-4-20250514"
)

var anthropicModels = []domain.ModelPricing{
	{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", InputCost: 3, OutputCost: 15},
	{ID: "claude-opus-4-20250514", Name: "Claude Opus 4", InputCost: 15, OutputCost: 75},
	{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", InputCost: 0.8, OutputCost: 4},
}

// Anthropic calls the Messages API synchronously (no streaming).
type Anthropic struct {
	apiKey  string
	baseURL string
	model   string
	client  HTTPClient
	usage   domain.TokenUsage
	log     *logging.Logger
}

// NewAnthropic creates a backend using the default HTTP client.
func NewAnthropic(apiKey, model string) *Anthropic {
	return NewAnthropicWithClient(apiKey, "", model, &http.Client{})
}

// NewAnthropicWithClient creates a backend with an injectable client.
func NewAnthropicWithClient(apiKey, baseURL, model string, client HTTPClient) *Anthropic {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if baseURL == "" {
		baseURL = anthropicAPIURL
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	return &Anthropic{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  client,
		log:     logging.New("backend.anthropic"),
	}
}

func (a *Anthropic) ID() string   { return "anthropic" }
func (a *Anthropic) Mode() string { return "live" }

// Models returns the pricing table for supported models.
func (a *Anthropic) Models() []domain.ModelPricing {
	return anthropicModels
}

// Pricing resolves the configured model in the pricing table. Unknown
// models report false and their calls record zero cost.
func (a *Anthropic) Pricing() (domain.ModelPricing, bool) {
	for _, m := range a.Models() {
		if m.ID == a.model {
			return m, true
		}
	}
	return domain.ModelPricing{}, false
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage anthropicUsage `json:"usage"`
}

type anthropicUsage struct {
	InputTokens          int `json:"input_tokens"`
	OutputTokens         int `json:"output_tokens"`
	CacheReadInputTokens int `json:"cache_read_input_tokens,omitempty"`
}

func (a *Anthropic) Generate(ctx context.Context, prompt string, step domain.OptimizationStep) (string, error) {
	if a.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body := anthropicRequest{
		Model:     a.model,
		MaxTokens: 4096,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("anthropic API error %d: %s", resp.StatusCode, string(errBody))
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var text string
	for _, c := range parsed.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}
	if text == "" {
		return "", ErrEmptyResponse
	}

	a.record(parsed.Usage)
	a.log.Info("generate", map[string]interface{}{
		"step":              stepLabel(step),
		"model":             a.model,
		"prompt_tokens":     parsed.Usage.InputTokens,
		"completion_tokens": parsed.Usage.OutputTokens,
	})

	return text, nil
}

func (a *Anthropic) record(u anthropicUsage) {
	sample := domain.TokenUsage{
		PromptTokens:     u.InputTokens,
		CompletionTokens: u.OutputTokens,
		CachedTokens:     u.CacheReadInputTokens,
	}
	if m, ok := a.Pricing(); ok {
		sample.CostUSD = m.CostFor(u.InputTokens, u.OutputTokens)
	}
	a.usage.Add(sample)
}

func (a *Anthropic) TokenUsage() domain.TokenUsage {
	return a.usage
}

var _ Backend = (*Anthropic)(nil)
