package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/joss/promptsmith/internal/domain"
	"github.com/joss/promptsmith/internal/logging"
)

const (
	openaiAPIURL = "https://api.openai.com/v1"

	defaultOpenAIModel = "gpt-4o"
)

var openaiModels = []domain.ModelPricing{
	{ID: "gpt-4o", Name: "GPT-4o", InputCost: 2.5, OutputCost: 10},
	{ID: "gpt-4o-mini", Name: "GPT-4o mini", InputCost: 0.15, OutputCost: 0.6},
	{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", InputCost: 10, OutputCost: 30},
}

// OpenAI calls the Chat Completions API synchronously (no streaming).
// Also works with OpenAI-compatible endpoints via a base URL override.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  HTTPClient
	usage   domain.TokenUsage
	log     *logging.Logger
}

// NewOpenAI creates a backend using the default HTTP client.
func NewOpenAI(apiKey, model string) *OpenAI {
	return NewOpenAIWithClient(apiKey, "", model, &http.Client{})
}

// NewOpenAIWithClient creates a backend with an injectable client.
func NewOpenAIWithClient(apiKey, baseURL, model string, client HTTPClient) *OpenAI {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if baseURL == "" {
		baseURL = openaiAPIURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  client,
		log:     logging.New("backend.openai"),
	}
}

func (o *OpenAI) ID() string   { return "openai" }
func (o *OpenAI) Mode() string { return "live" }

// Models returns the pricing table for supported models.
func (o *OpenAI) Models() []domain.ModelPricing {
	return openaiModels
}

// Pricing resolves the configured model in the pricing table. Unknown
// models report false and their calls record zero cost.
func (o *OpenAI) Pricing() (domain.ModelPricing, bool) {
	for _, m := range o.Models() {
		if m.ID == o.model {
			return m, true
		}
	}
	return domain.ModelPricing{}, false
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
	User     string          `json:"user,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Usage openaiUsage `json:"usage"`
}

type openaiUsage struct {
	PromptTokens        int `json:"prompt_tokens"`
	CompletionTokens    int `json:"completion_tokens"`
	PromptTokensDetails struct {
		CachedTokens int `json:"cached_tokens"`
	} `json:"prompt_tokens_details"`
}

func (o *OpenAI) Generate(ctx context.Context, prompt string, step domain.OptimizationStep) (string, error) {
	if o.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body := openaiRequest{
		Model:    o.model,
		Messages: []openaiMessage{{Role: "user", Content: prompt}},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := o.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai API error %d: %s", resp.StatusCode, string(errBody))
	}

	var parsed openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	text := parsed.Choices[0].Message.Content

	o.record(parsed.Usage)
	o.log.Info("generate", map[string]interface{}{
		"step":              stepLabel(step),
		"model":             o.model,
		"prompt_tokens":     parsed.Usage.PromptTokens,
		"completion_tokens": parsed.Usage.CompletionTokens,
	})

	return text, nil
}

func (o *OpenAI) record(u openaiUsage) {
	sample := domain.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		CachedTokens:     u.PromptTokensDetails.CachedTokens,
	}
	if m, ok := o.Pricing(); ok {
		sample.CostUSD = m.CostFor(u.PromptTokens, u.CompletionTokens)
	}
	o.usage.Add(sample)
}

func (o *OpenAI) TokenUsage() domain.TokenUsage {
	return o.usage
}

var _ Backend = (*OpenAI)(nil)
