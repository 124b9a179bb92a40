package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/joss/promptsmith/internal/domain"
)

// Mock is the deterministic offline backend for dry-run and testing
// flows. Token accounting is word based: every call adds the prompt's
// word count to the prompt counter and at least one completion token.
type Mock struct {
	mode             string
	promptTokens     int
	completionTokens int
	cachedTokens     int
}

// NewMock creates a mock backend with zeroed counters.
func NewMock() *Mock {
	return &Mock{mode: "dry-run"}
}

func (m *Mock) ID() string   { return "mock" }
func (m *Mock) Mode() string { return m.mode }

func (m *Mock) Generate(_ context.Context, prompt string, step domain.OptimizationStep) (string, error) {
	promptTokens := len(strings.Fields(prompt))
	completionTokens := promptTokens / 2
	if completionTokens < 1 {
		completionTokens = 1
	}

	m.promptTokens += promptTokens
	m.completionTokens += completionTokens

	return fmt.Sprintf("[MOCK] Response for %s: synthesized output based on prompt.", stepLabel(step)), nil
}

func (m *Mock) TokenUsage() domain.TokenUsage {
	return domain.TokenUsage{
		PromptTokens:     m.promptTokens,
		CompletionTokens: m.completionTokens,
		CachedTokens:     m.cachedTokens,
		CostUSD:          0,
	}
}

var _ Backend = (*Mock)(nil)
