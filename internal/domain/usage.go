package domain

import "fmt"

// TokenUsage tracks accumulated token counters and cost for one backend
// instance. Counters are non-negative and only ever grow.
type TokenUsage struct {
	PromptTokens     int     `json:"promptTokens"`
	CompletionTokens int     `json:"completionTokens"`
	CachedTokens     int     `json:"cachedTokens,omitempty"`
	CostUSD          float64 `json:"costUSD"`
}

// Total returns the sum of all three token counters.
func (u TokenUsage) Total() int {
	return u.PromptTokens + u.CompletionTokens + u.CachedTokens
}

// Add combines another usage sample into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.CachedTokens += other.CachedTokens
	u.CostUSD += other.CostUSD
}

// ModelPricing holds per-million-token prices for a hosted model.
type ModelPricing struct {
	ID         string
	Name       string
	InputCost  float64 // per 1M tokens
	OutputCost float64 // per 1M tokens
}

// CostFor computes the cost of a single call against this model.
func (m ModelPricing) CostFor(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)*m.InputCost/1_000_000 +
		float64(completionTokens)*m.OutputCost/1_000_000
}

// FormatCost returns a human-readable cost string.
func FormatCost(cost float64) string {
	if cost == 0 {
		return "$0.00"
	}
	if cost < 0.01 {
		return "<$0.01"
	}
	return fmt.Sprintf("$%.2f", cost)
}

// FormatTokens returns a human-readable token count.
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	return fmt.Sprintf("%.1fk", float64(tokens)/1000)
}
