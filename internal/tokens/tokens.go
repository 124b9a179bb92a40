// Package tokens provides token counting using tiktoken-go.
// Used for pre-call estimates and cost projection in the wizard.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/joss/promptsmith/internal/domain"
)

// Counter provides token counting for prompt text.
// Uses cl100k_base encoding (used by Claude and GPT-4).
type Counter struct {
	enc  *tiktoken.Tiktoken
	once sync.Once
	err  error
}

// Global counter instance
var defaultCounter = &Counter{}

// Count returns the number of tokens in the given text.
func Count(text string) int {
	return defaultCounter.Count(text)
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	c.init()
	if c.err != nil || c.enc == nil {
		// Fallback: rough estimate (4 chars per token)
		return len(text) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

func (c *Counter) init() {
	c.once.Do(func() {
		// cl100k_base is used by Claude and GPT-4
		c.enc, c.err = tiktoken.GetEncoding("cl100k_base")
	})
}

// ProjectCost estimates the cost of sending text to the given model,
// assuming completions run about half the prompt length.
func ProjectCost(text string, model domain.ModelPricing) float64 {
	prompt := Count(text)
	return model.CostFor(prompt, prompt/2)
}
