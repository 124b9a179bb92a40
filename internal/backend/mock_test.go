package backend

import (
	"context"
	"testing"

	"github.com/joss/promptsmith/internal/domain"
)

func TestMockGenerate(t *testing.T) {
	m := NewMock()

	got, err := m.Generate(context.Background(), "improve this prompt please", domain.StepRole)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := "[MOCK] Response for role: synthesized output based on prompt."
	if got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}
}

func TestMockGenerateWithoutStepHint(t *testing.T) {
	m := NewMock()

	got, err := m.Generate(context.Background(), "anything", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := "[MOCK] Response for general: synthesized output based on prompt."
	if got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}
}

func TestMockTokenAccounting(t *testing.T) {
	m := NewMock()

	if u := m.TokenUsage(); u.Total() != 0 {
		t.Fatalf("fresh backend Total() = %d, want 0", u.Total())
	}

	// 4 words -> 4 prompt tokens, 2 completion tokens
	m.Generate(context.Background(), "one two three four", domain.StepUserIntent)
	u := m.TokenUsage()
	if u.PromptTokens != 4 {
		t.Errorf("PromptTokens = %d, want 4", u.PromptTokens)
	}
	if u.CompletionTokens != 2 {
		t.Errorf("CompletionTokens = %d, want 2", u.CompletionTokens)
	}

	// 1 word -> floor(1/2)=0 clamps to 1 completion token; accumulates
	m.Generate(context.Background(), "word", domain.StepRole)
	u = m.TokenUsage()
	if u.PromptTokens != 5 {
		t.Errorf("after second call PromptTokens = %d, want 5", u.PromptTokens)
	}
	if u.CompletionTokens != 3 {
		t.Errorf("after second call CompletionTokens = %d, want 3", u.CompletionTokens)
	}
	if u.CostUSD != 0 {
		t.Errorf("CostUSD = %f, want 0", u.CostUSD)
	}
}
