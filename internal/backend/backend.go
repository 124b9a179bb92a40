// Package backend implements generation backends and their factory.
package backend

import (
	"context"
	"errors"

	"github.com/joss/promptsmith/internal/domain"
)

// Backend is the capability contract the engine depends on. A backend
// instance privately owns its token accumulator; a fresh instance starts
// at zero. Generate performs no retries and no backoff: a failure
// surfaces once, uncategorized by transience.
type Backend interface {
	ID() string
	Mode() string

	// Generate produces a response for the rendered prompt. The step is a
	// hint for logging and telemetry only; it must not change the meaning
	// of the response. A zero step means no hint.
	Generate(ctx context.Context, prompt string, step domain.OptimizationStep) (string, error)

	// TokenUsage returns the usage accumulated by this instance so far.
	TokenUsage() domain.TokenUsage
}

// Errors surfaced by backends.
var (
	// ErrNoAPIKey indicates a hosted backend was invoked without
	// credentials.
	ErrNoAPIKey = errors.New("backend: missing API key")

	// ErrEmptyResponse indicates the API returned no usable text.
	ErrEmptyResponse = errors.New("backend: empty response")
)

func stepLabel(step domain.OptimizationStep) string {
	if step == "" {
		return "general"
	}
	return string(step)
}
