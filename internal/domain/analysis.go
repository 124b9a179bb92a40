package domain

import "time"

// Detail map keys populated by the engine for every result.
const (
	DetailPrompt     = "prompt"
	DetailSuggestion = "suggestion"
)

// AnalysisResult is the immutable outcome of one stage (or of the
// harmonization pass). Created once, never mutated afterwards.
type AnalysisResult struct {
	Step      OptimizationStep  `json:"step"`
	Summary   string            `json:"summary"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewAnalysisResult stamps a result with the current time.
func NewAnalysisResult(step OptimizationStep, summary string, details map[string]string) AnalysisResult {
	return AnalysisResult{
		Step:      step,
		Summary:   summary,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}
