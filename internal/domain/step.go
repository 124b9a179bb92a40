// Package domain defines core entities for promptsmith.
// These are the primitives every other package builds on.
package domain

import "strings"

// OptimizationStep identifies one stage of the optimization pipeline.
type OptimizationStep string

const (
	StepUserIntent  OptimizationStep = "user_intent"
	StepRole        OptimizationStep = "role"
	StepObjective   OptimizationStep = "objective"
	StepContext     OptimizationStep = "context"
	StepAudience    OptimizationStep = "audience"
	StepKeyPoints   OptimizationStep = "key_points"
	StepConstraints OptimizationStep = "constraints"
	StepOutput      OptimizationStep = "output"

	// Terminal pseudo-stages. Never part of the analysis walk.
	StepHarmonization OptimizationStep = "harmonization"
	StepFinalOutput   OptimizationStep = "final_output"
)

// analysisOrder is the fixed traversal sequence. Order is significant:
// each stage sees the accepted answers of every stage before it.
var analysisOrder = []OptimizationStep{
	StepUserIntent,
	StepRole,
	StepObjective,
	StepContext,
	StepAudience,
	StepKeyPoints,
	StepConstraints,
	StepOutput,
}

// AnalysisSteps returns the ordered analysis stages. Callers must not
// mutate the returned slice.
func AnalysisSteps() []OptimizationStep {
	return analysisOrder
}

// IsAnalysis reports whether s is one of the eight analysis stages.
func (s OptimizationStep) IsAnalysis() bool {
	for _, step := range analysisOrder {
		if s == step {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is a harmonization-phase pseudo-stage.
func (s OptimizationStep) IsTerminal() bool {
	return s == StepHarmonization || s == StepFinalOutput
}

// Label returns the human-readable form, e.g. "Key Points".
func (s OptimizationStep) Label() string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Index returns the position of s in the analysis order, or -1 for
// pseudo-stages and unknown values.
func (s OptimizationStep) Index() int {
	for i, step := range analysisOrder {
		if s == step {
			return i
		}
	}
	return -1
}
