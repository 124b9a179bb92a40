package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Reserved parameter keys. ParamDraftPrompt is distinct from every stage
// identifier; ParamFinalOutput matches the final_output pseudo-stage.
const (
	ParamDraftPrompt = "draft_prompt"
	ParamFinalOutput = string(StepFinalOutput)
)

// Session is the accumulating state of one optimization run. It is owned
// exclusively by the orchestrator driving the run and is never shared
// across goroutines, so it carries no synchronization. It is discarded at
// the end of the run; there is no resumption across process restarts.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	// CurrentStep is the last stage whose result was recorded. Once
	// advanced it never regresses.
	CurrentStep OptimizationStep `json:"currentStep"`

	// CompletedSteps lists recorded stages in the order first recorded,
	// each at most once.
	CompletedSteps []OptimizationStep `json:"completedSteps"`

	// Parameters maps stage identifiers (plus the reserved keys) to the
	// latest accepted text. Last write wins; rejected candidates never
	// enter this map.
	Parameters map[string]string `json:"parameters"`

	// AnalysisHistory is append-only: one entry per accepted stage, plus
	// one for harmonization and one for final output. Entries are never
	// removed or reordered, so len(AnalysisHistory) >= len(CompletedSteps).
	AnalysisHistory []AnalysisResult `json:"analysisHistory"`
}

// NewSession creates a session holding only the draft prompt.
func NewSession(draftPrompt string) *Session {
	return &Session{
		ID:        ulid.Make().String(),
		CreatedAt: time.Now().UTC(),
		CurrentStep: StepUserIntent,
		Parameters: map[string]string{
			ParamDraftPrompt: draftPrompt,
		},
	}
}

// RecordAnalysis appends a result to the history and advances tracking
// metadata. This is the only mutation path for history and step state.
func (s *Session) RecordAnalysis(result AnalysisResult) {
	s.AnalysisHistory = append(s.AnalysisHistory, result)
	for _, done := range s.CompletedSteps {
		if done == result.Step {
			s.CurrentStep = result.Step
			return
		}
	}
	s.CompletedSteps = append(s.CompletedSteps, result.Step)
	s.CurrentStep = result.Step
}

// DraftPrompt returns the draft prompt captured at construction.
func (s *Session) DraftPrompt() string {
	return s.Parameters[ParamDraftPrompt]
}

// FinalOutput returns the harmonized prompt, or "" before harmonization.
func (s *Session) FinalOutput() string {
	return s.Parameters[ParamFinalOutput]
}

// NextStep returns the first analysis stage that has not been recorded
// yet, and false once all eight stages are committed.
func (s *Session) NextStep() (OptimizationStep, bool) {
	for _, step := range AnalysisSteps() {
		if !s.Completed(step) {
			return step, true
		}
	}
	return "", false
}

// Completed reports whether the given stage has been recorded.
func (s *Session) Completed(step OptimizationStep) bool {
	for _, done := range s.CompletedSteps {
		if done == step {
			return true
		}
	}
	return false
}

// IsComplete reports whether the run has produced its final output.
func (s *Session) IsComplete() bool {
	return s.CurrentStep == StepFinalOutput
}
