package engine

import (
	"context"
	"time"

	"github.com/joss/promptsmith/internal/backend"
	"github.com/joss/promptsmith/internal/domain"
	"github.com/joss/promptsmith/internal/logging"
	"github.com/joss/promptsmith/internal/prompts"
)

// Detail keys on harmonization results.
const (
	detailHarmonized = "harmonized_prompt"
	detailFinal      = "final_prompt"
)

// Harmonizer performs the single cross-stage reconciliation pass.
type Harmonizer struct {
	prompts *prompts.Manager
	backend backend.Backend
	log     *logging.Logger
}

// NewHarmonizer creates a harmonizer.
func NewHarmonizer(pm *prompts.Manager, b backend.Backend) *Harmonizer {
	return &Harmonizer{
		prompts: pm,
		backend: b,
		log:     logging.New("harmonizer").WithBackend(b.ID()),
	}
}

// Harmonize renders the whole-session prompt, invokes the backend once
// and commits the result unconditionally: one harmonization history
// entry, one final_output entry carrying the same text, and the
// final_output parameter. Unlike stages there is no accept/reject loop.
//
// Caller contract, not enforced here: every analysis stage should be
// committed first. Calling early succeeds mechanically but harmonizes an
// incomplete parameter set. A second call appends two more history
// entries. If the backend fails the session is left untouched.
func (h *Harmonizer) Harmonize(ctx context.Context, session *domain.Session) error {
	prompt, err := h.prompts.RenderHarmonize(session)
	if err != nil {
		return err
	}

	start := time.Now()
	response, err := h.backend.Generate(ctx, prompt, domain.StepHarmonization)
	if err != nil {
		logging.StageEvent(session.ID, string(domain.StepHarmonization), false, time.Since(start), err)
		return err
	}

	session.RecordAnalysis(domain.NewAnalysisResult(domain.StepHarmonization, response, map[string]string{
		domain.DetailPrompt: prompt,
		detailHarmonized:    response,
	}))

	session.Parameters[domain.ParamFinalOutput] = response
	session.RecordAnalysis(domain.NewAnalysisResult(domain.StepFinalOutput, response, map[string]string{
		detailFinal: response,
	}))

	h.log.WithSession(session.ID).TimedEvent("harmonize", start, map[string]interface{}{
		"completed_steps": len(session.CompletedSteps),
	})

	return nil
}
