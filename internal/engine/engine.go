// Package engine drives the optimization stages and the final
// harmonization pass. Generation and commitment are deliberately split:
// ProcessStep computes a candidate without touching the session, and
// Commit is the only one-way mutation. That split is what makes the
// orchestrator's reject-with-feedback loop safe to re-run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joss/promptsmith/internal/backend"
	"github.com/joss/promptsmith/internal/domain"
	"github.com/joss/promptsmith/internal/logging"
	"github.com/joss/promptsmith/internal/prompts"
)

// ErrStepOrder indicates ProcessStep was called for a stage out of the
// fixed sequence. The engine rejects this defensively rather than
// trusting the caller; retrying the same not-yet-committed stage is
// always in order.
var ErrStepOrder = errors.New("engine: step out of order")

// Engine processes single optimization steps against a backend.
type Engine struct {
	prompts *prompts.Manager
	backend backend.Backend
	log     *logging.Logger
}

// New creates an engine.
func New(pm *prompts.Manager, b backend.Backend) *Engine {
	return &Engine{
		prompts: pm,
		backend: b,
		log:     logging.New("engine").WithBackend(b.ID()),
	}
}

// ProcessStep renders the stage prompt from the current session
// parameters, invokes the backend and wraps the response as a candidate
// result. The session is not mutated: the caller either commits the
// candidate or discards it and retries with feedback. Backend failures
// propagate unwrapped; nothing is recorded for a failed attempt.
func (e *Engine) ProcessStep(ctx context.Context, session *domain.Session, step domain.OptimizationStep, userPrompt, feedback string) (domain.AnalysisResult, error) {
	expected, ok := session.NextStep()
	if !ok || step != expected {
		return domain.AnalysisResult{}, fmt.Errorf("%w: got %s, expected %s", ErrStepOrder, step, expected)
	}

	prompt, err := e.prompts.RenderStage(step, userPrompt, session, feedback)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	start := time.Now()
	response, err := e.backend.Generate(ctx, prompt, step)
	if err != nil {
		logging.StageEvent(session.ID, string(step), false, time.Since(start), err)
		return domain.AnalysisResult{}, err
	}

	e.log.WithSession(session.ID).TimedEvent("process_step", start, map[string]interface{}{
		"step":  string(step),
		"retry": feedback != "",
	})

	return domain.NewAnalysisResult(step, response, map[string]string{
		domain.DetailPrompt:     prompt,
		domain.DetailSuggestion: response,
	}), nil
}

// Commit writes an accepted candidate into the session: the stage
// parameter takes the candidate's summary (last write wins) and the
// result is appended to history, advancing the current step. Committing
// each stage at most once, in order, is the caller's contract.
func (e *Engine) Commit(session *domain.Session, result domain.AnalysisResult) {
	session.Parameters[string(result.Step)] = result.Summary
	session.RecordAnalysis(result)

	logging.StageEvent(session.ID, string(result.Step), true, 0, nil)
}
