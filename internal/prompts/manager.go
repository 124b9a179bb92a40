// Package prompts renders the instruction text sent to generation
// backends. Rendering is a pure function of its inputs: the same step,
// prompt, session state and feedback always produce the same text.
package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/joss/promptsmith/internal/domain"
)

// ErrMissingInput indicates a template referenced data the caller failed
// to supply. This is a programming-contract violation, never retried.
var ErrMissingInput = errors.New("prompts: missing required input")

// Template names resolvable through the override directory.
const (
	TemplateAnalyzeStep = "analyze_step"
	TemplateHarmonize   = "harmonize"
)

const analyzeStepTemplate = `You are assisting with the prompt optimization process.
Evaluate and expand the "{{.StepLabel}}" dimension of the prompt.

Draft prompt:
{{.UserPrompt}}

Previously collected parameters:
{{.Parameters}}

Additional guidance from the operator (optional):
{{.Feedback}}

Respond with a concise recommendation for the {{.StepLabel}} and
include a short justification. Keep the answer plain text.`

const harmonizeTemplate = `You are the final reviewer for an optimized prompt.
Given the session state below, harmonize the components into a single,
coherent prompt ready for execution. Resolve any inconsistencies and
preserve the user's intent.

Session state (JSON):
{{.SessionState}}

Return the harmonized prompt as polished Markdown. Include a brief note
explaining the key changes you applied to ensure consistency.`

// noFeedback is rendered when the operator supplied no guidance, so the
// backend never receives an ambiguous blank.
const noFeedback = "None provided"

// Manager renders the templates used throughout the optimization
// pipeline. Zero value is not usable; construct with NewManager.
type Manager struct {
	templates map[string]*template.Template
}

// NewManager creates a manager holding the built-in templates.
func NewManager() *Manager {
	m := &Manager{templates: make(map[string]*template.Template)}
	// Built-ins are compile-time constants; parse errors are programmer
	// mistakes, so Must is appropriate.
	m.templates[TemplateAnalyzeStep] = template.Must(parse(TemplateAnalyzeStep, analyzeStepTemplate))
	m.templates[TemplateHarmonize] = template.Must(parse(TemplateHarmonize, harmonizeTemplate))
	return m
}

func parse(name, text string) (*template.Template, error) {
	return template.New(name).Option("missingkey=error").Parse(text)
}

// RenderStage renders the analysis prompt for one optimization step.
// feedback may be empty; it is only non-empty when the call retries a
// previously rejected candidate for the same stage.
func (m *Manager) RenderStage(step domain.OptimizationStep, userPrompt string, session *domain.Session, feedback string) (string, error) {
	if step == "" {
		return "", fmt.Errorf("%w: step", ErrMissingInput)
	}
	if strings.TrimSpace(userPrompt) == "" {
		return "", fmt.Errorf("%w: user prompt", ErrMissingInput)
	}
	if session == nil {
		return "", fmt.Errorf("%w: session", ErrMissingInput)
	}

	params, err := stableJSON(session.Parameters)
	if err != nil {
		return "", fmt.Errorf("encode parameters: %w", err)
	}

	if feedback == "" {
		feedback = noFeedback
	}

	return m.execute(TemplateAnalyzeStep, map[string]string{
		"StepLabel":  step.Label(),
		"UserPrompt": userPrompt,
		"Parameters": params,
		"Feedback":   feedback,
	})
}

// RenderHarmonize renders the whole-session reconciliation prompt. The
// session's full parameter map and history are serialized in a stable,
// deterministic encoding so the backend gets complete context in one shot.
func (m *Manager) RenderHarmonize(session *domain.Session) (string, error) {
	if session == nil {
		return "", fmt.Errorf("%w: session", ErrMissingInput)
	}

	state, err := stableJSON(session)
	if err != nil {
		return "", fmt.Errorf("encode session state: %w", err)
	}

	return m.execute(TemplateHarmonize, map[string]string{
		"SessionState": state,
	})
}

func (m *Manager) execute(name string, data map[string]string) (string, error) {
	tmpl, ok := m.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: template %s", ErrMissingInput, name)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingInput, err)
	}
	return sb.String(), nil
}

// stableJSON marshals v with indentation. encoding/json sorts map keys,
// which gives the deterministic encoding the harmonize contract needs.
func stableJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
