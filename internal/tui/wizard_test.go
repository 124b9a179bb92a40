package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/promptsmith/internal/backend"
	"github.com/joss/promptsmith/internal/domain"
	"github.com/joss/promptsmith/internal/engine"
	"github.com/joss/promptsmith/internal/prompts"
)

func newTestModel(t *testing.T) Model {
	t.Helper()

	pm := prompts.NewManager()
	mock := backend.NewMock()
	eng := engine.New(pm, mock)
	harm := engine.NewHarmonizer(pm, mock)
	sess := domain.NewSession("write a launch announcement")

	m := NewModel(context.Background(), eng, harm, mock, sess)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func runCmd(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Msg) {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	updated, next := m.Update(msg)
	_ = next
	return updated.(Model), msg
}

func TestWizardStartsAtFirstStage(t *testing.T) {
	m := newTestModel(t)

	assert.Equal(t, stateGenerating, m.state)
	assert.Equal(t, domain.StepUserIntent, m.step)
}

func TestCandidateMovesToAwaiting(t *testing.T) {
	m := newTestModel(t)

	m, _ = runCmd(t, m, m.generate(""))

	assert.Equal(t, stateAwaiting, m.state)
	assert.Equal(t, domain.StepUserIntent, m.candidate.Step)
	assert.NotEmpty(t, m.candidate.Summary)
	// Nothing committed yet.
	assert.Empty(t, m.session.CompletedSteps)
}

func TestAcceptCommitsAndAdvances(t *testing.T) {
	m := newTestModel(t)
	m, _ = runCmd(t, m, m.generate(""))

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	m = updated.(Model)

	assert.Equal(t, stateGenerating, m.state)
	assert.Equal(t, domain.StepRole, m.step)
	assert.Equal(t, []domain.OptimizationStep{domain.StepUserIntent}, m.session.CompletedSteps)
	assert.NotNil(t, cmd)
}

func TestRejectEntersFeedbackAndRegenerates(t *testing.T) {
	m := newTestModel(t)
	m, _ = runCmd(t, m, m.generate(""))

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m = updated.(Model)
	assert.Equal(t, stateFeedback, m.state)

	m.feedback.SetValue("make it shorter")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.Equal(t, stateGenerating, m.state)
	assert.Equal(t, 1, m.rejections)
	assert.Equal(t, 2, m.attempt)
	// The rejected candidate never reached the session.
	assert.Empty(t, m.session.CompletedSteps)
	assert.NotNil(t, cmd)
}

func TestFullAcceptRunReachesDone(t *testing.T) {
	m := newTestModel(t)

	for range domain.AnalysisSteps() {
		m, _ = runCmd(t, m, m.generate(""))
		require.Equal(t, stateAwaiting, m.state)

		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(Model)
	}

	require.Equal(t, stateHarmonizing, m.state)

	m, _ = runCmd(t, m, m.harmonize())
	assert.Equal(t, stateDone, m.state)
	assert.True(t, m.session.IsComplete())
	assert.NotEmpty(t, m.session.FinalOutput())
	assert.Zero(t, m.Rejections())
}

func TestStatusLineProjectsCostForPricedBackend(t *testing.T) {
	pm := prompts.NewManager()
	hosted := backend.NewAnthropicWithClient("test-key", "", "claude-sonnet-4-20250514", nil)
	sess := domain.NewSession("write a launch announcement")
	m := NewModel(context.Background(), engine.New(pm, hosted), engine.NewHarmonizer(pm, hosted), hosted, sess)

	assert.Contains(t, m.statusLine(), "next call ~")
}

func TestStatusLineOmitsProjectionForMock(t *testing.T) {
	m := newTestModel(t)

	assert.NotContains(t, m.statusLine(), "next call")
}

func TestBackendFailureEndsRun(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(candidateMsg{err: assert.AnError})
	m = updated.(Model)

	assert.Equal(t, stateFailed, m.state)
	assert.Equal(t, assert.AnError, m.Err())
}
