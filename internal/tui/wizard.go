// Package tui provides the Bubble Tea interactive optimization wizard.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/joss/promptsmith/internal/backend"
	"github.com/joss/promptsmith/internal/domain"
	"github.com/joss/promptsmith/internal/engine"
	"github.com/joss/promptsmith/internal/tokens"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	candidateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	thinkingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	feedbackBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)
)

// pricedBackend is implemented by hosted backends that carry a pricing
// table for their configured model.
type pricedBackend interface {
	Pricing() (domain.ModelPricing, bool)
}

// wizardState tracks which phase of the flow the model is in.
type wizardState int

const (
	stateGenerating wizardState = iota
	stateAwaiting
	stateFeedback
	stateHarmonizing
	stateDone
	stateFailed
)

// Messages.
type (
	candidateMsg struct {
		result domain.AnalysisResult
		err    error
	}
	harmonizedMsg struct{ err error }
)

// Model is the wizard TUI model.
type Model struct {
	ctx     context.Context
	eng     *engine.Engine
	harm    *engine.Harmonizer
	back    backend.Backend
	session *domain.Session

	state      wizardState
	step       domain.OptimizationStep
	candidate  domain.AnalysisResult
	attempt    int
	rejections int
	err        error
	quitting   bool
	ready      bool

	viewport viewport.Model
	feedback textarea.Model
	spinner  spinner.Model
	width    int
	height   int
}

// NewModel creates the wizard model positioned at the session's first
// pending stage.
func NewModel(ctx context.Context, eng *engine.Engine, harm *engine.Harmonizer, back backend.Backend, session *domain.Session) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ta := textarea.New()
	ta.Placeholder = "What should change? (Enter to retry)"
	ta.CharLimit = 2000
	ta.SetWidth(76)
	ta.SetHeight(3)

	step, _ := session.NextStep()

	return Model{
		ctx:      ctx,
		eng:      eng,
		harm:     harm,
		back:     back,
		session:  session,
		state:    stateGenerating,
		step:     step,
		attempt:  1,
		spinner:  s,
		feedback: ta,
	}
}

// Session returns the session the wizard operated on.
func (m Model) Session() *domain.Session { return m.session }

// Rejections returns how many candidates the operator sent back.
func (m Model) Rejections() int { return m.rejections }

// Err returns the terminal error, if the run failed.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.generate(""))
}

func (m Model) generate(feedback string) tea.Cmd {
	ctx, eng, session, step := m.ctx, m.eng, m.session, m.step
	draft := session.DraftPrompt()
	return func() tea.Msg {
		result, err := eng.ProcessStep(ctx, session, step, draft, feedback)
		return candidateMsg{result: result, err: err}
	}
}

func (m Model) harmonize() tea.Cmd {
	ctx, harm, session := m.ctx, m.harm, m.session
	return func() tea.Msg {
		return harmonizedMsg{err: harm.Harmonize(ctx, session)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 8
		if vpHeight < 4 {
			vpHeight = 4
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.feedback.SetWidth(msg.Width - 4)
		m.syncViewport()
		return m, nil

	case candidateMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateFailed
			return m, tea.Quit
		}
		m.candidate = msg.result
		m.state = stateAwaiting
		m.syncViewport()
		return m, nil

	case harmonizedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateFailed
			return m, tea.Quit
		}
		m.state = stateDone
		m.syncViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.state == stateFeedback {
		var cmd tea.Cmd
		m.feedback, cmd = m.feedback.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case stateAwaiting:
		switch msg.String() {
		case "y", "enter":
			return m.accept()
		case "n", "r":
			m.state = stateFeedback
			m.feedback.Reset()
			return m, m.feedback.Focus()
		case "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case stateFeedback:
		switch msg.String() {
		case "esc":
			m.state = stateAwaiting
			m.feedback.Blur()
			return m, nil
		case "enter":
			fb := strings.TrimSpace(m.feedback.Value())
			m.feedback.Blur()
			m.rejections++
			m.attempt++
			m.state = stateGenerating
			m.syncViewport()
			return m, tea.Batch(m.spinner.Tick, m.generate(fb))
		default:
			var cmd tea.Cmd
			m.feedback, cmd = m.feedback.Update(msg)
			return m, cmd
		}

	case stateDone, stateFailed:
		switch msg.String() {
		case "q", "esc", "enter":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// accept commits the pending candidate and advances to the next stage,
// or kicks off harmonization when every stage is done.
func (m Model) accept() (tea.Model, tea.Cmd) {
	m.eng.Commit(m.session, m.candidate)
	m.attempt = 1

	next, ok := m.session.NextStep()
	if !ok {
		m.state = stateHarmonizing
		m.syncViewport()
		return m, tea.Batch(m.spinner.Tick, m.harmonize())
	}

	m.step = next
	m.state = stateGenerating
	m.syncViewport()
	return m, tea.Batch(m.spinner.Tick, m.generate(""))
}

func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderBody())
	m.viewport.GotoTop()
}

func (m Model) renderBody() string {
	var sb strings.Builder

	switch m.state {
	case stateGenerating:
		fmt.Fprintf(&sb, "%s %s\n", m.spinner.View(),
			thinkingStyle.Render("Analyzing "+m.step.Label()+"..."))

	case stateAwaiting:
		sb.WriteString(stageStyle.Render("▸ "+m.candidate.Step.Label()) + "\n\n")
		sb.WriteString(candidateStyle.Render(m.candidate.Summary) + "\n")

	case stateHarmonizing:
		fmt.Fprintf(&sb, "%s %s\n", m.spinner.View(),
			thinkingStyle.Render("Harmonizing optimized prompt..."))

	case stateDone:
		sb.WriteString(stageStyle.Render("✓ Optimization complete") + "\n\n")
		final := m.session.FinalOutput()
		rendered, err := glamour.Render(final, "auto")
		if err != nil {
			rendered = final
		}
		sb.WriteString(rendered)

	case stateFailed:
		sb.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	}

	return sb.String()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Prompt Optimizer") + "\n")
	sb.WriteString(m.viewport.View() + "\n")

	switch m.state {
	case stateAwaiting:
		if m.attempt > 1 {
			sb.WriteString(thinkingStyle.Render(fmt.Sprintf("attempt %d", m.attempt)) + "\n")
		}
		sb.WriteString(promptStyle.Render("Accept? [y]es / [n]o with feedback / [q]uit") + "\n")
	case stateFeedback:
		sb.WriteString(feedbackBorderStyle.Render(m.feedback.View()) + "\n")
	case stateDone, stateFailed:
		sb.WriteString(promptStyle.Render("Press Enter to exit") + "\n")
	}

	sb.WriteString(m.statusLine())
	return sb.String()
}

func (m Model) statusLine() string {
	usage := m.back.TokenUsage()
	total := len(domain.AnalysisSteps())
	done := 0
	for _, s := range domain.AnalysisSteps() {
		if m.session.Completed(s) {
			done++
		}
	}

	status := fmt.Sprintf("%s · stage %d/%d · %s tokens · %s",
		m.back.ID(), done, total,
		domain.FormatTokens(usage.Total()),
		domain.FormatCost(usage.CostUSD))
	if m.state == stateAwaiting {
		status += fmt.Sprintf(" · candidate ~%d tok", tokens.Count(m.candidate.Summary))
	}
	if p, ok := m.back.(pricedBackend); ok {
		if pricing, found := p.Pricing(); found {
			projected := tokens.ProjectCost(m.session.DraftPrompt(), pricing)
			status += " · next call ~" + domain.FormatCost(projected)
		}
	}
	return statusStyle.Render(status)
}

// Run starts the wizard and blocks until it exits. It returns the final
// model so the caller can inspect the session and rejection count.
func Run(ctx context.Context, eng *engine.Engine, harm *engine.Harmonizer, back backend.Backend, session *domain.Session) (Model, error) {
	p := tea.NewProgram(NewModel(ctx, eng, harm, back, session), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Model{}, err
	}
	model := final.(Model)
	if model.err != nil {
		return model, model.err
	}
	return model, nil
}
