package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/joss/promptsmith/internal/domain"
	"github.com/joss/promptsmith/internal/storage"
	"github.com/joss/promptsmith/internal/tokens"
)

// Renderer handles output formatting for the optimizer surfaces.
type Renderer struct {
	pretty bool
}

// New creates a renderer. pretty enables color and markdown rendering;
// plain output stays machine-friendly.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Banner formats the welcome panel shown at wizard start.
func (r *Renderer) Banner(backendID, mode string) string {
	var sb strings.Builder

	title := "Prompt Optimizer"
	flow := "User Intent → Parameters → Harmonization → Final Output"

	if r.pretty {
		sb.WriteString(color.CyanString(title) + "\n")
		sb.WriteString(strings.Repeat("─", 60) + "\n")
		sb.WriteString(flow + "\n")
		fmt.Fprintf(&sb, "Backend: %s (%s)\n", color.YellowString(backendID), mode)
	} else {
		sb.WriteString(title + "\n")
		sb.WriteString(flow + "\n")
		fmt.Fprintf(&sb, "Backend: %s (%s)\n", backendID, mode)
	}

	return sb.String()
}

// Candidate formats a stage candidate awaiting the operator's decision.
func (r *Renderer) Candidate(result domain.AnalysisResult, attempt int) string {
	var sb strings.Builder

	label := result.Step.Label()
	if r.pretty {
		fmt.Fprintf(&sb, "%s %s", color.GreenString("▸"), color.New(color.Bold).Sprint(label))
		if attempt > 1 {
			fmt.Fprintf(&sb, " %s", color.HiBlackString("(attempt %d)", attempt))
		}
		sb.WriteString("\n")
	} else {
		fmt.Fprintf(&sb, "[%s]", label)
		if attempt > 1 {
			fmt.Fprintf(&sb, " (attempt %d)", attempt)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(result.Summary + "\n")

	estimate := fmt.Sprintf("~%d tokens", tokens.Count(result.Summary))
	if r.pretty {
		sb.WriteString(color.HiBlackString(estimate) + "\n")
	} else {
		sb.WriteString(estimate + "\n")
	}
	return sb.String()
}

// FinalOutput formats the harmonized prompt. Pretty mode renders the
// Markdown for the terminal; plain mode emits it verbatim so the output
// can be piped.
func (r *Renderer) FinalOutput(text string) string {
	if !r.pretty {
		return text
	}

	rendered, err := glamour.Render(text, "auto")
	if err != nil {
		return text
	}
	return rendered
}

// Usage formats a token usage summary line.
func (r *Renderer) Usage(u domain.TokenUsage) string {
	line := fmt.Sprintf("tokens: %s prompt / %s completion / %s cached · cost: %s",
		domain.FormatTokens(u.PromptTokens),
		domain.FormatTokens(u.CompletionTokens),
		domain.FormatTokens(u.CachedTokens),
		domain.FormatCost(u.CostUSD))

	if r.pretty {
		return color.HiBlackString(line)
	}
	return line
}

// Runs formats ledger rows for the history command.
func (r *Renderer) Runs(runs []*storage.RunRecord) string {
	if len(runs) == 0 {
		return "No runs recorded"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Recent Runs\n"))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}

	for _, run := range runs {
		timeStr := run.CreatedAt.Format("2006-01-02 15:04")
		draft := Truncate(strings.ReplaceAll(run.DraftPrompt, "\n", " "), 40)

		if r.pretty {
			fmt.Fprintf(&sb, "%s %s %s  %s, %d rejections, %s\n",
				color.GreenString("✓"),
				color.HiBlackString(timeStr),
				draft,
				run.Backend,
				run.Rejections,
				domain.FormatCost(run.Usage.CostUSD))
		} else {
			fmt.Fprintf(&sb, "[%s] %s  %s, %d rejections, %s\n",
				timeStr, draft, run.Backend, run.Rejections, domain.FormatCost(run.Usage.CostUSD))
		}
	}

	return sb.String()
}

// Steps formats the fixed stage order for the steps command.
func (r *Renderer) Steps() string {
	var sb strings.Builder

	for i, step := range domain.AnalysisSteps() {
		if r.pretty {
			fmt.Fprintf(&sb, "%2d. %s %s\n", i+1, step.Label(), color.HiBlackString("(%s)", string(step)))
		} else {
			fmt.Fprintf(&sb, "%2d. %s (%s)\n", i+1, step.Label(), string(step))
		}
	}

	harmonize := "then: Harmonization → Final Output"
	if r.pretty {
		sb.WriteString(color.HiBlackString(harmonize) + "\n")
	} else {
		sb.WriteString(harmonize + "\n")
	}
	return sb.String()
}
