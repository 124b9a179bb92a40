// Package main provides the promptsmith CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joss/promptsmith/internal/backend"
	"github.com/joss/promptsmith/internal/config"
	"github.com/joss/promptsmith/internal/domain"
	"github.com/joss/promptsmith/internal/engine"
	"github.com/joss/promptsmith/internal/logging"
	"github.com/joss/promptsmith/internal/prompts"
	"github.com/joss/promptsmith/internal/render"
	"github.com/joss/promptsmith/internal/storage"
	"github.com/joss/promptsmith/internal/tui"
)

var version = "0.1.0"

var (
	flagBackend string
	flagModel   string
	flagPlain   bool
	flagNoSave  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "promptsmith [draft prompt]",
		Short: "Interactive prompt optimizer",
		Long: `promptsmith refines a rough prompt through a fixed sequence of
analysis stages. Each stage proposes a candidate which you accept or
reject with feedback; accepted results are harmonized into a final
optimized prompt.

Usage modes:
  promptsmith "draft prompt"   Optimize the given draft
  promptsmith                  Prompt for the draft interactively
  promptsmith <command>        Run a subcommand (see below)

Backends: mock (default, offline), anthropic, openai.`,
		Args: cobra.ArbitraryArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := config.LoadEnvFile(config.GetPaths().EnvFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not read env file: %v\n", err)
			}
			if config.Env().NoColor {
				color.NoColor = true
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			recovery := logging.NewRecoveryHandler("cli.optimize")
			err := recovery.WrapError(func() error {
				return runOptimize(cmd.Context(), args)
			})
			if err != nil {
				if err == errAborted {
					fmt.Fprintln(os.Stderr, "Aborted.")
					os.Exit(130)
				}
				exitOnError(err)
			}
		},
	}

	rootCmd.Flags().StringVarP(&flagBackend, "backend", "b", "", "Generation backend (mock, anthropic, openai)")
	rootCmd.Flags().StringVarP(&flagModel, "model", "m", "", "Model override for the backend")
	rootCmd.Flags().BoolVar(&flagPlain, "plain", false, "Line mode, no TUI")
	rootCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Skip recording the run in the ledger")

	rootCmd.AddCommand(stepsCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(usageCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runOptimize drives one optimization run end to end.
func runOptimize(ctx context.Context, args []string) error {
	log := logging.New("cli")

	draft, err := readDraft(args)
	if err != nil {
		return err
	}

	back, err := buildBackend(flagBackend, flagModel)
	if err != nil {
		return err
	}

	pm := prompts.NewManager()
	if err := pm.LoadOverrides(config.GetPaths().Templates); err != nil {
		log.Warn("load_overrides", nil, err)
	}

	eng := engine.New(pm, back)
	harm := engine.NewHarmonizer(pm, back)
	session := domain.NewSession(draft)

	plain := flagPlain || config.Env().Plain || !isTTY()
	rend := render.New(!plain && !config.Env().NoColor)

	log.Info("run_start", map[string]interface{}{
		"session": session.ID,
		"backend": back.ID(),
		"plain":   plain,
	})

	var rejections int
	if plain {
		rejections, err = runPlain(ctx, eng, harm, back, session, rend, os.Stdin, os.Stdout)
	} else {
		// Keep JSON events off the interactive screen.
		restore := redirectLogs()
		var model tui.Model
		model, err = tui.Run(ctx, eng, harm, back, session)
		restore()
		rejections = model.Rejections()
		if err == nil && session.IsComplete() {
			fmt.Print(rend.FinalOutput(session.FinalOutput()))
			fmt.Println(rend.Usage(back.TokenUsage()))
		}
	}
	if err != nil {
		return err
	}
	if !session.IsComplete() {
		return errAborted
	}

	if !flagNoSave {
		if err := recordRun(ctx, session, back, rejections); err != nil {
			log.Warn("ledger_record", map[string]interface{}{"session": session.ID}, err)
		}
	}

	log.Info("run_done", map[string]interface{}{
		"session":    session.ID,
		"rejections": rejections,
		"cost_usd":   back.TokenUsage().CostUSD,
	})
	return nil
}

// recordRun writes one ledger row for a finished run.
func recordRun(ctx context.Context, session *domain.Session, back backend.Backend, rejections int) error {
	ledger, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	accepted := 0
	for _, step := range domain.AnalysisSteps() {
		if session.Completed(step) {
			accepted++
		}
	}

	return ledger.Record(ctx, &storage.RunRecord{
		ID:            uuid.NewString(),
		SessionID:     session.ID,
		DraftPrompt:   session.DraftPrompt(),
		FinalOutput:   session.FinalOutput(),
		Backend:       back.ID(),
		Model:         flagModel,
		AcceptedSteps: accepted,
		Rejections:    rejections,
		Usage:         back.TokenUsage(),
	})
}

func stepsCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:    "steps",
		Short:  "List the optimization stages in order",
		Args:   cobra.NoArgs,
		Action: "steps",
		RunFunc: func(cmd *cobra.Command, args []string) error {
			rend := render.New(isTTY() && !config.Env().NoColor)
			fmt.Print(rend.Steps())
			return nil
		},
	})
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := newCommand(CommandConfig{
		Use:     "history",
		Short:   "Show recent optimization runs",
		Args:    cobra.NoArgs,
		Action:  "history",
		Aliases: []string{"runs"},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			ledger, err := openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			runs, err := ledger.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			rend := render.New(isTTY() && !config.Env().NoColor)
			fmt.Print(rend.Runs(runs))
			return nil
		},
	})
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func usageCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:    "usage",
		Short:  "Show accumulated token usage and cost across all runs",
		Args:   cobra.NoArgs,
		Action: "usage",
		RunFunc: func(cmd *cobra.Command, args []string) error {
			ledger, err := openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			totals, runs, err := ledger.Totals(cmd.Context())
			if err != nil {
				return err
			}

			w := render.Stdout()
			w.Println("Runs: %d", runs)
			w.Section("Token Usage")
			w.Item("prompt: %s", domain.FormatTokens(totals.PromptTokens))
			w.Item("completion: %s", domain.FormatTokens(totals.CompletionTokens))
			w.Item("cached: %s", domain.FormatTokens(totals.CachedTokens))
			w.Item("cost: %s", domain.FormatCost(totals.CostUSD))
			return nil
		},
	})
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the promptsmith version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("promptsmith %s\n", version)
		},
	}
}
