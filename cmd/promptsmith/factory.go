package main

import (
	"github.com/spf13/cobra"

	"github.com/joss/promptsmith/internal/logging"
)

// CommandFunc defines the function signature for command execution.
type CommandFunc func(cmd *cobra.Command, args []string) error

// CommandConfig holds configuration for creating standardized commands.
type CommandConfig struct {
	Use     string
	Short   string
	Long    string
	Args    cobra.PositionalArgs
	Action  string
	RunFunc CommandFunc
	Example string
	Aliases []string
}

// newCommand creates a standardized Cobra command with panic recovery
// and structured logging around the run function.
func newCommand(cfg CommandConfig) *cobra.Command {
	return &cobra.Command{
		Use:     cfg.Use,
		Short:   cfg.Short,
		Long:    cfg.Long,
		Args:    cfg.Args,
		Example: cfg.Example,
		Aliases: cfg.Aliases,
		Run: func(cmd *cobra.Command, args []string) {
			log := logging.New("cli")
			recovery := logging.NewRecoveryHandler("cli." + cfg.Action)

			err := recovery.WrapError(func() error {
				return cfg.RunFunc(cmd, args)
			})
			if err != nil {
				log.Error(cfg.Action, nil, err)
				exitOnError(err)
			}
		},
	}
}
