package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for worldmind.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worldmind",
		Short: "Natural-language-to-shipped-code orchestrator",
		Long: `Worldmind turns a natural-language engineering request into working code.

It classifies the request, drafts a product spec, plans a task graph,
then dispatches tasks in dependency waves to coding agents, merging each
wave's passed tasks onto main before the next wave starts.`,
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewResumeCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewConfigCommand())
	cmd.AddCommand(NewBudgetCommand())

	return cmd
}
