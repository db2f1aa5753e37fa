package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/worldmind/orchestrator/internal/missionstore"
)

// NewStatusCommand creates the `status` subcommand: print a persisted
// mission's state as JSON, or list all persisted mission ids.
func NewStatusCommand() *cobra.Command {
	var missionsDir string

	cmd := &cobra.Command{
		Use:   "status [mission-id]",
		Short: "Print a mission's persisted state",
		Long: `Status prints the JSON state of one persisted mission, or, with no
argument, lists every persisted mission id, most recently updated first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := missionstore.New(missionsDir)

			if len(args) == 0 {
				ids, err := store.List()
				if err != nil {
					return fmt.Errorf("list missions: %w", err)
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no persisted missions found")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}

			mission, err := store.Load(args[0])
			if err != nil {
				return fmt.Errorf("load mission: %w", err)
			}

			data, err := json.MarshalIndent(mission, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal mission: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&missionsDir, "missions-dir", "", "Directory missions are persisted under (default: .worldmind/missions)")

	return cmd
}
