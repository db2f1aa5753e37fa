package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/worldmind/orchestrator/internal/display"
	"github.com/worldmind/orchestrator/internal/gitworkspace"
	"github.com/worldmind/orchestrator/internal/missionstore"
	"github.com/worldmind/orchestrator/internal/models"
)

// NewRunCommand creates the `run` subcommand: drive a mission end-to-end
// from a natural-language request string.
func NewRunCommand() *cobra.Command {
	var (
		configPath    string
		agentPath     string
		projectPath   string
		gitRemoteURL  string
		missionsDir   string
		worktreesFlag bool
	)

	cmd := &cobra.Command{
		Use:   "run [request]",
		Short: "Drive a mission end-to-end from a natural-language request",
		Long: `Run classifies the request, drafts a product spec, plans a task
graph, then dispatches tasks in dependency waves to coding agents,
merging each wave's passed tasks onto main before the next wave starts.

If the mission pauses for clarifying questions or approval, its state is
persisted; re-invoke with the printed mission id via "worldmind resume".

Examples:
  worldmind run "Add a GET /health endpoint that returns 200 ok"
  worldmind run --project ./myapp --git-remote git@example.com:org/myapp.git "Add auth"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOrDefault(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("worktrees") {
				cfg.WorktreesEnabled = worktreesFlag
			}

			store := missionstore.New(missionsDir)

			mission := &models.Mission{
				ID:           uuid.NewString(),
				Request:      args[0],
				Status:       models.MissionReceived,
				ProjectPath:  projectPath,
				GitRemoteURL: gitRemoteURL,
			}

			var worktrees *gitworkspace.WorktreeManager
			if cfg.WorktreesEnabled {
				worktrees = gitworkspace.NewWorktreeManager(".worldmind/worktrees/" + mission.ID)
			}

			drv, _ := buildDriver(cfg, agentPath, projectPath, worktrees)

			runErr := drv.Run(cmd.Context(), mission)
			if saveErr := store.Save(mission); saveErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to persist mission %s: %v\n", mission.ID, saveErr)
			}
			if runErr != nil {
				return fmt.Errorf("mission %s failed: %w", mission.ID, runErr)
			}

			return printMissionOutcome(cmd, mission)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: .worldmind/config.yaml)")
	cmd.Flags().StringVar(&agentPath, "agent-path", "", "Path to the coding-tool CLI binary (default: claude on PATH)")
	cmd.Flags().StringVar(&projectPath, "project", ".", "Path to the target project's bind-mounted working directory")
	cmd.Flags().StringVar(&gitRemoteURL, "git-remote", "", "Git remote URL worktrees are cloned from")
	cmd.Flags().StringVar(&missionsDir, "missions-dir", "", "Directory missions are persisted under (default: .worldmind/missions)")
	cmd.Flags().BoolVar(&worktreesFlag, "worktrees", false, "Enable per-task git worktree isolation")

	return cmd
}

// printMissionOutcome prints a mission's terminal status and, when it is
// paused on clarifying questions or approval, what the caller must supply
// to `worldmind resume` to continue it.
func printMissionOutcome(cmd *cobra.Command, mission *models.Mission) error {
	out := cmd.OutOrStdout()

	switch mission.Status {
	case models.MissionClarifying:
		fmt.Fprintf(out, "mission %s is awaiting answers to %d clarifying question(s):\n", mission.ID, len(mission.ClarifyingQuestions))
		for i, q := range mission.ClarifyingQuestions {
			fmt.Fprintf(out, "  %d. %s\n", i+1, q)
		}
		fmt.Fprintf(out, "\nResume with: worldmind resume %s --answers \"a1|a2|...\"\n", mission.ID)

	case models.MissionAwaitingApproval:
		fmt.Fprintf(out, "mission %s is awaiting approval of %d planned task(s).\n", mission.ID, len(mission.Tasks))
		for _, t := range mission.Tasks {
			fmt.Fprintf(out, "  - [%s] %s: %s\n", t.ID, t.AgentRole, t.Description)
		}
		fmt.Fprintf(out, "\nResume with: worldmind resume %s --approve\n", mission.ID)

	case models.MissionCompleted:
		fmt.Fprintf(out, "mission %s completed.\n", mission.ID)
		if mission.Summary != "" {
			fmt.Fprintln(out, strings.TrimSpace(mission.Summary))
		}

	case models.MissionFailed:
		display.Warning{
			Title:   fmt.Sprintf("Mission %s failed", mission.ID),
			Files:   mission.Errors,
			Message: "see the error(s) below for diagnosis",
		}.Display(out)

	default:
		data, _ := json.MarshalIndent(mission, "", "  ")
		fmt.Fprintln(out, string(data))
	}

	return nil
}
