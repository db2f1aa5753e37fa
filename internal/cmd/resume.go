package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/worldmind/orchestrator/internal/gitworkspace"
	"github.com/worldmind/orchestrator/internal/missionstore"
	"github.com/worldmind/orchestrator/internal/models"
)

// NewResumeCommand creates the `resume` subcommand: re-enter the stage
// driver for a persisted mission, optionally supplying the clarifying
// answers or approval it is paused on.
func NewResumeCommand() *cobra.Command {
	var (
		configPath   string
		agentPath    string
		projectPath  string
		gitRemoteURL string
		missionsDir  string
		answers      string
		approve      bool
	)

	cmd := &cobra.Command{
		Use:   "resume <mission-id>",
		Short: "Re-enter the stage driver for a persisted mission",
		Long: `Resume loads a mission previously paused by "worldmind run" at
clarifying questions or approval, applies any supplied answers/approval,
and continues driving it until the next pause point or a terminal status.

Examples:
  worldmind resume a1b2c3 --answers "JWT bearer tokens|yes, add refresh too"
  worldmind resume a1b2c3 --approve`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			missionID := args[0]

			cfg, err := loadConfigOrDefault(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store := missionstore.New(missionsDir)
			mission, err := store.Load(missionID)
			if err != nil {
				return fmt.Errorf("load mission: %w", err)
			}

			switch mission.Status {
			case models.MissionClarifying:
				if answers == "" {
					return fmt.Errorf("mission %s is awaiting clarifying answers; pass --answers", missionID)
				}
				mission.UserAnswers = strings.Split(answers, "|")
				mission.Status = models.MissionSpecifying

			case models.MissionAwaitingApproval:
				if !approve {
					return fmt.Errorf("mission %s is awaiting approval; pass --approve", missionID)
				}
				mission.Status = models.MissionExecuting

			case models.MissionCompleted, models.MissionFailed:
				return printMissionOutcome(cmd, mission)
			}

			if gitRemoteURL != "" {
				mission.GitRemoteURL = gitRemoteURL
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
	cmd.Flags().StringVar(&answers, "answers", "", "Pipe-separated answers to the mission's clarifying questions")
	cmd.Flags().BoolVar(&approve, "approve", false, "Approve the mission's planned tasks for execution")

	return cmd
}
