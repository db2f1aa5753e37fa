package pipeline

import (
	"context"
	"fmt"

	"github.com/worldmind/orchestrator/internal/llmclient"
	"github.com/worldmind/orchestrator/internal/models"
)

// planMission invokes the planner, runs its output through the
// deterministic post-processors, and advances to awaiting_approval.
// Idempotent: a non-empty task list is left untouched.
func (d *Driver) planMission(ctx context.Context, mission *models.Mission) error {
	if len(mission.Tasks) == 0 {
		out, err := llmclient.Plan(ctx, d.Caller, mission.Request, mission.Classification, mission.ProjectContext, mission.Spec)
		if err != nil {
			return err
		}

		wantsDeployment := false
		if d.WantsDeployment != nil {
			wantsDeployment = d.WantsDeployment(mission.Request)
		}

		tasks := PostProcessPlan(out, mission.Request, wantsDeployment)
		if models.HasCyclicDependencies(tasks) {
			return fmt.Errorf("planner produced a cyclic task graph")
		}

		mission.Tasks = tasks
		mission.ExecutionStrategy = resolveStrategy(out.ExecutionStrategy, mission.Classification)
	}

	mission.Status = models.MissionAwaitingApproval
	return nil
}

// resolveStrategy maps the planner's free-form strategy recommendation
// onto the closed enum, falling back to the classifier's hint and then
// to sequential (spec.md §3 Execution strategy).
func resolveStrategy(recommended string, classification *models.Classification) string {
	switch recommended {
	case models.StrategySequential, models.StrategyParallel:
		return recommended
	}
	if classification != nil {
		switch classification.PlanningStrategy {
		case models.StrategySequential, models.StrategyParallel:
			return classification.PlanningStrategy
		}
	}
	return models.StrategySequential
}
