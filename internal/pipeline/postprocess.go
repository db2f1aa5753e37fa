package pipeline

import (
	"fmt"

	"github.com/worldmind/orchestrator/internal/llmclient"
	"github.com/worldmind/orchestrator/internal/models"
)

// PostProcessPlan runs the planner's raw output through the three
// deterministic post-processors, in this exact order (spec.md §4.2):
// convert plans to tasks, ensure an implementation task exists, then
// recompute dependencies by agent-role type.
func PostProcessPlan(out *llmclient.PlannerOutput, request string, wantsDeployment bool) []models.Task {
	tasks := convertPlansToTasks(out.Tasks)
	tasks = ensureImplementationTask(tasks, request)
	tasks = assignTypeDependencies(tasks)

	if wantsDeployment {
		tasks = appendDeploymentTask(tasks)
	}

	return tasks
}

// convertPlansToTasks assigns sequential zero-padded ids; fields are
// copied verbatim; iteration 0; default max-iterations; failure strategy
// retry.
func convertPlansToTasks(plans []models.TaskPlan) []models.Task {
	tasks := make([]models.Task, 0, len(plans))
	for i, p := range plans {
		tasks = append(tasks, models.Task{
			ID:              models.TaskID(i + 1),
			AgentRole:       p.AgentRole,
			Description:     p.Description,
			InputContext:    p.InputContext,
			SuccessCriteria: p.SuccessCriteria,
			TargetFiles:     p.TargetFiles,
			Status:          models.TaskPending,
			Iteration:       0,
			MaxIterations:   models.DefaultMaxIterations,
			FailureStrategy: models.FailureRetry,
		})
	}
	return tasks
}

// ensureImplementationTask appends a default coder task if no task has
// agent role coder or refactorer. Insertion point: before any trailing
// reviewer task if present, else at the end. The new task's id continues
// the sequence.
func ensureImplementationTask(tasks []models.Task, request string) []models.Task {
	for _, t := range tasks {
		if t.IsCoderLike() {
			return tasks
		}
	}

	defaultTask := models.Task{
		ID:              models.TaskID(len(tasks) + 1),
		AgentRole:       models.RoleCoder,
		Description:     fmt.Sprintf("Implement the requested changes: %s", request),
		Status:          models.TaskPending,
		MaxIterations:   models.DefaultMaxIterations,
		FailureStrategy: models.FailureRetry,
	}

	if len(tasks) > 0 && tasks[len(tasks)-1].AgentRole == models.RoleReviewer {
		insertAt := len(tasks) - 1
		out := make([]models.Task, 0, len(tasks)+1)
		out = append(out, tasks[:insertAt]...)
		out = append(out, defaultTask)
		out = append(out, tasks[insertAt:]...)
		return renumber(out)
	}

	return append(tasks, defaultTask)
}

// renumber reassigns sequential ids after an insertion, preserving order.
func renumber(tasks []models.Task) []models.Task {
	for i := range tasks {
		tasks[i].ID = models.TaskID(i + 1)
	}
	return tasks
}

// assignTypeDependencies discards the planner's dependency list and
// recomputes: coder|refactorer depend on all preceding researcher tasks;
// tester|reviewer depend on all preceding coder|refactorer tasks; all
// others have no dependencies.
func assignTypeDependencies(tasks []models.Task) []models.Task {
	var researchers, coders []string

	for i := range tasks {
		t := &tasks[i]
		switch t.AgentRole {
		case models.RoleCoder, models.RoleRefactorer:
			t.DependsOn = append([]string(nil), researchers...)
		case models.RoleTester, models.RoleReviewer:
			t.DependsOn = append([]string(nil), coders...)
		default:
			t.DependsOn = nil
		}

		switch t.AgentRole {
		case models.RoleResearcher:
			researchers = append(researchers, t.ID)
		case models.RoleCoder, models.RoleRefactorer:
			coders = append(coders, t.ID)
		}
	}
	return tasks
}

// appendDeploymentTask appends a final coder task depending on all
// coder/refactorer tasks and targeting deployment config files, with
// failure strategy skip (spec.md §4.2).
func appendDeploymentTask(tasks []models.Task) []models.Task {
	var coders []string
	for _, t := range tasks {
		if t.IsCoderLike() {
			coders = append(coders, t.ID)
		}
	}

	deployTask := models.Task{
		ID:              models.TaskID(len(tasks) + 1),
		AgentRole:       models.RoleDeployer,
		Description:     "Prepare and apply deployment configuration",
		DependsOn:       coders,
		TargetFiles:     []string{"deploy/manifest.yaml"},
		Status:          models.TaskPending,
		MaxIterations:   models.DefaultMaxIterations,
		FailureStrategy: models.FailureSkip,
	}
	return append(tasks, deployTask)
}
