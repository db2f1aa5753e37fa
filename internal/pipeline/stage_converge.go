package pipeline

import (
	"context"

	"github.com/worldmind/orchestrator/internal/models"
)

// converge computes the final MissionMetrics and derives the terminal
// status (spec.md §4.9): failed if an earlier stage already set it,
// completed if at least one task passed or the task list is empty,
// otherwise failed.
//
// totalDurationMs is approximated as the sum of per-task elapsed-ms
// (AggregateTaskElapsed), since this implementation does not track a
// container-close timestamp distinct from the dispatch-result's elapsed
// measurement — see DESIGN.md.
func (d *Driver) converge(mission *models.Mission) {
	metrics := &models.MissionMetrics{}

	for _, t := range mission.Tasks {
		switch t.Status {
		case models.TaskPassed:
			metrics.TasksCompleted++
		case models.TaskFailed:
			metrics.TasksFailed++
		}
		metrics.TotalIterations += t.Iteration

		for _, fc := range t.FilesAffected {
			switch fc.Action {
			case models.FileCreated:
				metrics.FilesCreated++
			case models.FileModified:
				metrics.FilesModified++
			}
		}
	}

	for _, tr := range mission.TestResults {
		metrics.TestsRun += tr.TotalTests
		metrics.TestsPassed += tr.TotalTests - tr.FailedTests
	}

	for _, r := range mission.DispatchResults {
		metrics.AggregateTaskElapsed += r.ElapsedMS
	}
	metrics.TotalDurationMS = metrics.AggregateTaskElapsed
	metrics.WavesExecuted = mission.CurrentWave

	mission.Metrics = metrics

	if mission.Status == models.MissionFailed {
		return
	}
	if metrics.TasksCompleted > 0 || len(mission.Tasks) == 0 {
		mission.Status = models.MissionCompleted
	} else {
		mission.Status = models.MissionFailed
	}
}

// postMissionSystemPrompt is the fixed system prompt for the best-effort
// completion-summary call (spec.md §6: post-mission is one of the stages
// allowed to use the structured-call interface).
const postMissionSystemPrompt = `You write a one-paragraph plain-text summary of a completed engineering mission for a human operator. Be concise and factual.`

const postMissionSchema = `{"type":"object","properties":{"summary":{"type":"string"}},"required":["summary"]}`

// postMission produces a best-effort completion summary. Never fatal:
// an error here is swallowed, matching the "create a pull request"
// post-mission action being explicitly out of scope — this summary is
// a much smaller substitute that still exercises the structured-call
// interface post-mission stages are allowed to use.
func (d *Driver) postMission(ctx context.Context, mission *models.Mission) {
	if d.Caller == nil || mission.Summary != "" {
		return
	}
	prompt := "Mission request: " + mission.Request + "\nFinal status: " + mission.Status
	result, err := d.Caller.StructuredCall(ctx, postMissionSystemPrompt, prompt, postMissionSchema)
	if err != nil {
		return
	}

	var parsed struct {
		Summary string `json:"summary"`
	}
	if tryUnmarshalJSON(result, &parsed) {
		mission.Summary = parsed.Summary
	}
}
