package pipeline

import (
	"context"

	"github.com/worldmind/orchestrator/internal/events"
	"github.com/worldmind/orchestrator/internal/metrics"
	"github.com/worldmind/orchestrator/internal/models"
	"github.com/worldmind/orchestrator/internal/scheduler"
	"github.com/worldmind/orchestrator/internal/wavedispatch"
)

// waveStep runs one iteration of the schedule-wave / dispatch-wave /
// evaluate-wave loop (spec.md §4.3-§4.7). Returns done=true when the
// scheduler returns an empty wave or the mission has been marked failed
// — either signals the wave loop in Run to stop and run convergence.
func (d *Driver) waveStep(ctx context.Context, mission *models.Mission) (bool, error) {
	wave := scheduler.NextWave(mission.Tasks, mission.CompletedIDs, mission.ExecutionStrategy, d.Config.MaxParallel)
	if len(wave) == 0 {
		return true, nil
	}

	isFirstWave := mission.CurrentWave == 0
	mission.CurrentWave++
	metrics.WaveSize.Observe(float64(len(wave)))

	for _, id := range wave {
		d.Bus.Publish(events.TaskEvent(events.TaskStarted, mission.ID, id, nil))
	}

	retryContext := mission.RetryContext
	mission.RetryContext = "" // single-consumer: cleared before this dispatch reads it

	results := wavedispatch.Dispatch(ctx, d.Dispatcher, mission, wave, retryContext, d.Config.MaxParallel, d.Worktrees, d.Config.WorktreesEnabled, isFirstWave)

	for _, r := range results {
		evt := events.TaskFulfilled
		status := "passed"
		if r.Status == models.TaskFailed {
			evt = events.TaskFailed
			status = "failed"
		}
		d.Bus.Publish(events.TaskEvent(evt, mission.ID, r.TaskID, map[string]interface{}{"status": r.Status}))

		role := "unknown"
		if task := mission.TaskByID(r.TaskID); task != nil {
			role = task.AgentRole
			metrics.TaskIterations.WithLabelValues(role).Observe(float64(task.Iteration))
		}
		metrics.TasksTotal.WithLabelValues(role, status).Inc()
		metrics.TaskDuration.WithLabelValues(role).Observe(float64(r.ElapsedMS) / 1000)
	}

	outcome := d.Evaluator.EvaluateWave(ctx, mission, results)
	if outcome.Escalated {
		metrics.WavesTotal.WithLabelValues("escalated").Inc()
	} else {
		metrics.WavesTotal.WithLabelValues("completed").Inc()
	}

	if len(outcome.Merged) > 0 {
		d.Bus.Publish(events.MissionEvent(events.WaveMerged, mission.ID, map[string]interface{}{
			"wave":   mission.CurrentWave,
			"merged": outcome.Merged,
		}))
	}
	d.Bus.Publish(events.MissionEvent(events.WaveCompleted, mission.ID, map[string]interface{}{
		"wave":       mission.CurrentWave,
		"merged":     outcome.Merged,
		"conflicted": outcome.Conflicted,
	}))

	if outcome.Escalated || mission.Status == models.MissionFailed {
		return true, nil
	}
	return false, nil
}
