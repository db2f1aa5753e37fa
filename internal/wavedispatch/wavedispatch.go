// Package wavedispatch runs the tasks of a single wave concurrently
// under a semaphore-bounded cap, grounded on the teacher's
// internal/executor/wave.go WaveExecutor.executeWave shape: a semaphore
// channel, a sync.WaitGroup, a results channel, and a cancellation-aware
// acquire loop (spec.md §4.4).
package wavedispatch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/worldmind/orchestrator/internal/dispatch"
	"github.com/worldmind/orchestrator/internal/models"
)

// retryContextHeader marks the single-consumer read of a mission's
// pending retry context (spec.md §4.4).
const retryContextHeader = "## Retry Context (from previous attempt)"

// WorktreeAcquirer abstracts per-task worktree isolation (spec.md §4.4):
// when enabled, the first wave creates a shared mission workspace from
// the git remote; subsequent waves acquire a per-task worktree.
type WorktreeAcquirer interface {
	AcquireShared(ctx context.Context, gitRemoteURL string) (path string, err error)
	AcquireTask(ctx context.Context, taskID string) (path string, err error)
	CommitAndPush(ctx context.Context, path, taskID string) error
}

// Dispatch runs every task in wave concurrently, bounded by a semaphore
// of size maxParallel. Within one task: serial; across tasks in the
// wave: no ordering, only a join before returning.
//
// retryContext, if non-empty, is appended to the input context of every
// task in the wave under a fixed header — this is the single-consumer
// read of the mission's retry context; the caller clears it from mission
// state after Dispatch returns.
func Dispatch(
	ctx context.Context,
	d dispatch.Dispatcher,
	mission *models.Mission,
	wave []string,
	retryContext string,
	maxParallel int,
	worktrees WorktreeAcquirer,
	worktreesEnabled bool,
	isFirstWave bool,
) []models.WaveDispatchResult {
	sem := make(chan struct{}, maxParallel)
	results := make(chan models.WaveDispatchResult, len(wave))

	var wg sync.WaitGroup
	for _, taskID := range wave {
		task := mission.TaskByID(taskID)
		if task == nil {
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results <- partialResult(*task)
			continue
		}

		wg.Add(1)
		go func(task models.Task) {
			defer wg.Done()
			defer func() { <-sem }()

			results <- dispatchOne(ctx, d, mission, task, retryContext, worktrees, worktreesEnabled, isFirstWave)
		}(*task)
	}

	wg.Wait()
	close(results)

	out := make([]models.WaveDispatchResult, 0, len(wave))
	for r := range results {
		out = append(out, r)
	}
	return out
}

func dispatchOne(
	ctx context.Context,
	d dispatch.Dispatcher,
	mission *models.Mission,
	task models.Task,
	retryContext string,
	worktrees WorktreeAcquirer,
	worktreesEnabled bool,
	isFirstWave bool,
) models.WaveDispatchResult {
	start := time.Now()

	inputContext := task.InputContext
	if retryContext != "" {
		inputContext = inputContext + "\n\n" + retryContextHeader + "\n" + retryContext
	}

	projectPath := mission.ProjectPath
	if worktrees != nil && worktreesEnabled {
		var path string
		var err error
		if isFirstWave {
			path, err = worktrees.AcquireShared(ctx, mission.GitRemoteURL)
		} else {
			path, err = worktrees.AcquireTask(ctx, task.ID)
		}
		if err == nil && path != "" {
			projectPath = path
		}
	}

	req := dispatch.Request{
		Task:           task,
		ProjectContext: strings.TrimSpace(inputContext),
		ProjectPath:    projectPath,
		GitRemoteURL:   mission.GitRemoteURL,
		RuntimeTag:     mission.RuntimeTag,
		ReasoningLevel: mission.ReasoningLevel,
	}

	result, err := d.Execute(ctx, req)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return models.WaveDispatchResult{
			TaskID:    task.ID,
			Status:    models.TaskFailed,
			RawOutput: result.RawOutput,
			ElapsedMS: elapsed,
		}
	}

	if worktrees != nil && worktreesEnabled && result.Task.Status != models.TaskFailed {
		_ = worktrees.CommitAndPush(ctx, req.ProjectPath, task.ID)
	}

	return models.WaveDispatchResult{
		TaskID:        task.ID,
		Status:        result.Task.Status,
		FilesAffected: result.Task.FilesAffected,
		RawOutput:     result.RawOutput,
		ElapsedMS:     elapsed,
	}
}

func partialResult(task models.Task) models.WaveDispatchResult {
	return models.WaveDispatchResult{
		TaskID: task.ID,
		Status: models.TaskFailed,
	}
}
