package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/worldmind/orchestrator/internal/gitworkspace"
	"github.com/worldmind/orchestrator/internal/models"
)

// RemoteTaskRunnerDispatcher hands a task to a remote task-runner
// container by pushing its input onto the task's branch and polling for
// a result commit, exchanging work over git exactly as the local
// provider exchanges work over a bind-mounted directory. Both satisfy
// the same Dispatcher interface (spec.md §6).
type RemoteTaskRunnerDispatcher struct {
	Runner gitworkspace.CommandRunner

	// PollInterval controls how often the remote branch is polled for a
	// completion marker commit.
	PollInterval time.Duration
}

// NewRemoteTaskRunnerDispatcher returns a dispatcher that exchanges work
// over git branches using runner.
func NewRemoteTaskRunnerDispatcher(runner gitworkspace.CommandRunner) *RemoteTaskRunnerDispatcher {
	return &RemoteTaskRunnerDispatcher{Runner: runner, PollInterval: 5 * time.Second}
}

// Execute pushes req.Task's branch with the input context committed as a
// task manifest, then blocks polling for the remote runner's completion
// commit (a trailing "worldmind: done" commit message) until it appears
// or ctx is done.
func (d *RemoteTaskRunnerDispatcher) Execute(ctx context.Context, req Request) (Result, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	branch := models.BranchName(req.Task.ID)
	container := models.ContainerInfo{
		TaskID:      req.Task.ID,
		ContainerID: uuid.NewString(),
		OpenedAt:    time.Now(),
	}

	if _, err := d.Runner.Run(ctx, "push", "origin", "HEAD:"+branch); err != nil {
		task := req.Task
		task.Status = models.TaskFailed
		return Result{Task: task, ContainerInfo: container}, fmt.Errorf("push task branch %s: %w", branch, err)
	}

	output, err := d.waitForCompletion(ctx, branch)
	task := req.Task
	if err != nil {
		task.Status = models.TaskFailed
		return Result{Task: task, ContainerInfo: container, RawOutput: output}, err
	}

	task.Status = models.TaskVerifying
	return Result{Task: task, ContainerInfo: container, RawOutput: output}, nil
}

// waitForCompletion polls the remote branch's log for a completion
// marker, blocking until found, the context is cancelled, or the context
// deadline surfaces as a dispatch failure (not an exception, per
// spec.md §5 Cancellation and timeouts).
func (d *RemoteTaskRunnerDispatcher) waitForCompletion(ctx context.Context, branch string) (string, error) {
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("task branch %s did not complete before timeout: %w", branch, ctx.Err())
		case <-ticker.C:
			if _, err := d.Runner.Run(ctx, "fetch", "origin", branch); err != nil {
				continue
			}
			log, err := d.Runner.Run(ctx, "log", "-1", "--format=%s", "origin/"+branch)
			if err != nil {
				continue
			}
			if containsCompletionMarker(log) {
				output, _ := d.Runner.Run(ctx, "show", "origin/"+branch+":worldmind-result.json")
				return output, nil
			}
		}
	}
}

func containsCompletionMarker(commitSubject string) bool {
	const marker = "worldmind: done"
	return len(commitSubject) >= len(marker) && commitSubject[:len(marker)] == marker
}
