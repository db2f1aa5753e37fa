// Package dispatch abstracts "run one task to completion and return its
// result and changed files" (spec.md §6 Dispatcher interface). Two
// concrete providers are supplied: local containers with bind-mounted
// workdirs, and remote task-runner containers that exchange work over
// git branches; both implement the same Dispatcher interface and are
// treated identically by the rest of the pipeline.
package dispatch

import (
	"context"
	"time"

	"github.com/worldmind/orchestrator/internal/models"
)

// Request is everything the dispatcher needs to run one task
// (spec.md §6: execute(task, project_context, project_path,
// git_remote_url, runtime_tag, reasoning_level)).
type Request struct {
	Task           models.Task
	ProjectContext string
	ProjectPath    string
	GitRemoteURL   string
	RuntimeTag     string
	ReasoningLevel string
	Timeout        time.Duration
}

// Result is the dispatcher's blocking response: the task with its
// observed status, a reference to the container that ran it, and the
// worker's raw output.
type Result struct {
	Task          models.Task
	ContainerInfo models.ContainerInfo
	RawOutput     string
}

// Dispatcher is the one operation consumed by the wave dispatcher and
// wave evaluator. Implementations must block until the task completes,
// fails, or exceeds its timeout; a timeout surfaces as a dispatch
// failure (Task.Status == models.TaskFailed), never as a panic or a
// process-level exception.
type Dispatcher interface {
	Execute(ctx context.Context, req Request) (Result, error)
}
