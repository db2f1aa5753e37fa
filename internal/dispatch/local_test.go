package dispatch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldmind/orchestrator/internal/models"
)

func TestNewLocalContainerDispatcher_DefaultsAgentPath(t *testing.T) {
	d := NewLocalContainerDispatcher("")
	assert.Equal(t, "claude", d.AgentPath)
}

func TestNewLocalContainerDispatcher_KeepsExplicitAgentPath(t *testing.T) {
	d := NewLocalContainerDispatcher("/usr/local/bin/mytool")
	assert.Equal(t, "/usr/local/bin/mytool", d.AgentPath)
}

func TestLocalContainerDispatcher_Execute_Success(t *testing.T) {
	d := NewLocalContainerDispatcher("/bin/echo")

	req := Request{
		Task:        models.Task{ID: "TASK-001", AgentRole: models.RoleCoder, Description: "add a handler"},
		ProjectPath: t.TempDir(),
		Timeout:     time.Second,
	}

	result, err := d.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.TaskVerifying, result.Task.Status)
	assert.Equal(t, "TASK-001", result.ContainerInfo.TaskID)
	assert.NotEmpty(t, result.ContainerInfo.ContainerID)
	assert.Contains(t, result.RawOutput, "add a handler")
	assert.Contains(t, result.RawOutput, "--output-format json")
}

func TestLocalContainerDispatcher_Execute_FailureMarksTaskFailed(t *testing.T) {
	d := NewLocalContainerDispatcher("/bin/does-not-exist-anywhere")

	req := Request{
		Task:        models.Task{ID: "TASK-002", AgentRole: models.RoleCoder, Description: "add a handler"},
		ProjectPath: t.TempDir(),
	}

	result, err := d.Execute(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, models.TaskFailed, result.Task.Status)
}

func TestLocalContainerDispatcher_Execute_RespectsTimeout(t *testing.T) {
	d := NewLocalContainerDispatcher("/bin/sleep")

	req := Request{
		Task:        models.Task{ID: "TASK-003", AgentRole: models.RoleCoder, Description: "1"},
		ProjectPath: t.TempDir(),
		Timeout:     10 * time.Millisecond,
	}

	result, err := d.Execute(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, models.TaskFailed, result.Task.Status)
}

func TestBuildAgentPrompt_PrefersInputContextOverDescription(t *testing.T) {
	req := Request{Task: models.Task{InputContext: "use the context", Description: "fallback description"}}
	assert.Equal(t, "use the context", buildAgentPrompt(req))
}

func TestBuildAgentPrompt_FallsBackToDescription(t *testing.T) {
	req := Request{Task: models.Task{Description: "fallback description"}}
	assert.Equal(t, "fallback description", buildAgentPrompt(req))
}

func TestBuildAgentPrompt_PrependsProjectContext(t *testing.T) {
	req := Request{
		Task:           models.Task{Description: "add a handler"},
		ProjectContext: "this is a Go web service",
	}
	got := buildAgentPrompt(req)
	assert.True(t, strings.HasPrefix(got, "this is a Go web service"))
	assert.Contains(t, got, "add a handler")
}

func TestAgentSystemPrompt_NamesTheRole(t *testing.T) {
	assert.Contains(t, agentSystemPrompt(models.RoleReviewer), "reviewer")
	assert.Contains(t, agentSystemPrompt(models.RoleReviewer), "valid JSON")
}
