package gitworkspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner is a fakeRunner variant that also simulates the
// filesystem side effects real git commands would have (clone/worktree
// add create a directory), since WorktreeManager checks os.Stat to
// decide whether work is already done.
type scriptedRunner struct {
	fakeRunner
	dir string
}

func (r *scriptedRunner) Run(ctx context.Context, args ...string) (string, error) {
	out, err := r.fakeRunner.Run(ctx, args...)
	if err != nil {
		return out, err
	}
	if len(args) > 0 && (args[0] == "clone" || args[0] == "worktree") {
		var target string
		switch args[0] {
		case "clone":
			target = filepath.Join(r.dir, args[len(args)-1])
		case "worktree":
			target = args[3] // "worktree" "add" "-B" <branch> <path> ...
		}
		_ = os.MkdirAll(target, 0755)
	}
	return out, nil
}

func newTestManager(t *testing.T, runner CommandRunner) *WorktreeManager {
	base := t.TempDir()
	return &WorktreeManager{
		BaseDir:   base,
		RunnerFor: func(string) CommandRunner { return runner },
	}
}

func TestAcquireShared_ClonesOnce(t *testing.T) {
	base := t.TempDir()
	sr := &scriptedRunner{dir: base}
	m := &WorktreeManager{BaseDir: base, RunnerFor: func(string) CommandRunner { return sr }}

	path1, err := m.AcquireShared(context.Background(), "git@example.com/repo.git")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "shared"), path1)

	path2, err := m.AcquireShared(context.Background(), "git@example.com/repo.git")
	require.NoError(t, err)
	assert.Equal(t, path1, path2)

	cloneCalls := 0
	for _, call := range sr.calls {
		if call[0] == "clone" {
			cloneCalls++
		}
	}
	assert.Equal(t, 1, cloneCalls)
}

func TestAcquireTask_RequiresSharedFirst(t *testing.T) {
	m := newTestManager(t, &fakeRunner{})
	_, err := m.AcquireTask(context.Background(), "TASK-001")
	assert.Error(t, err)
}

func TestAcquireTask_AddsWorktreeOnce(t *testing.T) {
	base := t.TempDir()
	sr := &scriptedRunner{dir: base}
	m := &WorktreeManager{BaseDir: base, RunnerFor: func(string) CommandRunner { return sr }}

	_, err := m.AcquireShared(context.Background(), "git@example.com/repo.git")
	require.NoError(t, err)

	path, err := m.AcquireTask(context.Background(), "TASK-001")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "TASK-001"), path)

	path2, err := m.AcquireTask(context.Background(), "TASK-001")
	require.NoError(t, err)
	assert.Equal(t, path, path2)

	addCalls := 0
	for _, call := range sr.calls {
		if len(call) > 0 && call[0] == "worktree" {
			addCalls++
		}
	}
	assert.Equal(t, 1, addCalls)
}

func TestCommitAndPush_RunsAddCommitPush(t *testing.T) {
	runner := &fakeRunner{}
	m := newTestManager(t, runner)

	err := m.CommitAndPush(context.Background(), t.TempDir(), "TASK-001")
	require.NoError(t, err)

	require.Len(t, runner.calls, 3)
	assert.Equal(t, "add", runner.calls[0][0])
	assert.Equal(t, "commit", runner.calls[1][0])
	assert.Equal(t, "push", runner.calls[2][0])
	assert.Equal(t, "origin", runner.calls[2][1])
	assert.Equal(t, "HEAD:worldmind/TASK-001", runner.calls[2][2])
}

func TestCommitAndPush_PropagatesFailure(t *testing.T) {
	runner := &fakeRunner{failOn: func(args []string) bool {
		return len(args) > 0 && args[0] == "push"
	}}
	m := newTestManager(t, runner)

	err := m.CommitAndPush(context.Background(), t.TempDir(), "TASK-001")
	assert.Error(t, err)
}
