package gitworkspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/worldmind/orchestrator/internal/models"
)

// WorktreeManager implements wavedispatch.WorktreeAcquirer over real git
// worktrees rooted at BaseDir: one shared clone for the first wave (most
// tasks touch a common project state before any coder branches diverge),
// then one `git worktree add` per task branch for later waves, so
// concurrent coder tasks in the same wave never share a working tree.
type WorktreeManager struct {
	BaseDir string

	// RunnerFor builds the CommandRunner used for a given directory.
	// Defaults to a ShellGitRunner; tests substitute a fake.
	RunnerFor func(dir string) CommandRunner

	mu         sync.Mutex
	sharedPath string
}

// NewWorktreeManager returns a WorktreeManager rooted at baseDir.
func NewWorktreeManager(baseDir string) *WorktreeManager {
	return &WorktreeManager{
		BaseDir:   baseDir,
		RunnerFor: func(dir string) CommandRunner { return NewShellGitRunner(dir) },
	}
}

func (m *WorktreeManager) runner(dir string) CommandRunner {
	if m.RunnerFor != nil {
		return m.RunnerFor(dir)
	}
	return NewShellGitRunner(dir)
}

// AcquireShared clones gitRemoteURL into BaseDir/shared once and returns
// its path on every subsequent call.
func (m *WorktreeManager) AcquireShared(ctx context.Context, gitRemoteURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sharedPath != "" {
		return m.sharedPath, nil
	}

	path := filepath.Join(m.BaseDir, "shared")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(m.BaseDir, 0755); err != nil {
			return "", fmt.Errorf("create worktree base dir: %w", err)
		}
		runner := m.runner(m.BaseDir)
		if _, err := runner.Run(ctx, "clone", gitRemoteURL, "shared"); err != nil {
			return "", fmt.Errorf("clone shared worktree: %w", err)
		}
	}

	m.sharedPath = path
	return path, nil
}

// AcquireTask creates (or reuses) a worktree at BaseDir/<taskID> checked
// out onto the task's branch, branched from origin/main.
func (m *WorktreeManager) AcquireTask(ctx context.Context, taskID string) (string, error) {
	m.mu.Lock()
	shared := m.sharedPath
	m.mu.Unlock()
	if shared == "" {
		return "", fmt.Errorf("acquire task worktree for %s: shared workspace not initialized", taskID)
	}

	branch := models.BranchName(taskID)
	path := filepath.Join(m.BaseDir, taskID)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	runner := m.runner(shared)
	if _, err := runner.Run(ctx, "fetch", "origin", "main"); err != nil {
		return "", fmt.Errorf("fetch main before worktree add: %w", err)
	}
	if _, err := runner.Run(ctx, "worktree", "add", "-B", branch, path, "origin/main"); err != nil {
		return "", fmt.Errorf("add worktree for %s: %w", taskID, err)
	}
	return path, nil
}

// CommitAndPush commits every change under path and pushes it to the
// task's branch.
func (m *WorktreeManager) CommitAndPush(ctx context.Context, path, taskID string) error {
	branch := models.BranchName(taskID)
	runner := m.runner(path)

	if _, err := runner.Run(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("stage worktree changes for %s: %w", taskID, err)
	}
	if _, err := runner.Run(ctx, "commit", "-m", "worldmind: "+taskID, "--allow-empty"); err != nil {
		return fmt.Errorf("commit worktree changes for %s: %w", taskID, err)
	}
	if _, err := runner.Run(ctx, "push", "origin", "HEAD:"+branch); err != nil {
		return fmt.Errorf("push worktree branch for %s: %w", taskID, err)
	}
	return nil
}
