// Package gitworkspace owns the branch-naming convention, per-task branch
// lifecycle, and wave-level sequential merge into main (spec.md §4.7,
// §6 Git branch naming), grounded on the teacher's
// internal/executor/git_checkpointer.go CommandRunner wrapping idiom.
package gitworkspace

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/worldmind/orchestrator/internal/filelock"
	"github.com/worldmind/orchestrator/internal/models"
)

// Manager drives the merge workspace for one mission's wave merges.
type Manager struct {
	Runner  CommandRunner
	WorkDir string // merge workspace clone

	// lock guards the shared merge workspace directory across goroutines,
	// mirroring the teacher's flock usage for the learning store.
	lock *filelock.FileLock
}

// NewManager returns a Manager that runs git against workDir, serialising
// access to it with an flock-backed lockfile.
func NewManager(runner CommandRunner, workDir string) *Manager {
	return &Manager{
		Runner:  runner,
		WorkDir: workDir,
		lock:    filelock.NewFileLock(workDir + ".lock"),
	}
}

// MergeResult is the outcome of merging one wave's passed coder tasks.
type MergeResult struct {
	Merged     []string
	Conflicted []string
}

// MergeWave merges the passed coder/refactorer task ids into main in
// lexicographic id order (spec.md §4.7), which coincides with creation
// order because of the width-3 zero-padding convention.
//
// For each id: fetch its branch, rebase onto main; on conflict, abort and
// record the id as conflicted without touching main; otherwise merge
// with --no-ff and push, retrying once with pull --rebase on push
// failure. The per-task push after each successful merge is required so
// later rebases in the same wave see the updated main.
func (m *Manager) MergeWave(ctx context.Context, passedTaskIDs []string) (MergeResult, error) {
	if err := m.lock.Lock(); err != nil {
		return MergeResult{}, fmt.Errorf("lock merge workspace: %w", err)
	}
	defer m.lock.Unlock()

	sorted := append([]string(nil), passedTaskIDs...)
	sort.Strings(sorted)

	if err := m.resetToOriginMain(ctx); err != nil {
		return MergeResult{}, err
	}

	var result MergeResult
	for _, id := range sorted {
		merged, err := m.mergeOne(ctx, id)
		if err != nil {
			return result, err
		}
		if merged {
			result.Merged = append(result.Merged, id)
		} else {
			result.Conflicted = append(result.Conflicted, id)
		}
	}
	return result, nil
}

func (m *Manager) resetToOriginMain(ctx context.Context) error {
	if _, err := m.run(ctx, "checkout", "main"); err != nil {
		return fmt.Errorf("checkout main: %w", err)
	}
	if _, err := m.run(ctx, "fetch", "origin", "main"); err != nil {
		return fmt.Errorf("fetch origin main: %w", err)
	}
	if _, err := m.run(ctx, "reset", "--hard", "origin/main"); err != nil {
		return fmt.Errorf("reset to origin/main: %w", err)
	}
	return nil
}

// mergeOne returns true if id merged cleanly, false if it conflicted.
func (m *Manager) mergeOne(ctx context.Context, id string) (bool, error) {
	branch := models.BranchName(id)
	tempBranch := "merge-" + id

	if _, err := m.run(ctx, "fetch", "origin", branch); err != nil {
		return false, fmt.Errorf("fetch branch %s: %w", branch, err)
	}
	if _, err := m.run(ctx, "checkout", "-b", tempBranch, "origin/"+branch); err != nil {
		return false, fmt.Errorf("checkout temp branch for %s: %w", id, err)
	}

	if _, err := m.run(ctx, "rebase", "main"); err != nil {
		if _, abortErr := m.run(ctx, "rebase", "--abort"); abortErr != nil {
			return false, fmt.Errorf("abort rebase for %s: %w", id, abortErr)
		}
		if _, err := m.run(ctx, "checkout", "main"); err != nil {
			return false, fmt.Errorf("return to main after conflict on %s: %w", id, err)
		}
		if _, err := m.run(ctx, "branch", "-D", tempBranch); err != nil {
			return false, fmt.Errorf("delete temp branch for %s: %w", id, err)
		}
		return false, nil
	}

	if _, err := m.run(ctx, "checkout", "main"); err != nil {
		return false, fmt.Errorf("checkout main to merge %s: %w", id, err)
	}
	if _, err := m.run(ctx, "merge", "--no-ff", tempBranch, "-m", "merge task "+id); err != nil {
		return false, fmt.Errorf("merge %s into main: %w", id, err)
	}

	if _, err := m.run(ctx, "push", "origin", "main"); err != nil {
		if _, pullErr := m.run(ctx, "pull", "--rebase", "origin", "main"); pullErr != nil {
			return false, fmt.Errorf("pull --rebase after failed push for %s: %w", id, pullErr)
		}
		if _, err := m.run(ctx, "push", "origin", "main"); err != nil {
			return false, fmt.Errorf("retry push after merging %s: %w", id, err)
		}
	}

	if _, err := m.run(ctx, "branch", "-D", tempBranch); err != nil {
		return false, fmt.Errorf("delete temp branch for %s: %w", id, err)
	}
	return true, nil
}

func (m *Manager) run(ctx context.Context, args ...string) (string, error) {
	return m.Runner.Run(ctx, args...)
}

// ConflictRetryContext builds the "MERGE CONFLICT RETRY" header for a
// conflicted task (spec.md §4.7): it enumerates the files already present
// in main from the merged-set tasks so the worker does not recreate them.
func ConflictRetryContext(mergedFiles []string) string {
	var b strings.Builder
	b.WriteString("## MERGE CONFLICT RETRY\n")
	b.WriteString("The following files already exist on main from other merged tasks; do not recreate them:\n")
	for _, f := range mergedFiles {
		b.WriteString("- ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	return b.String()
}
