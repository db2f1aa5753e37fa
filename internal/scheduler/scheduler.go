// Package scheduler computes the next execution wave for a mission's
// task graph: a pure function of the task list, the completed-id set,
// the execution strategy, and the concurrency cap (spec.md §4.3).
package scheduler

import "github.com/worldmind/orchestrator/internal/models"

// NextWave returns an ordered list of task ids eligible to run next.
// An empty result signals the wave loop to terminate.
//
// The function is pure: identical inputs return an identical wave, and
// the input tasks/completed slices are never mutated.
func NextWave(tasks []models.Task, completed []string, strategy string, maxParallel int) []string {
	completedSet := toSet(completed)

	eligible := eligibleTasks(tasks, completedSet)
	if len(eligible) == 0 {
		return nil
	}

	if strategy == models.StrategySequential {
		return []string{eligible[0].ID}
	}

	return parallelWave(eligible, maxParallel)
}

// eligibleTasks returns tasks (in creation order, i.e. the order they
// appear in the slice) whose status is not passed/skipped, are not
// already completed, and whose entire dependency list is satisfied.
func eligibleTasks(tasks []models.Task, completed map[string]bool) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if t.Status == models.TaskPassed || t.Status == models.TaskSkipped {
			continue
		}
		if completed[t.ID] {
			continue
		}
		if !dependenciesSatisfied(t.DependsOn, completed) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func dependenciesSatisfied(deps []string, completed map[string]bool) bool {
	for _, d := range deps {
		if !completed[d] {
			return false
		}
	}
	return true
}

// parallelWave walks eligible tasks in creation order, adding each if its
// target-files set is disjoint from every already-chosen task's and the
// wave is still below maxParallel. Target-files overlap is the sole
// file-ownership conflict signal.
func parallelWave(eligible []models.Task, maxParallel int) []string {
	var wave []string
	owned := make(map[string]bool)

	for _, t := range eligible {
		if len(wave) >= maxParallel {
			break
		}
		if overlaps(t.TargetFiles, owned) {
			continue
		}
		wave = append(wave, t.ID)
		for _, f := range t.TargetFiles {
			owned[f] = true
		}
	}
	return wave
}

func overlaps(files []string, owned map[string]bool) bool {
	for _, f := range files {
		if owned[f] {
			return true
		}
	}
	return false
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
