package waveeval

import (
	"encoding/json"
	"strings"

	"github.com/worldmind/orchestrator/internal/gitworkspace"
	"github.com/worldmind/orchestrator/internal/models"
)

// parseTestResult extracts a TestResult from a tester agent's raw output,
// mirroring the JSON-extraction-with-fallback idiom used for structured
// LLM calls: try a direct unmarshal, then the first-brace/last-brace
// slice, then fall back to a raw, unparsed failure.
func parseTestResult(taskID, rawOutput string) models.TestResult {
	result := models.TestResult{TaskID: taskID, RawOutput: rawOutput}

	var parsed struct {
		Passed      bool `json:"passed"`
		TotalTests  int  `json:"totalTests"`
		FailedTests int  `json:"failedTests"`
	}
	if tryUnmarshal(rawOutput, &parsed) {
		result.Passed = parsed.Passed
		result.TotalTests = parsed.TotalTests
		result.FailedTests = parsed.FailedTests
		return result
	}

	result.Passed = false
	return result
}

// parseReviewFeedback extracts a ReviewFeedback from a reviewer agent's
// raw output, with the same extraction-with-fallback idiom.
func parseReviewFeedback(taskID, rawOutput string) models.ReviewFeedback {
	feedback := models.ReviewFeedback{TaskID: taskID, Summary: rawOutput}

	var parsed struct {
		Approved    bool     `json:"approved"`
		Summary     string   `json:"summary"`
		Issues      []string `json:"issues"`
		Suggestions []string `json:"suggestions"`
		Score       int      `json:"score"`
	}
	if tryUnmarshal(rawOutput, &parsed) {
		feedback.Approved = parsed.Approved
		feedback.Summary = parsed.Summary
		feedback.Issues = capList(parsed.Issues, maxIssues)
		feedback.Suggestions = capList(parsed.Suggestions, maxSuggestions)
		feedback.Score = parsed.Score
		return feedback
	}

	feedback.Approved = false
	return feedback
}

func tryUnmarshal(raw string, v interface{}) bool {
	if json.Unmarshal([]byte(raw), v) == nil {
		return true
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return json.Unmarshal([]byte(raw[start:end+1]), v) == nil
	}
	return false
}

func capList(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// resetConflicted resets every task whose merge conflicted back to
// pending for the next wave (spec.md §4.7), enriching its input context
// with the conflicting files so the retried attempt can avoid them.
// Returns true if a conflicted task exceeded its max-iterations and the
// mission must fail.
func (e *Evaluator) resetConflicted(mission *models.Mission, result gitworkspace.MergeResult) bool {
	if len(result.Conflicted) == 0 {
		return false
	}
	note := gitworkspace.ConflictRetryContext(mergedFilePaths(mission, result.Merged))
	escalated := false
	for _, taskID := range result.Conflicted {
		task := mission.TaskByID(taskID)
		if task == nil {
			continue
		}
		mission.UnmarkCompleted(taskID)
		task.Iteration++
		if task.Iteration > task.MaxIterations {
			task.Status = models.TaskFailed
			mission.Errors = append(mission.Errors, "task "+task.ID+" escalated: merge conflict retries exhausted")
			escalated = true
			continue
		}
		task.ResetToPending()
		task.InputContext = note + "\n\n" + task.InputContext
	}
	return escalated
}

// mergedFilePaths collects the files actually touched by each merged
// task id, for the conflict-retry note (spec.md §4.7): the files already
// on main, not the ids that put them there.
func mergedFilePaths(mission *models.Mission, mergedTaskIDs []string) []string {
	var files []string
	for _, id := range mergedTaskIDs {
		task := mission.TaskByID(id)
		if task == nil {
			continue
		}
		for _, fc := range task.FilesAffected {
			files = append(files, fc.Path)
		}
	}
	return files
}
