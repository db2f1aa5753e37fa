// Package waveeval ties the scheduler, dispatcher, quality gate,
// oscillation detector, git workspace manager, and deployer sub-protocol
// together into the post-dispatch evaluation algorithm (spec.md
// §4.5-§4.8): for each dispatched task, detect empty output, run tester
// + reviewer, evaluate the gate, enrich retry context, then trigger the
// wave merge and reset conflicted tasks; deployer tasks run the
// build-verify/marker-scan/diagnosis path instead. This is the one
// package allowed to call all of those collaborators together, since the
// wave loop is itself one cross-cutting algorithm.
package waveeval

import (
	"context"
	"strings"

	"github.com/worldmind/orchestrator/internal/deployer"
	"github.com/worldmind/orchestrator/internal/dispatch"
	"github.com/worldmind/orchestrator/internal/events"
	"github.com/worldmind/orchestrator/internal/gate"
	"github.com/worldmind/orchestrator/internal/gitworkspace"
	"github.com/worldmind/orchestrator/internal/metrics"
	"github.com/worldmind/orchestrator/internal/models"
	"github.com/worldmind/orchestrator/internal/oscillation"
)

// maxOutputTail is the number of trailing characters of raw agent output
// embedded in retry context for pre-gate failures (spec.md §4.5, §4.6).
const maxOutputTail = 2000

// maxIssues and maxSuggestions bound how many reviewer items are folded
// into retry context (spec.md §4.6).
const (
	maxIssues      = 3
	maxSuggestions = 3
)

// Evaluator holds the collaborators the wave evaluator composes.
type Evaluator struct {
	Dispatcher             dispatch.Dispatcher
	Oscillation            *oscillation.Detector
	GitManager             *gitworkspace.Manager
	ReviewScoreThreshold   int
	DiagnosticFilePatterns []string
	SkipUnblocksDependents bool

	// Bus is optional; when set, gate and deployer decisions are also
	// published to it (spec.md §6 quality_gate.*/deployer.* events). Set
	// after construction, mirroring pipeline.Driver.Worktrees.
	Bus *events.Bus
}

// New returns an Evaluator with the given collaborators and config.
func New(d dispatch.Dispatcher, osc *oscillation.Detector, git *gitworkspace.Manager, threshold int, diagnosticPatterns []string, skipUnblocks bool) *Evaluator {
	return &Evaluator{
		Dispatcher:             d,
		Oscillation:            osc,
		GitManager:             git,
		ReviewScoreThreshold:   threshold,
		DiagnosticFilePatterns: diagnosticPatterns,
		SkipUnblocksDependents: skipUnblocks,
	}
}

// WaveOutcome summarises one call to EvaluateWave, for event emission and
// metrics.
type WaveOutcome struct {
	Merged     []string
	Conflicted []string
	Escalated  bool
}

// EvaluateWave evaluates every dispatched task of the wave in place on
// mission, then triggers the wave merge for the passed coder/refactorer
// tasks (spec.md §4.5-§4.7). Deployer tasks follow the distinct path of
// the deployer sub-protocol (spec.md §4.8) instead of the quality gate.
func (e *Evaluator) EvaluateWave(ctx context.Context, mission *models.Mission, results []models.WaveDispatchResult) WaveOutcome {
	var outcome WaveOutcome
	var passedCoders []string

	for _, r := range results {
		task := mission.TaskByID(r.TaskID)
		if task == nil {
			continue
		}
		mission.DispatchResults = append(mission.DispatchResults, r)

		if task.AgentRole == models.RoleDeployer {
			if e.evaluateDeployer(ctx, mission, task, r) {
				outcome.Escalated = true
			}
			continue
		}

		if !task.IsCoderLike() {
			task.Status = models.TaskPassed
			mission.MarkCompleted(task.ID)
			continue
		}

		if r.Status == models.TaskFailed {
			if e.applyFailure(mission, task, gate.EvaluateDispatchFailure(), "") {
				outcome.Escalated = true
			}
			continue
		}

		task.FilesAffected = filterDiagnostic(r.FilesAffected, e.DiagnosticFilePatterns)
		if len(task.FilesAffected) == 0 {
			tail := tailOf(r.RawOutput, maxOutputTail)
			if e.applyFailure(mission, task, gate.EvaluateNoCodeFiles(), tail) {
				outcome.Escalated = true
			}
			continue
		}

		test, review := e.runTesterAndReviewer(ctx, mission, *task, r)
		mission.TestResults = append(mission.TestResults, test)
		mission.ReviewFeedbacks = append(mission.ReviewFeedbacks, review)

		decision := gate.Evaluate(test, review, e.ReviewScoreThreshold)
		metrics.QualityGateScore.WithLabelValues(task.AgentRole).Observe(float64(review.Score))
		if decision.Granted {
			metrics.QualityGateDecisions.WithLabelValues(task.AgentRole, "grant").Inc()
			e.publish(events.QualityGateGrant, mission.ID, task.ID, map[string]interface{}{"score": review.Score})
			task.Status = models.TaskPassed
			mission.MarkCompleted(task.ID)
			passedCoders = append(passedCoders, task.ID)
			continue
		}

		metrics.QualityGateDecisions.WithLabelValues(task.AgentRole, "deny").Inc()
		e.publish(events.QualityGateDeny, mission.ID, task.ID, map[string]interface{}{"score": review.Score, "reason": decision.Reason})
		if e.applyFailure(mission, task, decision, "") {
			outcome.Escalated = true
		}
	}

	if outcome.Escalated {
		mission.Status = models.MissionFailed
		return outcome
	}

	if e.GitManager != nil && len(passedCoders) > 0 {
		mergeResult, err := e.GitManager.MergeWave(ctx, passedCoders)
		if err != nil {
			mission.Errors = append(mission.Errors, "wave merge: "+err.Error())
			metrics.GitMergesTotal.WithLabelValues("error").Inc()
		} else {
			outcome.Merged = mergeResult.Merged
			outcome.Conflicted = mergeResult.Conflicted
			metrics.GitMergesTotal.WithLabelValues("merged").Add(float64(len(mergeResult.Merged)))
			metrics.GitMergesTotal.WithLabelValues("conflicted").Add(float64(len(mergeResult.Conflicted)))
			if e.resetConflicted(mission, mergeResult) {
				outcome.Escalated = true
			}
		}
	}

	if outcome.Escalated {
		mission.Status = models.MissionFailed
	}

	return outcome
}

// publish sends evt to e.Bus if one is configured; a nil Bus is valid
// and simply drops the event, matching gate/deployer evaluation being
// independently unit-testable without an event bus in scope.
func (e *Evaluator) publish(evtType, missionID, taskID string, payload map[string]interface{}) {
	if e.Bus == nil {
		return
	}
	e.Bus.Publish(events.TaskEvent(evtType, missionID, taskID, payload))
}

// evaluateDeployer runs the deployer sub-protocol for one deployer task
// (spec.md §4.8): pre-deploy verification, then marker-scanning and
// diagnosis of the deployer's own output. Always finalizes the task's
// status so it reaches completed-ids or the mission's failed state —
// the wave loop would otherwise never converge on a deployer task.
// Returns true if the mission should escalate (fail).
func (e *Evaluator) evaluateDeployer(ctx context.Context, mission *models.Mission, task *models.Task, r models.WaveDispatchResult) bool {
	timer := metrics.NewTimer()
	result := deployer.Evaluate(ctx, e.Dispatcher, mission, *task, r.RawOutput)
	timer.ObserveSeconds(metrics.DeploymentDuration)

	if result.Success {
		metrics.DeploymentsTotal.WithLabelValues("success").Inc()
		e.publish(events.DeployerSuccess, mission.ID, task.ID, map[string]interface{}{"url": result.URL})
		task.Status = models.TaskPassed
		mission.MarkCompleted(task.ID)
		return false
	}

	reason := "deployer failed"
	if result.Diagnosis != nil {
		reason = result.Diagnosis.Reason
	}

	// The pre-deploy BUILD/MANIFEST abort is fatal regardless of the
	// task's failure strategy (spec.md §4.8): the deployer never even
	// ran, so there is nothing to retry or skip past.
	if result.Skipped {
		metrics.DeploymentsTotal.WithLabelValues("skipped").Inc()
		e.publish(events.DeployerFailed, mission.ID, task.ID, map[string]interface{}{
			"category": "skipped",
			"reason":   reason,
		})
		task.Status = models.TaskFailed
		mission.Errors = append(mission.Errors, "deployer "+task.ID+": "+reason)
		mission.Status = models.MissionFailed
		return true
	}

	outcome := "failure"
	if result.Diagnosis != nil {
		outcome = result.Diagnosis.Category
	}
	metrics.DeploymentsTotal.WithLabelValues(outcome).Inc()
	e.publish(events.DeployerFailed, mission.ID, task.ID, map[string]interface{}{
		"category": outcome,
		"reason":   reason,
	})

	if task.FailureStrategy == models.FailureRetry && task.Iteration < task.MaxIterations {
		enriched := buildDeployerRetryContext(result.Diagnosis)
		task.ResetToPending()
		task.Iteration++
		task.InputContext = enriched + "\n\n" + task.InputContext
		return false
	}

	if task.FailureStrategy == models.FailureSkip {
		task.Status = models.TaskSkipped
		if e.SkipUnblocksDependents {
			mission.MarkCompleted(task.ID)
		}
		return false
	}

	task.Status = models.TaskFailed
	mission.Errors = append(mission.Errors, "deployer "+task.ID+": "+reason)
	mission.Status = models.MissionFailed
	return true
}

// buildDeployerRetryContext embeds a deploy failure's category, reason,
// and surrounding log window into the next attempt's input context
// (spec.md §4.8).
func buildDeployerRetryContext(diag *deployer.Diagnosis) string {
	if diag == nil {
		return "Deployment failed for an unrecognised reason; retrying."
	}
	var b strings.Builder
	b.WriteString("Deployment failed: ")
	b.WriteString(diag.Category)
	b.WriteString(": ")
	b.WriteString(diag.Reason)
	if diag.LogWindow != "" {
		b.WriteString("\n\nSurrounding log output:\n")
		b.WriteString(diag.LogWindow)
	}
	return b.String()
}

// runTesterAndReviewer invokes the dispatcher with two short-lived tasks
// built from the coder task and its files-affected list (spec.md §4.5).
// A dispatcher-level exception produces pass=false / approved=false, both
// recording the exception message.
func (e *Evaluator) runTesterAndReviewer(ctx context.Context, mission *models.Mission, coder models.Task, r models.WaveDispatchResult) (models.TestResult, models.ReviewFeedback) {
	testerTask := models.Task{
		ID:           coder.ID,
		AgentRole:    models.RoleTester,
		Description:  "Run tests against changes from " + coder.ID,
		InputContext: describeFiles(coder, r),
	}
	testResp, err := e.Dispatcher.Execute(ctx, dispatch.Request{
		Task:        testerTask,
		ProjectPath: mission.ProjectPath,
	})
	var test models.TestResult
	if err != nil {
		test = models.TestResult{TaskID: coder.ID, Passed: false, RawOutput: err.Error()}
	} else {
		test = parseTestResult(coder.ID, testResp.RawOutput)
	}

	reviewerTask := models.Task{
		ID:           coder.ID,
		AgentRole:    models.RoleReviewer,
		Description:  "Review changes from " + coder.ID,
		InputContext: describeFiles(coder, r),
	}
	reviewResp, err := e.Dispatcher.Execute(ctx, dispatch.Request{
		Task:        reviewerTask,
		ProjectPath: mission.ProjectPath,
	})
	var review models.ReviewFeedback
	if err != nil {
		review = models.ReviewFeedback{TaskID: coder.ID, Approved: false, Summary: err.Error()}
	} else {
		review = parseReviewFeedback(coder.ID, reviewResp.RawOutput)
	}

	return test, review
}

func describeFiles(coder models.Task, r models.WaveDispatchResult) string {
	var b strings.Builder
	b.WriteString(coder.Description)
	b.WriteString("\nFiles affected:\n")
	for _, fc := range r.FilesAffected {
		b.WriteString("- ")
		b.WriteString(fc.Path)
		b.WriteString(" (")
		b.WriteString(fc.Action)
		b.WriteString(")\n")
	}
	return b.String()
}

// applyFailure applies the per-task failure strategy algorithm of
// spec.md §4.6, returning true if the mission should escalate (fail).
func (e *Evaluator) applyFailure(mission *models.Mission, task *models.Task, decision gate.Decision, outputTail string) bool {
	action := decision.Action

	if action == gate.ActionRetry && task.Iteration >= task.MaxIterations {
		action = gate.ActionEscalate
	}

	if action == gate.ActionRetry && e.Oscillation != nil {
		if e.Oscillation.Record(task.ID, decision.Reason) {
			metrics.OscillationsDetected.Inc()
			action = gate.ActionEscalate
		}
	}

	switch action {
	case gate.ActionRetry:
		mission.RetryContext = decision.Reason
		enriched := buildRetryContext(decision, outputTail)
		task.ResetToPending()
		task.Iteration++
		task.InputContext = enriched + "\n\n" + task.InputContext
		return false

	case gate.ActionSkip:
		task.Status = models.TaskSkipped
		if e.SkipUnblocksDependents {
			mission.MarkCompleted(task.ID)
		}
		return false

	default: // escalate, replan (treated as escalate in the core)
		task.Status = models.TaskFailed
		mission.Errors = append(mission.Errors, "task "+task.ID+" escalated: "+decision.Reason)
		return true
	}
}

func buildRetryContext(decision gate.Decision, outputTail string) string {
	var b strings.Builder
	if decision.Reason != "" {
		b.WriteString(decision.Reason)
		b.WriteString("\n")
	}
	if outputTail != "" {
		b.WriteString("Agent output tail:\n")
		b.WriteString(outputTail)
	}
	return b.String()
}

func tailOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// filterDiagnostic excludes internal diagnostic files from a files-
// affected list (spec.md §4.5): paths beginning with the orchestrator's
// hidden directory, ending with a log suffix, or matching an injected
// pattern fragment.
func filterDiagnostic(files []models.FileChange, patterns []string) []models.FileChange {
	var out []models.FileChange
	for _, f := range files {
		if isDiagnostic(f.Path, patterns) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isDiagnostic(path string, patterns []string) bool {
	for _, p := range patterns {
		if strings.HasPrefix(p, "/") {
			if strings.Contains(path, p) {
				return true
			}
			continue
		}
		if strings.HasSuffix(path, p) || strings.Contains(path, p) {
			return true
		}
	}
	return false
}
