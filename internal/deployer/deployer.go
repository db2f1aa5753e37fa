// Package deployer implements the deployer sub-protocol (spec.md §4.8):
// a pre-deploy build-verification check, then a regexp-based scan of the
// deployer's raw output for success/failure markers, URL extraction on
// success, and a categorised, log-windowed diagnosis on failure.
//
// Grounded on the teacher's internal/executor/commit_verifier.go: a
// verifier that shells out (or uses an injected dispatcher) and returns
// a result struct describing what it found rather than erroring, since
// "no match" is an expected outcome here, not an exceptional one.
package deployer

import (
	"context"
	"regexp"
	"strings"

	"github.com/worldmind/orchestrator/internal/dispatch"
	"github.com/worldmind/orchestrator/internal/models"
)

// Diagnosis categories for a failed deployment (spec.md §4.8).
const (
	CategoryBuildFailure          = "build-failure"
	CategoryServiceBindingFailure = "service-binding-failure"
	CategoryStagingFailure        = "staging-failure"
	CategoryAppCrashed            = "app-crashed"
	CategoryHealthCheckTimeout    = "health-check-timeout"
	CategoryUnknown               = "unknown"
)

// linesBefore and linesAfter bound the log window captured around the
// first matched keyword in a failure diagnosis (spec.md §4.8: "five
// before and ten after").
const (
	linesBefore = 5
	linesAfter  = 10
)

// Diagnosis describes why a deployment attempt was judged to have
// failed.
type Diagnosis struct {
	Category  string
	Reason    string
	LogWindow string
}

// Result is the outcome of running the deployer sub-protocol for one
// task.
type Result struct {
	TaskID    string
	Success   bool
	URL       string
	Skipped   bool // pre-deploy verification failed; deployer never ran
	Diagnosis *Diagnosis
}

var failureKeywords = []struct {
	pattern  *regexp.Regexp
	category string
	reason   string
}{
	{regexp.MustCompile(`(?i)crashed`), CategoryAppCrashed, "application crashed after start"},
	{regexp.MustCompile(`(?i)staging failed`), CategoryStagingFailure, "staging failed"},
	{regexp.MustCompile(`(?i)health check timeout`), CategoryHealthCheckTimeout, "health check timed out"},
	{regexp.MustCompile(`(?i)service.?binding.*(fail|error)`), CategoryServiceBindingFailure, "service binding failed"},
	{regexp.MustCompile(`(?i)exit status [1-9]\d*`), CategoryAppCrashed, "process exited with a non-zero status"},
}

var successKeywords = []*regexp.Regexp{
	regexp.MustCompile(`(?i)app started`),
	regexp.MustCompile(`(?i)instances running`),
	regexp.MustCompile(`(?i)status:\s*running`),
	regexp.MustCompile(`(?i)push successful`),
}

var (
	routesLineRe   = regexp.MustCompile(`(?im)^\s*routes?:\s*(\S+)`)
	deployHostRe   = regexp.MustCompile(`https://\S+\.(apps|cfapps|herokuapp|run\.app|azurewebsites)\S*`)
	buildFailRe    = regexp.MustCompile(`BUILD:\s*FAIL`)
	manifestFailRe = regexp.MustCompile(`MANIFEST:\s*(FAIL|MISSING)`)
)

// PreDeployCheck dispatches a tester task with a "build verification"
// instruction and inspects its output for the two markers that abort
// the deployer before it ever runs (spec.md §4.8).
func PreDeployCheck(ctx context.Context, d dispatch.Dispatcher, mission *models.Mission, deployTask models.Task) (ok bool, reason string, err error) {
	verifyTask := models.Task{
		ID:          deployTask.ID,
		AgentRole:   models.RoleTester,
		Description: "Run a build verification check before deployment",
	}
	resp, execErr := d.Execute(ctx, dispatch.Request{
		Task:        verifyTask,
		ProjectPath: mission.ProjectPath,
	})
	if execErr != nil {
		return false, "build verification dispatch failed: " + execErr.Error(), execErr
	}

	if buildFailRe.MatchString(resp.RawOutput) {
		return false, "build verification reported BUILD: FAIL", nil
	}
	if manifestFailRe.MatchString(resp.RawOutput) {
		return false, "build verification reported a missing or failed manifest", nil
	}
	return true, "", nil
}

// Evaluate runs the full deployer sub-protocol for one dispatched
// deployer task: pre-deploy verification, then marker scanning and
// diagnosis of the deployer's own raw output (spec.md §4.8). Failure
// markers take precedence over success markers.
func Evaluate(ctx context.Context, d dispatch.Dispatcher, mission *models.Mission, task models.Task, raw string) Result {
	ok, reason, err := PreDeployCheck(ctx, d, mission, task)
	if err != nil || !ok {
		return Result{
			TaskID:  task.ID,
			Skipped: true,
			Diagnosis: &Diagnosis{
				Category: CategoryBuildFailure,
				Reason:   reason,
			},
		}
	}

	if diag := diagnoseFailure(raw); diag != nil {
		return Result{TaskID: task.ID, Success: false, Diagnosis: diag}
	}

	for _, re := range successKeywords {
		if re.MatchString(raw) {
			return Result{TaskID: task.ID, Success: true, URL: extractURL(raw)}
		}
	}

	return Result{
		TaskID:  task.ID,
		Success: false,
		Diagnosis: &Diagnosis{
			Category: CategoryUnknown,
			Reason:   "deployer output contained neither a recognised success nor failure marker",
		},
	}
}

// diagnoseFailure scans raw for the first matching failure keyword and,
// if found, returns a categorised Diagnosis with a surrounding log
// window. Returns nil if no failure marker matched.
func diagnoseFailure(raw string) *Diagnosis {
	lines := strings.Split(raw, "\n")
	for _, kw := range failureKeywords {
		for i, line := range lines {
			if kw.pattern.MatchString(line) {
				return &Diagnosis{
					Category:  kw.category,
					Reason:    kw.reason,
					LogWindow: windowAround(lines, i, linesBefore, linesAfter),
				}
			}
		}
	}
	return nil
}

// windowAround returns the lines from [idx-before, idx+after] of lines,
// clamped to its bounds, joined with newlines.
func windowAround(lines []string, idx, before, after int) string {
	start := idx - before
	if start < 0 {
		start = 0
	}
	end := idx + after + 1
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

// extractURL pulls a deployment URL from a "routes:" line or a bare
// https:// host matching a common deployment-platform suffix (spec.md
// §4.8).
func extractURL(raw string) string {
	if m := routesLineRe.FindStringSubmatch(raw); len(m) == 2 {
		return m[1]
	}
	if m := deployHostRe.FindString(raw); m != "" {
		return m
	}
	return ""
}
