// Package gate implements the quality-gate evaluator: a pure function
// from a test result and review feedback to a grant/deny decision and,
// on denial, the failure action to apply (spec.md §4.5).
package gate

import "github.com/worldmind/orchestrator/internal/models"

// Decision actions on deny; Grant means no action is needed.
const (
	ActionGrant    = "grant"
	ActionRetry    = "retry"
	ActionSkip     = "skip"
	ActionEscalate = "escalate"
)

// Decision is the gate's verdict for one task.
type Decision struct {
	Granted bool
	Action  string // meaningful only when !Granted
	Reason  string
}

// DefaultThreshold is the review-score floor when no stricter threshold
// is configured (spec.md §6 review_score_threshold).
const DefaultThreshold = 6

// Evaluate applies the decision table of spec.md §4.5:
//
//	tests failed                                  -> retry, "tests failed"
//	tests passed, not approved, score < threshold -> retry, reviewer summary
//	tests passed, not approved, score >= threshold -> skip, "nothing substantive to fix"
//	tests passed, approved                        -> grant
func Evaluate(test models.TestResult, review models.ReviewFeedback, threshold int) Decision {
	if !test.Passed {
		return Decision{Granted: false, Action: ActionRetry, Reason: "tests failed"}
	}

	if review.Approved {
		return Decision{Granted: true}
	}

	if review.Score >= threshold {
		return Decision{Granted: false, Action: ActionSkip, Reason: "nothing substantive to fix"}
	}

	reason := review.Summary
	if reason == "" {
		reason = "review not approved"
	}
	return Decision{Granted: false, Action: ActionRetry, Reason: reason}
}

// EvaluateDispatchFailure is the path for a coder that failed at dispatch
// (spec.md §4.5): the gate is bypassed and the failure strategy applies
// directly with a fixed reason.
func EvaluateDispatchFailure() Decision {
	return Decision{
		Granted: false,
		Action:  ActionRetry,
		Reason:  "coder task failed during execution",
	}
}

// EvaluateNoCodeFiles is the path for a coder that passed dispatch but
// whose filtered files-affected list is empty (spec.md §4.5).
func EvaluateNoCodeFiles() Decision {
	return Decision{
		Granted: false,
		Action:  ActionRetry,
		Reason:  "coder task produced no code files",
	}
}
