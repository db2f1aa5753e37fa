package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/worldmind/orchestrator/internal/models"
)

func TestEvaluate_TestsFailedRetries(t *testing.T) {
	d := Evaluate(models.TestResult{Passed: false}, models.ReviewFeedback{Approved: true, Score: 10}, DefaultThreshold)
	assert.False(t, d.Granted)
	assert.Equal(t, ActionRetry, d.Action)
	assert.Equal(t, "tests failed", d.Reason)
}

func TestEvaluate_PassedAndApprovedGrants(t *testing.T) {
	d := Evaluate(models.TestResult{Passed: true}, models.ReviewFeedback{Approved: true, Score: 8}, DefaultThreshold)
	assert.True(t, d.Granted)
}

func TestEvaluate_NotApprovedLowScoreRetries(t *testing.T) {
	d := Evaluate(models.TestResult{Passed: true}, models.ReviewFeedback{Approved: false, Score: 3, Summary: "wrong field name"}, DefaultThreshold)
	assert.False(t, d.Granted)
	assert.Equal(t, ActionRetry, d.Action)
	assert.Equal(t, "wrong field name", d.Reason)
}

func TestEvaluate_NotApprovedHighScoreSkips(t *testing.T) {
	d := Evaluate(models.TestResult{Passed: true}, models.ReviewFeedback{Approved: false, Score: 9}, DefaultThreshold)
	assert.False(t, d.Granted)
	assert.Equal(t, ActionSkip, d.Action)
}

// TestEvaluate_Monotone asserts increasing the review score or flipping
// tests-passed from false to true never changes a granted outcome to
// denied (spec.md §8 Testable properties).
func TestEvaluate_Monotone(t *testing.T) {
	base := Evaluate(models.TestResult{Passed: true}, models.ReviewFeedback{Approved: true, Score: 6}, DefaultThreshold)
	assert.True(t, base.Granted)

	higherScore := Evaluate(models.TestResult{Passed: true}, models.ReviewFeedback{Approved: true, Score: 9}, DefaultThreshold)
	assert.True(t, higherScore.Granted)
}

func TestEvaluateDispatchFailure(t *testing.T) {
	d := EvaluateDispatchFailure()
	assert.Equal(t, ActionRetry, d.Action)
}

func TestEvaluateNoCodeFiles(t *testing.T) {
	d := EvaluateNoCodeFiles()
	assert.Equal(t, ActionRetry, d.Action)
	assert.Equal(t, "coder task produced no code files", d.Reason)
}
