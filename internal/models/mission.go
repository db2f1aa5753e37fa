package models

import "time"

// Mission statuses and their allowed transitions (spec.md §4.1).
const (
	MissionReceived         = "received"
	MissionUploading        = "uploading"
	MissionSpecifying       = "specifying"
	MissionClarifying       = "clarifying"
	MissionPlanning         = "planning"
	MissionAwaitingApproval = "awaiting_approval"
	MissionExecuting        = "executing"
	MissionCompleted        = "completed"
	MissionFailed           = "failed"
)

// Execution strategies (spec.md §3 Mission, §4.3 Scheduler).
const (
	StrategySequential = "sequential"
	StrategyParallel   = "parallel"
)

// Classification is the classifier's output (spec.md §4.2).
type Classification struct {
	Category           string   `json:"category"`
	Complexity         int      `json:"complexity"` // 1..5
	AffectedComponents []string `json:"affectedComponents"`
	PlanningStrategy   string   `json:"planningStrategy"` // sequential | parallel | adaptive
	RuntimeTag         string   `json:"runtimeTag,omitempty"`
}

// ProductSpec is the spec generator's output (spec.md §4.2).
type ProductSpec struct {
	Title                 string   `json:"title"`
	Overview              string   `json:"overview"`
	Goals                 []string `json:"goals"`
	NonGoals              []string `json:"nonGoals"`
	TechnicalRequirements []string `json:"technicalRequirements"`
	EdgeCases             []string `json:"edgeCases"`
	AcceptanceCriteria    []string `json:"acceptanceCriteria"`
	Components            []string `json:"components"`
}

// TaskPlan is one entry of the planner's raw output, before the
// deterministic post-processors of spec.md §4.2 run.
type TaskPlan struct {
	AgentRole       string   `json:"agentRole"`
	Description     string   `json:"description"`
	InputContext    string   `json:"inputContext"`
	SuccessCriteria string   `json:"successCriteria"`
	TargetFiles     []string `json:"targetFiles,omitempty"`
	DependsOn       []string `json:"dependsOn,omitempty"`
}

// WaveDispatchResult is one task's outcome from a wave dispatch
// (spec.md §3 Wave dispatch result).
type WaveDispatchResult struct {
	TaskID        string       `json:"taskId"`
	Status        string       `json:"status"`
	FilesAffected []FileChange `json:"filesAffected"`
	RawOutput     string       `json:"rawOutput"`
	ElapsedMS     int64        `json:"elapsedMs"`
}

// TestResult is the parsed output of a tester invocation (spec.md §3).
type TestResult struct {
	TaskID      string `json:"taskId"`
	Passed      bool   `json:"passed"`
	TotalTests  int    `json:"totalTests"`
	FailedTests int    `json:"failedTests"`
	RawOutput   string `json:"rawOutput"`
	ElapsedMS   int64  `json:"elapsedMs"`
}

// ReviewFeedback is the parsed output of a reviewer invocation (spec.md §3).
type ReviewFeedback struct {
	TaskID      string   `json:"taskId"`
	Approved    bool     `json:"approved"`
	Summary     string   `json:"summary"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Score       int      `json:"score"` // 0..10
}

// MissionMetrics aggregates computed at convergence (spec.md §3, §4.9).
type MissionMetrics struct {
	TotalDurationMS      int64 `json:"totalDurationMs"`
	TasksCompleted       int   `json:"tasksCompleted"`
	TasksFailed          int   `json:"tasksFailed"`
	TotalIterations      int   `json:"totalIterations"`
	FilesCreated         int   `json:"filesCreated"`
	FilesModified        int   `json:"filesModified"`
	TestsRun             int   `json:"testsRun"`
	TestsPassed          int   `json:"testsPassed"`
	WavesExecuted        int   `json:"wavesExecuted"`
	AggregateTaskElapsed int64 `json:"aggregateTaskElapsedMs"`
}

// ContainerInfo is a reference to an externally owned worker container,
// recorded as observed on the mission (spec.md §3 Ownership).
type ContainerInfo struct {
	TaskID    string    `json:"taskId"`
	ContainerID string  `json:"containerId"`
	OpenedAt  time.Time `json:"openedAt"`
}

// Mission is one entity per user request (spec.md §3 Mission).
// Mutated only by the stage driver for that mission; a per-mission
// single-writer discipline, never a direct-mutation API.
type Mission struct {
	ID      string `json:"id"`
	Request string `json:"request"`
	Status  string `json:"status"`

	Classification *Classification `json:"classification,omitempty"`
	Spec           *ProductSpec    `json:"spec,omitempty"`

	// ProjectContext is the best-effort project summary produced by the
	// upload-context stage from an external ContextProvider (project-
	// directory scanning is out of scope for the core; only its output
	// is carried here for the downstream LLM stages to consume).
	ProjectContext string `json:"projectContext,omitempty"`

	// ClarifyingQuestions is nil until the clarifying stage has run once
	// (idempotence marker); an empty non-nil slice means the stage ran
	// and found no questions needed.
	ClarifyingQuestions []string `json:"clarifyingQuestions,omitempty"`
	UserAnswers         []string `json:"userAnswers,omitempty"`
	ClarifyingResolved  bool     `json:"clarifyingResolved"`

	// Summary is the best-effort post-mission completion note (spec.md
	// §4.1's final "post-mission" stage); populated via an LLM call that
	// is never fatal on failure.
	Summary string `json:"summary,omitempty"`

	Tasks         []Task   `json:"tasks"`
	CurrentWave   int      `json:"currentWave"`
	CompletedIDs  []string `json:"completedIds"`
	RetryContext  string   `json:"retryContext,omitempty"`
	Errors        []string `json:"errors,omitempty"`

	DispatchResults []WaveDispatchResult `json:"dispatchResults,omitempty"`
	Containers      []ContainerInfo      `json:"containers,omitempty"`

	TestResults      []TestResult     `json:"testResults,omitempty"`
	ReviewFeedbacks  []ReviewFeedback `json:"reviewFeedbacks,omitempty"`

	ExecutionStrategy string `json:"executionStrategy"`
	ProjectPath       string `json:"projectPath"`
	GitRemoteURL      string `json:"gitRemoteUrl,omitempty"`
	RuntimeTag        string `json:"runtimeTag,omitempty"`
	ReasoningLevel    string `json:"reasoningLevel,omitempty"`

	Metrics *MissionMetrics `json:"metrics,omitempty"`

	CreatedAt int64 `json:"createdAt"` // ms since epoch
	UpdatedAt int64 `json:"updatedAt"`
}

// TaskByID returns a pointer into m.Tasks for in-place mutation by the
// stage driver, or nil if no task with that id exists.
func (m *Mission) TaskByID(id string) *Task {
	for i := range m.Tasks {
		if m.Tasks[i].ID == id {
			return &m.Tasks[i]
		}
	}
	return nil
}

// IsCompleted reports whether id is present in CompletedIDs.
func (m *Mission) IsCompleted(id string) bool {
	for _, c := range m.CompletedIDs {
		if c == id {
			return true
		}
	}
	return false
}

// MarkCompleted adds id to CompletedIDs if not already present.
func (m *Mission) MarkCompleted(id string) {
	if m.IsCompleted(id) {
		return
	}
	m.CompletedIDs = append(m.CompletedIDs, id)
}

// UnmarkCompleted removes id from CompletedIDs, used by the merge-conflict
// reset (spec.md §4.7).
func (m *Mission) UnmarkCompleted(id string) {
	out := m.CompletedIDs[:0]
	for _, c := range m.CompletedIDs {
		if c != id {
			out = append(out, c)
		}
	}
	m.CompletedIDs = out
}
