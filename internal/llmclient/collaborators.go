package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/worldmind/orchestrator/internal/models"
)

// Classifier, SpecGenerator, Planner and Clarifier are thin collaborators
// over StructuredCaller (spec.md §4.2); for the core they are black boxes
// with a fixed input/output contract.

const classifierSystemPrompt = "You are a request classifier. Respond only with JSON matching the schema."

// classifierSchema names the closed set of fields spec.md §4.2 requires.
const classifierSchema = `{"type":"object","properties":{"category":{"type":"string"},"complexity":{"type":"integer"},"affectedComponents":{"type":"array","items":{"type":"string"}},"planningStrategy":{"type":"string"},"runtimeTag":{"type":"string"}},"required":["category","complexity","affectedComponents","planningStrategy"]}`

// ClassifyRequest classifies a natural-language request (spec.md §4.2
// Classifier).
func ClassifyRequest(ctx context.Context, caller StructuredCaller, request string) (*models.Classification, error) {
	raw, err := caller.StructuredCall(ctx, classifierSystemPrompt, request, classifierSchema)
	if err != nil {
		return nil, fmt.Errorf("classify request: %w", err)
	}

	var c models.Classification
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("parse classification: %w", err)
	}
	return &c, nil
}

const specGeneratorSystemPrompt = "You are a product spec writer. Respond only with JSON matching the schema."

const specGeneratorSchema = `{"type":"object","properties":{"title":{"type":"string"},"overview":{"type":"string"},"goals":{"type":"array","items":{"type":"string"}},"nonGoals":{"type":"array","items":{"type":"string"}},"technicalRequirements":{"type":"array","items":{"type":"string"}},"edgeCases":{"type":"array","items":{"type":"string"}},"acceptanceCriteria":{"type":"array","items":{"type":"string"}},"components":{"type":"array","items":{"type":"string"}}}}`

// GenerateSpec produces a product-specification record and, best-effort,
// persists it as markdown under projectPath (spec.md §4.2 Spec generator).
// Persistence failures are logged by the caller, never fatal.
func GenerateSpec(ctx context.Context, caller StructuredCaller, request string, classification *models.Classification, projectContext string, userAnswers []string, projectPath string) (*models.ProductSpec, error) {
	prompt := buildSpecPrompt(request, classification, projectContext, userAnswers)

	raw, err := caller.StructuredCall(ctx, specGeneratorSystemPrompt, prompt, specGeneratorSchema)
	if err != nil {
		return nil, fmt.Errorf("generate spec: %w", err)
	}

	var spec models.ProductSpec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return nil, fmt.Errorf("parse product spec: %w", err)
	}

	if projectPath != "" {
		_ = persistSpecMarkdown(&spec, projectPath)
	}

	return &spec, nil
}

func buildSpecPrompt(request string, classification *models.Classification, projectContext string, userAnswers []string) string {
	var b strings.Builder
	b.WriteString("Request: ")
	b.WriteString(request)
	if classification != nil {
		fmt.Fprintf(&b, "\nCategory: %s (complexity %d)\n", classification.Category, classification.Complexity)
	}
	if projectContext != "" {
		b.WriteString("\nProject context:\n")
		b.WriteString(projectContext)
	}
	if len(userAnswers) > 0 {
		b.WriteString("\nClarifying answers:\n")
		for _, a := range userAnswers {
			b.WriteString("- ")
			b.WriteString(a)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// persistSpecMarkdown renders spec as markdown (via goldmark, to validate
// it parses as well-formed markdown before writing) and writes it to
// projectPath/.worldmind/spec.md. Best-effort.
func persistSpecMarkdown(spec *models.ProductSpec, projectPath string) error {
	md := renderSpecMarkdown(spec)

	var discard strings.Builder
	if err := goldmark.Convert([]byte(md), &discard); err != nil {
		return fmt.Errorf("render spec markdown: %w", err)
	}

	dir := filepath.Join(projectPath, ".worldmind")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "spec.md"), []byte(md), 0644)
}

func renderSpecMarkdown(spec *models.ProductSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", spec.Title, spec.Overview)
	writeList(&b, "## Goals", spec.Goals)
	writeList(&b, "## Non-goals", spec.NonGoals)
	writeList(&b, "## Technical Requirements", spec.TechnicalRequirements)
	writeList(&b, "## Edge Cases", spec.EdgeCases)
	writeList(&b, "## Acceptance Criteria", spec.AcceptanceCriteria)
	writeList(&b, "## Components", spec.Components)
	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading)
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

const plannerSystemPrompt = "You are a task planner. Respond only with JSON matching the schema."

const plannerSchema = `{"type":"object","properties":{"tasks":{"type":"array","items":{"type":"object","properties":{"agentRole":{"type":"string"},"description":{"type":"string"},"inputContext":{"type":"string"},"successCriteria":{"type":"string"},"targetFiles":{"type":"array","items":{"type":"string"}}}}},"executionStrategy":{"type":"string"}}}`

// PlannerOutput is the planner's raw output before the deterministic
// post-processors of spec.md §4.2 run.
type PlannerOutput struct {
	Tasks             []models.TaskPlan `json:"tasks"`
	ExecutionStrategy string             `json:"executionStrategy"`
}

// Plan calls the planner (spec.md §4.2 Planner).
func Plan(ctx context.Context, caller StructuredCaller, request string, classification *models.Classification, projectContext string, spec *models.ProductSpec) (*PlannerOutput, error) {
	prompt := buildPlannerPrompt(request, classification, projectContext, spec)

	raw, err := caller.StructuredCall(ctx, plannerSystemPrompt, prompt, plannerSchema)
	if err != nil {
		return nil, fmt.Errorf("plan mission: %w", err)
	}

	var out PlannerOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse planner output: %w", err)
	}
	return &out, nil
}

func buildPlannerPrompt(request string, classification *models.Classification, projectContext string, spec *models.ProductSpec) string {
	var b strings.Builder
	b.WriteString("Request: ")
	b.WriteString(request)
	if classification != nil {
		fmt.Fprintf(&b, "\nStrategy hint: %s\n", classification.PlanningStrategy)
	}
	if projectContext != "" {
		b.WriteString("\nProject context:\n")
		b.WriteString(projectContext)
	}
	if spec != nil {
		b.WriteString("\nApproved spec overview:\n")
		b.WriteString(spec.Overview)
	}
	return b.String()
}

const clarifierSystemPrompt = "You generate clarifying questions when a request is ambiguous. Respond only with JSON matching the schema."

const clarifierSchema = `{"type":"object","properties":{"questions":{"type":"array","items":{"type":"string"}}}}`

// ClarifyingQuestions asks the LLM whether clarifying questions are
// needed; an empty result means the request is specific enough to
// proceed straight to spec generation (spec.md §4.1 specifying stage).
func ClarifyingQuestions(ctx context.Context, caller StructuredCaller, request string) ([]string, error) {
	raw, err := caller.StructuredCall(ctx, clarifierSystemPrompt, request, clarifierSchema)
	if err != nil {
		return nil, fmt.Errorf("generate clarifying questions: %w", err)
	}

	var out struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse clarifying questions: %w", err)
	}
	return out.Questions, nil
}
