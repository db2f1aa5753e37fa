package llmclient

import (
	"context"

	"github.com/google/uuid"
)

// StructuredCaller is the LLM structured-call interface consumed by the
// classifier, spec generator, clarifier, planner, and post-mission stages
// (spec.md §6). Each call is tagged with a correlation id for event-stream
// payloads.
type StructuredCaller interface {
	StructuredCall(ctx context.Context, systemPrompt, userPrompt, resultSchema string) (string, error)
	StructuredCallWithTools(ctx context.Context, systemPrompt, userPrompt, resultSchema string, tools []string) (string, error)
}

// Client wraps an Invoker to implement StructuredCaller.
type Client struct {
	inv *Invoker
}

// NewClient returns a Client backed by a fresh Invoker.
func NewClient(inv *Invoker) *Client {
	if inv == nil {
		inv = NewInvoker()
	}
	return &Client{inv: inv}
}

// StructuredCall sends one system/user prompt pair and a result schema,
// returning the raw JSON content (already unwrapped from the CLI's
// envelope fields).
func (c *Client) StructuredCall(ctx context.Context, systemPrompt, userPrompt, resultSchema string) (string, error) {
	correlationID := uuid.NewString()

	prior := c.inv.SystemPrompt
	c.inv.SystemPrompt = systemPrompt
	defer func() { c.inv.SystemPrompt = prior }()

	resp, err := c.inv.Invoke(ctx, Request{
		Prompt: userPrompt,
		Schema: resultSchema,
	})
	if err != nil {
		return "", &CallError{CorrelationID: correlationID, Cause: err}
	}

	content, _, err := ParseResponse(resp.RawOutput)
	if err != nil {
		return "", &CallError{CorrelationID: correlationID, Cause: err}
	}
	return content, nil
}

// StructuredCallWithTools is StructuredCall plus an --agents tool
// manifest; tools is serialised as an agent definition understood by the
// underlying CLI's --agents flag.
func (c *Client) StructuredCallWithTools(ctx context.Context, systemPrompt, userPrompt, resultSchema string, tools []string) (string, error) {
	correlationID := uuid.NewString()

	prior := c.inv.SystemPrompt
	c.inv.SystemPrompt = systemPrompt
	defer func() { c.inv.SystemPrompt = prior }()

	resp, err := c.inv.Invoke(ctx, Request{
		Prompt:    userPrompt,
		Schema:    resultSchema,
		AgentJSON: toolsToAgentJSON(tools),
	})
	if err != nil {
		return "", &CallError{CorrelationID: correlationID, Cause: err}
	}

	content, _, err := ParseResponse(resp.RawOutput)
	if err != nil {
		return "", &CallError{CorrelationID: correlationID, Cause: err}
	}
	return content, nil
}

// CallError wraps an underlying invocation error with the correlation id
// assigned to that call, for inclusion in event-stream payloads.
type CallError struct {
	CorrelationID string
	Cause         error
}

func (e *CallError) Error() string {
	return e.CorrelationID + ": " + e.Cause.Error()
}

func (e *CallError) Unwrap() error {
	return e.Cause
}

// toolsToAgentJSON is a minimal placeholder manifest builder; the core
// structured-call contract (spec.md §6) treats tools as opaque names, not
// full agent definitions.
func toolsToAgentJSON(tools []string) string {
	if len(tools) == 0 {
		return ""
	}
	manifest := `{`
	for i, t := range tools {
		if i > 0 {
			manifest += ","
		}
		manifest += `"` + t + `":{"description":"","prompt":"","tools":[]}`
	}
	manifest += `}`
	return manifest
}
