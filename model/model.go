package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agentcore/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// OutputSchema describes the structured answer an agent expects. It is sent
// to the backend as a hint; conformance is checked by the executor.
type OutputSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema"`
	Strict      bool           `json:"strict"`
}

// Request captures the normalized model input produced by executors.
type Request struct {
	Instructions string           `json:"instructions,omitempty"` // System prompt
	Turns        []core.Turn      `json:"turns"`                  // Conversation in chronological order
	Tools        []ToolDefinition `json:"tools,omitempty"`
	OutputSchema *OutputSchema    `json:"output_schema,omitempty"`
	Stream       bool             `json:"stream"` // Ask the backend for incremental text deltas
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) reply emitted by a backend. A final
// response either requests tool calls or declares completion through Done.
type Response struct {
	ID           string              `json:"id,omitempty"`
	Partial      bool                `json:"partial"` // Text delta of a reply still being produced
	Text         string              `json:"text,omitempty"`
	Structured   any                 `json:"structured,omitempty"` // Set by backends that decode structured output themselves
	ToolCalls    []core.FunctionCall `json:"tool_calls,omitempty"`
	Done         bool                `json:"done"`
	FinishReason string              `json:"finish_reason,omitempty"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage         `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name                     string `json:"name"`
	Provider                 string `json:"provider"` // "openai", "anthropic", "ollama", "gemini", "mock"
	SupportsTools            bool   `json:"supports_tools"`
	SupportsStructuredOutput bool   `json:"supports_structured_output"`
}

// Model is the minimal interface required by executors to drive generation.
// Generate returns a response channel (zero or more partial responses then
// one final response) and an error channel; both are closed when the backend
// is finished. Implementations must be safe for concurrent use.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Send delivers r on out unless ctx ends first. Backends use it for every
// send so their goroutine exits once the consumer stopped reading.
func Send(ctx context.Context, out chan<- Response, r Response) bool {
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// ErrNoResponse is returned by Collect when a backend closes without a final response.
var ErrNoResponse = errors.New("backend returned no final response")

// Collect drains a Generate call and returns the final response. Partial
// text deltas are concatenated into the final text when the final response
// carries none.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final    *Response
		partials strings.Builder
		firstErr error
	)
	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				partials.WriteString(resp.Text)
				continue
			}
			r := resp
			final = &r
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}

	if firstErr != nil {
		return Response{}, firstErr
	}
	if final == nil {
		return Response{}, ErrNoResponse
	}
	if final.Text == "" && partials.Len() > 0 {
		final.Text = partials.String()
	}
	return *final, nil
}

// Finalize fills Done and FinishReason on a final response built by an
// adapter: a reply without tool calls is a completion.
func Finalize(resp Response) Response {
	resp.Partial = false
	resp.Done = len(resp.ToolCalls) == 0
	if resp.FinishReason == "" {
		if resp.Done {
			resp.FinishReason = "stop"
		} else {
			resp.FinishReason = "tool_calls"
		}
	}
	for i := range resp.ToolCalls {
		if resp.ToolCalls[i].ID == "" {
			resp.ToolCalls[i].ID = core.NewID()
		}
	}
	return resp
}

// LastUserText returns the text of the most recent user turn in req.
func LastUserText(req Request) string {
	for i := len(req.Turns) - 1; i >= 0; i-- {
		if req.Turns[i].Role == core.RoleUser {
			return req.Turns[i].Content
		}
	}
	return ""
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// It answers with a canned completion per prompt and never requests tools.
type MockModel struct {
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:                     name,
			Provider:                 "mock",
			SupportsStructuredOutput: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
// Register responses before sharing the model between goroutines.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Generate implements Model; emits the canned (or echoed) completion.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if len(req.Turns) == 0 {
			errCh <- fmt.Errorf("no turns provided")
			return
		}
		input := LastUserText(req)
		full, ok := m.responses[input]
		if !ok {
			full = fmt.Sprintf("Mock response to: %s", input)
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Finalize(Response{Text: full}):
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
