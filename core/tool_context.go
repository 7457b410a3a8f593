package core

import (
	"context"

	"github.com/hupe1980/agentcore/logging"
)

// ToolContext provides a constrained, read-only surface for tool
// implementations invoked during a run: cancellation, correlation ids, the
// task being worked on, a logger and a snapshot view of the conversation.
type ToolContext struct {
	ctx            context.Context
	runID          string
	functionCallID string
	agentName      string
	task           Task
	memory         Memory

	*loggerAdapter
}

// ToolContextParams bundles the values a ToolContext is built from.
type ToolContextParams struct {
	RunID          string
	FunctionCallID string
	AgentName      string
	Task           Task
	Memory         Memory
	Logger         logging.Logger
}

// NewToolContext constructs a tool context bound to ctx.
func NewToolContext(ctx context.Context, p ToolContextParams) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ToolContext{
		ctx:            ctx,
		runID:          p.RunID,
		functionCallID: p.FunctionCallID,
		agentName:      p.AgentName,
		task:           p.Task,
		memory:         p.Memory,
		loggerAdapter:  newLoggerAdapter(p.Logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runID }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentName returns the agent name associated with the tool invocation.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// Task returns the task being executed.
func (tc *ToolContext) Task() Task { return tc.task }

// History returns a snapshot of the conversation at invocation time.
func (tc *ToolContext) History() []Turn {
	if tc.memory == nil {
		return nil
	}
	return tc.memory.Snapshot()
}
