package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/logging"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/tool"
)

// Context is the per-run bundle handed to executors and hooks. It embeds the
// caller's context.Context for cancellation and shares Memory, the tool
// Registry and the backend with every other run of the same Handle.
type Context struct {
	context.Context

	runID       string
	agent       *Agent
	task        core.Task
	memory      core.Memory
	tools       *tool.Registry
	model       model.Model
	hooks       Hooks
	limiter     *core.IterationLimiter
	stream      bool
	logger      logging.Logger
	onHookError func(*HookError)
}

// RunID returns the identifier of this run.
func (rc *Context) RunID() string { return rc.runID }

// Agent returns the agent being run.
func (rc *Context) Agent() *Agent { return rc.agent }

// Task returns the task being executed.
func (rc *Context) Task() core.Task { return rc.task }

// Memory returns the shared conversation memory.
func (rc *Context) Memory() core.Memory { return rc.memory }

// Tools returns the sealed tool registry.
func (rc *Context) Tools() *tool.Registry { return rc.tools }

// Model returns the backend.
func (rc *Context) Model() model.Model { return rc.model }

// Limiter returns the per-run backend call budget.
func (rc *Context) Limiter() *core.IterationLimiter { return rc.limiter }

// Streaming reports whether the run was started through RunStream.
func (rc *Context) Streaming() bool { return rc.stream }

// Logger returns the run-scoped logger.
func (rc *Context) Logger() logging.Logger { return rc.logger }

// LogDebug logs a debug message.
func (rc *Context) LogDebug(msg string, args ...any) { rc.logger.Debug(msg, args...) }

// LogInfo logs an info message.
func (rc *Context) LogInfo(msg string, args ...any) { rc.logger.Info(msg, args...) }

// LogWarn logs a warning message.
func (rc *Context) LogWarn(msg string, args ...any) { rc.logger.Warn(msg, args...) }

// LogError logs an error message.
func (rc *Context) LogError(msg string, args ...any) { rc.logger.Error(msg, args...) }

// BuildRequest assembles a backend request from the instruction, the Memory
// snapshot followed by extra (with tool calls and results paired up, see
// model.PairToolTurns), the tools allowed by the tool choice policy and the
// output schema hint.
func (rc *Context) BuildRequest(extra ...core.Turn) (model.Request, error) {
	instructions, err := rc.agent.instruction.Resolve(rc, rc.task)
	if err != nil {
		return model.Request{}, fmt.Errorf("resolve instruction: %w", err)
	}

	turns := model.PairToolTurns(append(rc.memory.Snapshot(), extra...))

	policy := rc.agent.executor.Config().ToolChoice
	var defs []model.ToolDefinition
	for _, t := range rc.tools.Tools() {
		if !policy.Allows(t.Name()) {
			continue
		}
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return model.Request{
		Instructions: instructions,
		Turns:        turns,
		Tools:        defs,
		OutputSchema: rc.agent.outputSchema,
		Stream:       rc.stream,
	}, nil
}

// CallModel sends req to the backend and waits for the final response.
// Failures are returned as *core.BackendError and never retried.
func (rc *Context) CallModel(req model.Request) (model.Response, error) {
	rc.fireHook(HookBeforeModel, func(h Hooks) error { return h.BeforeModel(rc, req) })

	start := time.Now()
	rc.LogDebug("agent.model.call",
		"iteration", rc.limiter.Count(),
		"turns", len(req.Turns),
		"tools", len(req.Tools),
	)

	resp, err := model.Collect(rc, rc.model, req)

	rc.fireHook(HookAfterModel, func(h Hooks) error { return h.AfterModel(rc, resp, err) })

	if err != nil {
		rc.LogError("agent.model.error", "error", err, "duration", time.Since(start))
		return model.Response{}, &core.BackendError{Model: rc.model.Info().Name, Err: err}
	}

	rc.LogDebug("agent.model.response",
		"tool_calls", len(resp.ToolCalls),
		"finish_reason", resp.FinishReason,
		"duration", time.Since(start),
	)
	return resp, nil
}

// InvokeTool runs the invocation protocol for one requested call and appends
// exactly one tool turn to Memory, whether the call succeeded or failed.
// Tool failures are never returned; they become the turn's error text so the
// model can react to them.
func (rc *Context) InvokeTool(call core.FunctionCall) core.ToolResult {
	rc.fireHook(HookBeforeTool, func(h Hooks) error { return h.BeforeTool(rc, call) })

	start := time.Now()

	var (
		res any
		err error
	)
	if rc.agent.executor.Config().ToolChoice.Allows(call.Name) {
		toolCtx := core.NewToolContext(rc, core.ToolContextParams{
			RunID:          rc.runID,
			FunctionCallID: call.ID,
			AgentName:      rc.agent.name,
			Task:           rc.task,
			Memory:         rc.memory,
			Logger:         rc.logger,
		})
		res, err = rc.tools.Invoke(toolCtx, call.Name, call.Arguments)
	} else {
		err = &tool.UnknownToolError{Name: call.Name}
	}

	result := core.ToolResult{CallID: call.ID, Name: call.Name, Result: res}
	if err != nil {
		result.Result = nil
		result.Error = err.Error()
	}

	rc.memory.Append(core.NewToolTurn(result))

	if err != nil {
		rc.LogWarn("agent.tool.executed",
			"tool", call.Name,
			"call_id", call.ID,
			"kind", core.KindOf(err),
			"error", err,
			"duration", time.Since(start),
		)
	} else {
		rc.LogInfo("agent.tool.executed",
			"tool", call.Name,
			"call_id", call.ID,
			"duration", time.Since(start),
		)
	}

	rc.fireHook(HookAfterTool, func(h Hooks) error { return h.AfterTool(rc, call, result) })
	return result
}

// Complete turns a completion reply into the final Output, decoding and
// validating structured output against the agent's schema when one is declared.
func (rc *Context) Complete(resp model.Response) (core.Output, error) {
	out := core.Output{
		Response:   resp.Text,
		Done:       true,
		RunID:      rc.runID,
		Iterations: rc.limiter.Count(),
	}

	schema := rc.agent.outputSchema
	if schema == nil {
		return out, nil
	}

	value, err := structuredValue(resp, schema)
	if err != nil {
		if rc.agent.executor.Config().RequireStructuredOutput {
			return core.Output{}, err
		}
		rc.LogDebug("agent.structured.skipped", "error", err)
		return out, nil
	}
	out.Structured = value
	return out, nil
}

// Chunk builds a non-terminal streamed Output.
func (rc *Context) Chunk(text string) core.Output {
	return core.Output{
		Response:   text,
		RunID:      rc.runID,
		Iterations: rc.limiter.Count(),
	}
}

// fireHook invokes a lifecycle point in isolation: errors and panics are
// logged and reported, never propagated.
func (rc *Context) fireHook(point HookPoint, fn func(Hooks) error) {
	err := safeHook(point, func() error { return fn(rc.hooks) })
	if err == nil {
		return
	}
	rc.LogWarn("agent.hook.error", "point", string(point), "run_id", rc.runID, "error", err)
	if rc.onHookError != nil {
		rc.onHookError(&HookError{Point: point, RunID: rc.runID, Err: err})
	}
}
