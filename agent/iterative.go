package agent

import "github.com/hupe1980/agentcore/core"

// DefaultMaxIterations bounds the iterative loop when no limit is configured.
const DefaultMaxIterations = 10

// ToolCallCancelled is the error text of the tool turns recorded for calls
// that were requested but never run because the stream consumer stopped.
const ToolCallCancelled = "cancelled: stream consumer stopped"

// IterativeExecutor drives the tool-use loop: it sends the conversation to
// the backend, invokes the requested tools in the order the model listed
// them, feeds their results back and repeats until the model declares
// completion or the iteration budget is exhausted.
type IterativeExecutor struct {
	config core.ExecutorConfig
}

// NewIterativeExecutor creates an iterative executor. Defaults:
// MaxIterations 10, auto tool choice, structured output optional.
func NewIterativeExecutor(optFns ...func(c *core.ExecutorConfig)) *IterativeExecutor {
	cfg := core.ExecutorConfig{
		MaxIterations: DefaultMaxIterations,
		ToolChoice:    core.ToolChoiceAutoPolicy(),
	}
	for _, fn := range optFns {
		fn(&cfg)
	}
	return &IterativeExecutor{config: cfg}
}

// Strategy implements Executor.
func (e *IterativeExecutor) Strategy() core.Strategy { return core.StrategyIterative }

// Config implements Executor.
func (e *IterativeExecutor) Config() core.ExecutorConfig { return e.config }

// Execute implements Executor.
func (e *IterativeExecutor) Execute(rc *Context, task core.Task, emit Emit) (core.Output, error) {
	rc.Memory().Append(core.NewUserTurn(task.Prompt))

	for {
		if err := rc.Err(); err != nil {
			return core.Output{}, err
		}

		// The limit is checked before the request is issued, so at most
		// MaxIterations backend calls happen per run.
		if err := rc.Limiter().Increment(); err != nil {
			return core.Output{}, err
		}

		req, err := rc.BuildRequest()
		if err != nil {
			return core.Output{}, err
		}

		resp, err := rc.CallModel(req)
		if err != nil {
			return core.Output{}, err
		}

		rc.Memory().Append(core.NewAssistantTurn(resp.Text, resp.ToolCalls...))

		if len(resp.ToolCalls) == 0 {
			return rc.Complete(resp)
		}

		if resp.Text != "" && !emit(rc.Chunk(resp.Text)) {
			// Every requested call still gets its tool turn, so later runs
			// never send an unanswered tool call to the backend.
			for _, call := range resp.ToolCalls {
				rc.Memory().Append(core.NewToolTurn(core.ToolResult{
					CallID: call.ID,
					Name:   call.Name,
					Error:  ToolCallCancelled,
				}))
			}
			return core.Output{}, ErrStreamStopped
		}

		for _, call := range resp.ToolCalls {
			rc.InvokeTool(call)
		}
	}
}
