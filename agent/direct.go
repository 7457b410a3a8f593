package agent

import "github.com/hupe1980/agentcore/core"

// DirectExecutor issues exactly one backend call per run and never invokes
// tools. The prompt and the reply are appended to Memory together once the
// backend call succeeded, so a failed run leaves Memory untouched.
type DirectExecutor struct {
	requireStructured bool
}

// DirectOptions configures a DirectExecutor.
type DirectOptions struct {
	RequireStructuredOutput bool
}

// NewDirectExecutor creates a single-shot executor.
func NewDirectExecutor(optFns ...func(o *DirectOptions)) *DirectExecutor {
	opts := DirectOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &DirectExecutor{requireStructured: opts.RequireStructuredOutput}
}

// Strategy implements Executor.
func (e *DirectExecutor) Strategy() core.Strategy { return core.StrategyDirect }

// Config implements Executor. Tools are never offered to the backend.
func (e *DirectExecutor) Config() core.ExecutorConfig {
	return core.ExecutorConfig{
		MaxIterations:           1,
		ToolChoice:              core.ToolChoiceNonePolicy(),
		RequireStructuredOutput: e.requireStructured,
	}
}

// Execute implements Executor.
func (e *DirectExecutor) Execute(rc *Context, task core.Task, _ Emit) (core.Output, error) {
	prompt := core.NewUserTurn(task.Prompt)

	req, err := rc.BuildRequest(prompt)
	if err != nil {
		return core.Output{}, err
	}

	if err := rc.Limiter().Increment(); err != nil {
		return core.Output{}, err
	}

	resp, err := rc.CallModel(req)
	if err != nil {
		return core.Output{}, err
	}

	if len(resp.ToolCalls) > 0 {
		rc.LogWarn("agent.direct.tool_calls_ignored", "count", len(resp.ToolCalls))
	}

	rc.Memory().Append(prompt)
	rc.Memory().Append(core.NewAssistantTurn(resp.Text))

	return rc.Complete(resp)
}
