package agent

import (
	"fmt"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/logging"
	"github.com/hupe1980/agentcore/memory"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/tool"
)

const (
	// DefaultMemoryCapacity is the sliding window size used when the builder
	// is given no Memory.
	DefaultMemoryCapacity = 20
	// DefaultBatchConcurrency bounds RunBatch fan-out.
	DefaultBatchConcurrency = 4
)

// Builder collects the dependencies of a Handle. It is mutable and not safe
// for concurrent use; Build validates everything once and returns an
// immutable Handle or a *core.BuildError.
type Builder struct {
	agent            *Agent
	model            model.Model
	memory           core.Memory
	logger           logging.Logger
	onHookError      func(*HookError)
	batchConcurrency int
}

// NewBuilder starts assembling a Handle for a.
func NewBuilder(a *Agent) *Builder {
	return &Builder{agent: a, batchConcurrency: DefaultBatchConcurrency}
}

// Model sets the backend. Required.
func (b *Builder) Model(m model.Model) *Builder { b.model = m; return b }

// Memory sets the conversation memory shared by all runs of the Handle.
func (b *Builder) Memory(m core.Memory) *Builder { b.memory = m; return b }

// Logger sets the engine logger.
func (b *Builder) Logger(l logging.Logger) *Builder { b.logger = l; return b }

// OnHookError registers the side channel receiving hook failures.
func (b *Builder) OnHookError(fn func(*HookError)) *Builder { b.onHookError = fn; return b }

// BatchConcurrency bounds the number of concurrent runs in RunBatch.
func (b *Builder) BatchConcurrency(n int) *Builder { b.batchConcurrency = n; return b }

// Build validates the configuration and returns a runnable Handle.
func (b *Builder) Build() (*Handle, error) {
	if b.agent == nil {
		return nil, &core.BuildError{Err: core.ErrInvalidConfig, Reason: "agent is required"}
	}
	name := b.agent.name

	if b.model == nil {
		return nil, &core.BuildError{Agent: name, Err: core.ErrMissingBackend}
	}

	cfg := b.agent.executor.Config()
	if b.agent.executor.Strategy() == core.StrategyIterative && cfg.MaxIterations < 1 {
		return nil, &core.BuildError{
			Agent:  name,
			Err:    core.ErrInvalidConfig,
			Reason: fmt.Sprintf("max iterations must be >= 1, got %d", cfg.MaxIterations),
		}
	}
	if cfg.RequireStructuredOutput && b.agent.outputSchema == nil {
		return nil, &core.BuildError{
			Agent:  name,
			Err:    core.ErrInvalidConfig,
			Reason: "structured output required but no output schema declared",
		}
	}
	if b.batchConcurrency < 1 {
		return nil, &core.BuildError{
			Agent:  name,
			Err:    core.ErrInvalidConfig,
			Reason: fmt.Sprintf("batch concurrency must be >= 1, got %d", b.batchConcurrency),
		}
	}

	registry := tool.NewRegistry()
	for _, t := range b.agent.tools {
		if err := registry.Register(t); err != nil {
			return nil, &core.BuildError{Agent: name, Err: err}
		}
	}
	registry.Seal()

	if cfg.ToolChoice.Mode == core.ToolChoiceForced {
		if _, err := registry.Resolve(cfg.ToolChoice.Name); err != nil {
			return nil, &core.BuildError{
				Agent:  name,
				Err:    core.ErrInvalidConfig,
				Reason: fmt.Sprintf("forced tool %q is not declared", cfg.ToolChoice.Name),
			}
		}
	}

	mem := b.memory
	if mem == nil {
		mem = memory.MustSlidingWindow(DefaultMemoryCapacity)
	}

	logger := b.logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &Handle{
		agent:            b.agent,
		model:            b.model,
		memory:           mem,
		tools:            registry,
		logger:           logging.With(logger, "agent", name),
		onHookError:      b.onHookError,
		batchConcurrency: b.batchConcurrency,
	}, nil
}
