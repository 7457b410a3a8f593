// Package agentcore provides a high-level façade over the agent execution
// engine. Most applications interact with this package by:
//  1. Creating a model backend (model/openai, model/anthropic, model/ollama, model/gemini)
//  2. Building a runnable handle via NewDirect or NewIterative
//  3. Running tasks synchronously (Run), incrementally (RunStream) or in bulk (RunBatch)
//
// The façade delegates to agent.Builder while keeping setup concise. All
// defaults are safe for local development: an in-process sliding window
// memory, no-op logging and hooks. Use the agent package directly for custom
// executors.
package agentcore

import (
	"github.com/hupe1980/agentcore/agent"
	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/logging"
	"github.com/hupe1980/agentcore/memory"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/tool"
)

// Options configures a handle built by NewDirect or NewIterative.
type Options struct {
	Description string
	// Instruction is the system prompt. It may reference task metadata with
	// {{ .key }} placeholders.
	Instruction  string
	OutputSchema *model.OutputSchema
	Tools        []tool.Tool

	// MemoryCapacity sizes the sliding window when Memory is nil.
	MemoryCapacity int
	Memory         core.Memory

	// Iterative executor only.
	MaxIterations int
	ToolChoice    core.ToolChoice

	RequireStructuredOutput bool

	Hooks            agent.Hooks
	OnHookError      func(*agent.HookError)
	Logger           logging.Logger
	BatchConcurrency int
}

func defaultOptions() Options {
	return Options{
		MemoryCapacity:   agent.DefaultMemoryCapacity,
		MaxIterations:    agent.DefaultMaxIterations,
		ToolChoice:       core.ToolChoiceAutoPolicy(),
		Logger:           logging.NoOpLogger{},
		BatchConcurrency: agent.DefaultBatchConcurrency,
	}
}

// NewDirect builds a handle issuing exactly one backend call per run.
func NewDirect(name string, m model.Model, optFns ...func(o *Options)) (*agent.Handle, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	exec := agent.NewDirectExecutor(func(o *agent.DirectOptions) {
		o.RequireStructuredOutput = opts.RequireStructuredOutput
	})
	return build(name, m, exec, opts)
}

// NewIterative builds a handle running the tool-use loop.
func NewIterative(name string, m model.Model, optFns ...func(o *Options)) (*agent.Handle, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	exec := agent.NewIterativeExecutor(func(c *core.ExecutorConfig) {
		c.MaxIterations = opts.MaxIterations
		c.ToolChoice = opts.ToolChoice
		c.RequireStructuredOutput = opts.RequireStructuredOutput
	})
	return build(name, m, exec, opts)
}

func build(name string, m model.Model, exec agent.Executor, opts Options) (*agent.Handle, error) {
	a := agent.New(name, func(o *agent.Options) {
		o.Description = opts.Description
		if opts.Instruction != "" {
			o.Instruction = agent.NewInstructionFromText(opts.Instruction)
		}
		o.OutputSchema = opts.OutputSchema
		o.Tools = opts.Tools
		o.Executor = exec
		o.Hooks = opts.Hooks
	})

	mem := opts.Memory
	if mem == nil {
		window, err := memory.NewSlidingWindow(opts.MemoryCapacity)
		if err != nil {
			return nil, &core.BuildError{Agent: name, Err: core.ErrInvalidConfig, Reason: err.Error()}
		}
		mem = window
	}

	return agent.NewBuilder(a).
		Model(m).
		Memory(mem).
		Logger(opts.Logger).
		OnHookError(opts.OnHookError).
		BatchConcurrency(opts.BatchConcurrency).
		Build()
}
