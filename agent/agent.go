package agent

import (
	"fmt"

	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/tool"
)

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	Description  string
	Instruction  Instruction
	OutputSchema *model.OutputSchema
	Tools        []tool.Tool
	Executor     Executor
	Hooks        Hooks
}

// Agent binds an execution strategy to static metadata: name, description,
// output schema and declared tools. It is immutable after New and safe to
// share between Handles.
type Agent struct {
	name         string
	description  string
	instruction  Instruction
	outputSchema *model.OutputSchema
	tools        []tool.Tool
	executor     Executor
	hooks        Hooks
}

// Metadata is the static description of an agent exposed to callers and
// documentation tooling.
type Metadata struct {
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	OutputSchema *model.OutputSchema `json:"output_schema,omitempty"`
	Tools        []string            `json:"tools"`
	Strategy     string              `json:"strategy"`
}

// New creates an agent. Without options it uses a DirectExecutor, no tools
// and a generic assistant instruction.
func New(name string, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Instruction: NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		Executor:    NewDirectExecutor(),
		Hooks:       NoOpHooks{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Executor == nil {
		opts.Executor = NewDirectExecutor()
	}
	if opts.Hooks == nil {
		opts.Hooks = NoOpHooks{}
	}

	tools := make([]tool.Tool, len(opts.Tools))
	copy(tools, opts.Tools)

	return &Agent{
		name:         name,
		description:  opts.Description,
		instruction:  opts.Instruction,
		outputSchema: opts.OutputSchema,
		tools:        tools,
		executor:     opts.Executor,
		hooks:        opts.Hooks,
	}
}

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// Description returns a human readable description of the agent.
func (a *Agent) Description() string { return a.description }

// Instruction returns the configured system instruction.
func (a *Agent) Instruction() Instruction { return a.instruction }

// OutputSchema returns the declared output schema or nil.
func (a *Agent) OutputSchema() *model.OutputSchema { return a.outputSchema }

// Tools returns a copy of the declared tools in declaration order.
func (a *Agent) Tools() []tool.Tool {
	out := make([]tool.Tool, len(a.tools))
	copy(out, a.tools)
	return out
}

// Executor returns the bound execution strategy.
func (a *Agent) Executor() Executor { return a.executor }

// Hooks returns the lifecycle observer.
func (a *Agent) Hooks() Hooks { return a.hooks }

// Metadata returns the static agent description.
func (a *Agent) Metadata() Metadata {
	names := make([]string, 0, len(a.tools))
	for _, t := range a.tools {
		names = append(names, t.Name())
	}
	return Metadata{
		Name:         a.name,
		Description:  a.description,
		OutputSchema: a.outputSchema,
		Tools:        names,
		Strategy:     string(a.executor.Strategy()),
	}
}
