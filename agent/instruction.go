package agent

import (
	"context"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from the task, environment, etc.
type Provider interface {
	Instruction(ctx context.Context, task core.Task) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(ctx context.Context, task core.Task) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(ctx context.Context, task core.Task) (string, error) { return f(ctx, task) }

// Instruction represents either a static instruction template or a dynamic provider.
// Static text may reference task metadata with {{ .key }} placeholders.
type Instruction struct {
	text     string
	tmpl     *util.Template
	parseErr error
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static template string.
// The template is parsed once; a parse error surfaces on every Resolve.
func NewInstructionFromText(text string) Instruction {
	tmpl, err := util.ParseTemplate(text)
	return Instruction{text: text, tmpl: tmpl, parseErr: err}
}

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(ctx context.Context, task core.Task) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero reports whether no instruction was configured.
func (i Instruction) IsZero() bool { return i.provider == nil && i.text == "" }

// Resolve returns the instruction text, invoking the provider or rendering
// the static template against the task metadata.
func (i Instruction) Resolve(ctx context.Context, task core.Task) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx, task)
	}
	if i.parseErr != nil {
		return "", i.parseErr
	}
	if i.tmpl == nil {
		return "", nil
	}
	return i.tmpl.Render(task.MetadataMap())
}
