package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/util"
)

// ErrRegistrySealed is returned by Register once the registry has been sealed.
var ErrRegistrySealed = errors.New("tool registry is sealed")

// Registry is the catalog of tools available to an agent. Tools are
// registered at build time; after Seal the registry is read-only and safe for
// concurrent lookups without further coordination.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	sealed bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t. A second tool with an already registered name is rejected
// with *DuplicateToolError and the first registration is kept.
func (r *Registry) Register(t Tool) error {
	if t == nil || t.Name() == "" {
		return fmt.Errorf("tool must have a non-empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRegistrySealed
	}
	if _, exists := r.tools[t.Name()]; exists {
		return &DuplicateToolError{Name: t.Name()}
	}
	r.tools[t.Name()] = t
	r.order = append(r.order, t.Name())
	return nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Resolve returns the tool registered under name or *UnknownToolError.
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return t, nil
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Invoke runs the invocation protocol for one call:
//  1. resolve the tool (*UnknownToolError when absent)
//  2. decode and validate rawArgs against its schema (*ToolArgumentError)
//  3. call it, wrapping failures and panics as *ToolExecutionError
func (r *Registry) Invoke(toolCtx *core.ToolContext, name, rawArgs string) (any, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}

	args, err := DecodeArguments(rawArgs)
	if err != nil {
		return nil, &ToolArgumentError{Tool: name, Err: err}
	}

	if err := util.ValidateParameters(args, t.Parameters()); err != nil {
		return nil, &ToolArgumentError{Tool: name, Err: err}
	}

	return call(toolCtx, t, args)
}

// call executes t with panic safety.
func call(toolCtx *core.ToolContext, t Tool, args map[string]any) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			toolCtx.LogError("tool.call.panic", "tool", t.Name(), "recover", rec)
			result, err = nil, &ToolExecutionError{Tool: t.Name(), Err: &PanicError{Value: rec, Stack: debug.Stack()}}
		}
	}()

	result, err = t.Call(toolCtx, args)
	if err != nil {
		return nil, classify(t.Name(), err)
	}
	return result, nil
}

// DecodeArguments parses a raw JSON argument payload. An empty payload decodes
// to an empty map.
func DecodeArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// PanicError carries a recovered panic value and the stack it was raised on.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string { return fmt.Sprintf("panic recovered: %v", p.Value) }
