package tool

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/util"
)

// Func is the signature of a function exposed through FunctionTool.
type Func func(toolCtx *core.ToolContext, args map[string]any) (any, error)

// FunctionTool exposes a plain Go function as a Tool. Call validates the
// arguments against the declared schema itself, so a FunctionTool is usable
// outside a Registry too. It holds no mutable state.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          Func
}

// NewFunctionTool wraps fn with an explicit parameter schema. A nil schema
// declares an object without properties.
//
//	sum := NewFunctionTool("sum", "Add two numbers", map[string]any{
//		"type": "object",
//		"properties": map[string]any{
//			"a": map[string]any{"type": "number"},
//			"b": map[string]any{"type": "number"},
//		},
//		"required": []string{"a", "b"},
//	}, func(_ *core.ToolContext, args map[string]any) (any, error) {
//		return args["a"].(float64) + args["b"].(float64), nil
//	})
func NewFunctionTool(name, description string, parameters map[string]any, fn Func) *FunctionTool {
	if parameters == nil {
		parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
}

// NewFunctionToolFromStruct derives the parameter schema from the fields of
// structType (json and description tags).
func NewFunctionToolFromStruct(name, description string, structType any, fn Func) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

// NewTypedTool derives the schema from T and hands fn the validated arguments
// decoded into a T.
func NewTypedTool[T any](name, description string, fn func(toolCtx *core.ToolContext, args T) (any, error)) *FunctionTool {
	var zero T
	return NewFunctionToolFromStruct(name, description, zero, func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
		var typed T
		raw, err := json.Marshal(args)
		if err == nil {
			err = json.Unmarshal(raw, &typed)
		}
		if err != nil {
			return nil, &ToolArgumentError{Tool: name, Err: fmt.Errorf("decode arguments: %w", err)}
		}
		return fn(toolCtx, typed)
	})
}

func (t *FunctionTool) Name() string               { return t.name }
func (t *FunctionTool) Description() string        { return t.description }
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args and invokes the wrapped function. Schema mismatches are
// returned as *ToolArgumentError, anything else the function returns as
// *ToolExecutionError.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		toolCtx.LogDebug("tool.args.invalid", "tool", t.name, "error", err)
		return nil, &ToolArgumentError{Tool: t.name, Err: err}
	}

	start := time.Now()
	result, err := t.fn(toolCtx, args)
	toolCtx.LogDebug("tool.call",
		"tool", t.name,
		"call_id", toolCtx.FunctionCallID(),
		"duration", time.Since(start),
		"ok", err == nil,
	)
	if err != nil {
		return nil, classify(t.name, err)
	}
	return result, nil
}
