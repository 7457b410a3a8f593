// Package tool implements the function / tool calling subsystem that lets agents
// invoke structured capabilities (APIs, computations, side-effects) with schema
// validated arguments, consistent error handling and rich metadata for LLM guidance.
package tool

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/util"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tools are registered with an agent at build time and become available for the
// model to request during iterative runs.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Be safe for concurrent use (a Handle may run several tasks at once)
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should be descriptive and follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This description is provided to the LLM to help it understand when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	// This schema is used for argument validation and LLM function calling.
	Parameters() map[string]any

	// Call executes the tool with already validated arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes attached to tool failures.
const (
	CodeUnknownTool = "UNKNOWN_TOOL"
	CodeValidation  = "VALIDATION_ERROR"
	CodeExecution   = "EXECUTION_ERROR"
	CodeDuplicate   = "DUPLICATE_TOOL"
)

// DuplicateToolError is returned when a tool name is registered twice.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool error [%s] in %s: already registered", CodeDuplicate, e.Name)
}

// Is makes DuplicateToolError match core.ErrDuplicateTool.
func (e *DuplicateToolError) Is(target error) bool { return target == core.ErrDuplicateTool }

// Code returns the error code.
func (e *DuplicateToolError) Code() string { return CodeDuplicate }

// UnknownToolError is returned when a requested tool is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool error [%s] in %s: tool not found", CodeUnknownTool, e.Name)
}

// Code returns the error code.
func (e *UnknownToolError) Code() string { return CodeUnknownTool }

// Kind implements the classified error contract.
func (e *UnknownToolError) Kind() core.ErrorKind { return core.KindUnknownTool }

// ToolArgumentError is returned when arguments cannot be decoded or do not
// satisfy the tool's input schema. The tool body is never reached.
type ToolArgumentError struct {
	Tool string
	Err  error // *ValidationError or a JSON decoding error
}

func (e *ToolArgumentError) Error() string {
	return fmt.Sprintf("tool error [%s] in %s: parameter validation failed: %v", CodeValidation, e.Tool, e.Err)
}

func (e *ToolArgumentError) Unwrap() error { return e.Err }

// Code returns the error code.
func (e *ToolArgumentError) Code() string { return CodeValidation }

// Kind implements the classified error contract.
func (e *ToolArgumentError) Kind() core.ErrorKind { return core.KindToolArgument }

// ToolExecutionError wraps a failure raised inside a tool body.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool error [%s] in %s: %v", CodeExecution, e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// Code returns the error code.
func (e *ToolExecutionError) Code() string { return CodeExecution }

// Kind implements the classified error contract.
func (e *ToolExecutionError) Kind() core.ErrorKind { return core.KindToolExecution }

// classify keeps already classified tool errors and wraps anything else as a
// ToolExecutionError for name.
func classify(name string, err error) error {
	var (
		unknownErr *UnknownToolError
		argErr     *ToolArgumentError
		execErr    *ToolExecutionError
	)
	switch {
	case errors.As(err, &unknownErr), errors.As(err, &argErr), errors.As(err, &execErr):
		return err
	}
	return &ToolExecutionError{Tool: name, Err: err}
}
