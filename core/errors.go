package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can distinguish "gave up" from "broke".
type ErrorKind string

const (
	KindBuild            ErrorKind = "build"
	KindBackend          ErrorKind = "backend"
	KindUnknownTool      ErrorKind = "unknown_tool"
	KindToolArgument     ErrorKind = "tool_argument"
	KindToolExecution    ErrorKind = "tool_execution"
	KindStructuredOutput ErrorKind = "structured_output"
	KindIterationLimit   ErrorKind = "iteration_limit"
	KindExecution        ErrorKind = "execution"
)

// Sentinel causes carried by BuildError.
var (
	ErrMissingBackend = errors.New("backend client is required")
	ErrInvalidConfig  = errors.New("invalid executor configuration")
	ErrDuplicateTool  = errors.New("duplicate tool")
)

// KindOf returns the kind of the outermost classified error in err's chain,
// or "" when the chain carries none.
func KindOf(err error) ErrorKind {
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// BuildError reports an assembly-time misconfiguration. It is returned by
// Builder.Build before any run starts.
type BuildError struct {
	Agent  string
	Reason string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("build agent %q: %v", e.Agent, e.Err)
	}
	return fmt.Sprintf("build agent %q: %v: %s", e.Agent, e.Err, e.Reason)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Kind implements the classified error contract.
func (e *BuildError) Kind() ErrorKind { return KindBuild }

// BackendError wraps a failure of the model backend. It is fatal to the run
// and never retried by the engine.
type BackendError struct {
	Model string
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Model, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Kind implements the classified error contract.
func (e *BackendError) Kind() ErrorKind { return KindBackend }

// StructuredOutputError reports a final answer that does not conform to the
// declared output schema.
type StructuredOutputError struct {
	Raw string
	Err error
}

func (e *StructuredOutputError) Error() string {
	return fmt.Sprintf("structured output: %v", e.Err)
}

func (e *StructuredOutputError) Unwrap() error { return e.Err }

// Kind implements the classified error contract.
func (e *StructuredOutputError) Kind() ErrorKind { return KindStructuredOutput }

// IterationLimitError reports that the iterative loop exhausted its budget.
type IterationLimitError struct {
	Max int
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("iteration limit exceeded: max %d backend calls", e.Max)
}

// Kind implements the classified error contract.
func (e *IterationLimitError) Kind() ErrorKind { return KindIterationLimit }

// ExecutionError is the failure value returned by a run. It names the agent
// and run and wraps the underlying (possibly classified) cause.
type ExecutionError struct {
	Agent string
	RunID string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("agent %q run %s: %v", e.Agent, e.RunID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Kind reports the kind of the wrapped cause, falling back to KindExecution.
func (e *ExecutionError) Kind() ErrorKind {
	if k := KindOf(e.Err); k != "" {
		return k
	}
	return KindExecution
}
