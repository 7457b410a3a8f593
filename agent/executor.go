package agent

import (
	"errors"

	"github.com/hupe1980/agentcore/core"
)

// ErrStreamStopped is returned by an executor when the consumer of a streamed
// run stopped pulling chunks.
var ErrStreamStopped = errors.New("stream consumer stopped")

// Emit delivers a non-terminal chunk to the caller. It returns false once the
// consumer stopped; the executor must then return ErrStreamStopped without
// issuing further backend calls or appending further turns.
type Emit func(core.Output) bool

// Executor is the execution strategy contract. Execute turns a task into the
// final Output (the Handle marks it done); intermediate chunks go through emit,
// which is never nil.
type Executor interface {
	Strategy() core.Strategy
	Config() core.ExecutorConfig
	Execute(rc *Context, task core.Task, emit Emit) (core.Output, error)
}
