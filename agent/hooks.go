package agent

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// HookPoint names a lifecycle point at which Hooks are invoked.
type HookPoint string

const (
	HookBeforeTask  HookPoint = "before_task"
	HookBeforeModel HookPoint = "before_model"
	HookAfterModel  HookPoint = "after_model"
	HookBeforeTool  HookPoint = "before_tool"
	HookAfterTool   HookPoint = "after_tool"
	HookAfterTask   HookPoint = "after_task"
	HookTaskError   HookPoint = "task_error"
)

// Hooks observes the lifecycle of a run. Hooks must not alter engine state;
// a returned error (or a panic) is logged and reported through the Handle's
// OnHookError callback but never aborts the run.
type Hooks interface {
	BeforeTask(rc *Context, task core.Task) error
	BeforeModel(rc *Context, req model.Request) error
	AfterModel(rc *Context, resp model.Response, err error) error
	BeforeTool(rc *Context, call core.FunctionCall) error
	AfterTool(rc *Context, call core.FunctionCall, result core.ToolResult) error
	AfterTask(rc *Context, out core.Output) error
	OnTaskError(rc *Context, err error) error
}

// NoOpHooks implements every lifecycle point as a no-op. Embed it to
// override only the points of interest.
type NoOpHooks struct{}

func (NoOpHooks) BeforeTask(*Context, core.Task) error                         { return nil }
func (NoOpHooks) BeforeModel(*Context, model.Request) error                    { return nil }
func (NoOpHooks) AfterModel(*Context, model.Response, error) error             { return nil }
func (NoOpHooks) BeforeTool(*Context, core.FunctionCall) error                 { return nil }
func (NoOpHooks) AfterTool(*Context, core.FunctionCall, core.ToolResult) error { return nil }
func (NoOpHooks) AfterTask(*Context, core.Output) error                        { return nil }
func (NoOpHooks) OnTaskError(*Context, error) error                            { return nil }

// HookError reports a failing hook.
type HookError struct {
	Point HookPoint
	RunID string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook %s (run %s): %v", e.Point, e.RunID, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// MultiHooks fans every lifecycle point out to several observers in order.
// Each observer is isolated: a failure of one does not skip the others.
type MultiHooks []Hooks

// NewMultiHooks composes hooks, dropping nil entries.
func NewMultiHooks(hooks ...Hooks) MultiHooks {
	out := make(MultiHooks, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

func (m MultiHooks) each(point HookPoint, fn func(Hooks) error) error {
	var errs []error
	for _, h := range m {
		if err := safeHook(point, func() error { return fn(h) }); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiHooks) BeforeTask(rc *Context, task core.Task) error {
	return m.each(HookBeforeTask, func(h Hooks) error { return h.BeforeTask(rc, task) })
}

func (m MultiHooks) BeforeModel(rc *Context, req model.Request) error {
	return m.each(HookBeforeModel, func(h Hooks) error { return h.BeforeModel(rc, req) })
}

func (m MultiHooks) AfterModel(rc *Context, resp model.Response, err error) error {
	return m.each(HookAfterModel, func(h Hooks) error { return h.AfterModel(rc, resp, err) })
}

func (m MultiHooks) BeforeTool(rc *Context, call core.FunctionCall) error {
	return m.each(HookBeforeTool, func(h Hooks) error { return h.BeforeTool(rc, call) })
}

func (m MultiHooks) AfterTool(rc *Context, call core.FunctionCall, result core.ToolResult) error {
	return m.each(HookAfterTool, func(h Hooks) error { return h.AfterTool(rc, call, result) })
}

func (m MultiHooks) AfterTask(rc *Context, out core.Output) error {
	return m.each(HookAfterTask, func(h Hooks) error { return h.AfterTask(rc, out) })
}

func (m MultiHooks) OnTaskError(rc *Context, err error) error {
	return m.each(HookTaskError, func(h Hooks) error { return h.OnTaskError(rc, err) })
}

// safeHook runs fn converting a panic into an error.
func safeHook(point HookPoint, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook %s panicked: %v", point, r)
		}
	}()
	return fn()
}
