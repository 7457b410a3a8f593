package agent

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/logging"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/tool"
)

// ErrStreamConsumed is yielded when a RunStream sequence is ranged over a
// second time.
var ErrStreamConsumed = errors.New("stream already consumed")

// Handle is a validated, immutable agent ready to run. Run, RunStream and
// RunBatch may be called repeatedly and concurrently; every call gets its own
// Context over the shared Memory, tool Registry and backend.
type Handle struct {
	agent            *Agent
	model            model.Model
	memory           core.Memory
	tools            *tool.Registry
	logger           logging.Logger
	onHookError      func(*HookError)
	batchConcurrency int
}

// Agent returns the bound agent.
func (h *Handle) Agent() *Agent { return h.agent }

// Memory returns the shared conversation memory.
func (h *Handle) Memory() core.Memory { return h.memory }

// Tools returns the sealed tool registry.
func (h *Handle) Tools() *tool.Registry { return h.tools }

// Run executes task and blocks until the final Output. Failures are returned
// as *core.ExecutionError wrapping the classified cause.
func (h *Handle) Run(ctx context.Context, task core.Task) (core.Output, error) {
	rc := h.newContext(ctx, task, false)
	return h.run(rc, func(core.Output) bool { return true })
}

// RunStream executes task lazily as the returned sequence is ranged over.
// Non-terminal chunks have Done unset; the last chunk has Done set or carries
// the run's error. Breaking out of the range loop stops the run before its
// next backend call. The sequence can be consumed once.
func (h *Handle) RunStream(ctx context.Context, task core.Task) iter.Seq2[core.Output, error] {
	var consumed atomic.Bool

	return func(yield func(core.Output, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield(core.Output{Done: true}, ErrStreamConsumed)
			return
		}

		rc := h.newContext(ctx, task, true)
		stopped := false
		emit := func(chunk core.Output) bool {
			if stopped {
				return false
			}
			chunk.Done = false
			if !yield(chunk, nil) {
				stopped = true
			}
			return !stopped
		}

		out, err := h.run(rc, emit)
		if stopped {
			return
		}
		if err != nil {
			yield(core.Output{Done: true, RunID: rc.runID, Iterations: rc.limiter.Count()}, err)
			return
		}
		yield(out, nil)
	}
}

// BatchResult pairs a task with the outcome of its run.
type BatchResult struct {
	Task   core.Task
	Output core.Output
	Err    error
}

// RunBatch runs tasks concurrently with bounded parallelism. Results are
// returned in task order. Runs share the Handle's Memory; supply per-task
// Handles when conversations must stay isolated.
func (h *Handle) RunBatch(ctx context.Context, tasks []core.Task) []BatchResult {
	results := make([]BatchResult, len(tasks))

	p := pool.New().WithMaxGoroutines(h.batchConcurrency)
	for i, task := range tasks {
		p.Go(func() {
			out, err := h.Run(ctx, task)
			results[i] = BatchResult{Task: task, Output: out, Err: err}
		})
	}
	p.Wait()

	return results
}

func (h *Handle) newContext(ctx context.Context, task core.Task, stream bool) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := core.NewID()
	return &Context{
		Context:     ctx,
		runID:       runID,
		agent:       h.agent,
		task:        task,
		memory:      h.memory,
		tools:       h.tools,
		model:       h.model,
		hooks:       h.agent.hooks,
		limiter:     core.NewIterationLimiter(h.agent.executor.Config().MaxIterations),
		stream:      stream,
		logger:      logging.With(h.logger, "run_id", runID),
		onHookError: h.onHookError,
	}
}

func (h *Handle) run(rc *Context, emit Emit) (core.Output, error) {
	rc.LogInfo("agent.run.start",
		"task_id", rc.task.ID,
		"strategy", string(h.agent.executor.Strategy()),
		"stream", rc.Streaming(),
	)
	rc.fireHook(HookBeforeTask, func(hk Hooks) error { return hk.BeforeTask(rc, rc.task) })

	out, err := h.agent.executor.Execute(rc, rc.task, emit)
	if errors.Is(err, ErrStreamStopped) {
		rc.LogInfo("agent.run.stopped", "iterations", rc.limiter.Count())
		return core.Output{}, err
	}
	if err != nil {
		var execErr *core.ExecutionError
		if !errors.As(err, &execErr) {
			execErr = &core.ExecutionError{Agent: h.agent.name, RunID: rc.runID, Err: err}
		}
		rc.LogError("agent.run.error",
			"kind", core.KindOf(execErr),
			"error", err,
			"iterations", rc.limiter.Count(),
		)
		rc.fireHook(HookTaskError, func(hk Hooks) error { return hk.OnTaskError(rc, execErr) })
		return core.Output{}, execErr
	}

	out.Done = true
	out.RunID = rc.runID
	out.Iterations = rc.limiter.Count()

	rc.LogInfo("agent.run.complete", "iterations", out.Iterations)
	rc.fireHook(HookAfterTask, func(hk Hooks) error { return hk.AfterTask(rc, out) })
	return out, nil
}
