package agent_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/agent"
	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/testutil"
	"github.com/hupe1980/agentcore/model"
)

type recordingHooks struct {
	mu     sync.Mutex
	points []agent.HookPoint
}

func (h *recordingHooks) record(p agent.HookPoint) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.points = append(h.points, p)
	return nil
}

func (h *recordingHooks) BeforeTask(*agent.Context, core.Task) error {
	return h.record(agent.HookBeforeTask)
}

func (h *recordingHooks) BeforeModel(*agent.Context, model.Request) error {
	return h.record(agent.HookBeforeModel)
}

func (h *recordingHooks) AfterModel(*agent.Context, model.Response, error) error {
	return h.record(agent.HookAfterModel)
}

func (h *recordingHooks) BeforeTool(*agent.Context, core.FunctionCall) error {
	return h.record(agent.HookBeforeTool)
}

func (h *recordingHooks) AfterTool(*agent.Context, core.FunctionCall, core.ToolResult) error {
	return h.record(agent.HookAfterTool)
}

func (h *recordingHooks) AfterTask(*agent.Context, core.Output) error {
	return h.record(agent.HookAfterTask)
}

func (h *recordingHooks) OnTaskError(*agent.Context, error) error {
	return h.record(agent.HookTaskError)
}

type faultyHooks struct{ agent.NoOpHooks }

func (faultyHooks) BeforeModel(*agent.Context, model.Request) error { return errors.New("observer down") }

func (faultyHooks) AfterTool(*agent.Context, core.FunctionCall, core.ToolResult) error {
	panic("observer crashed")
}

func TestHooks_LifecycleOrderAndIsolation(t *testing.T) {
	var (
		mu      sync.Mutex
		invoked []string
	)
	recorder := &recordingHooks{}
	hooks := agent.NewMultiHooks(faultyHooks{}, nil, recorder)

	m := testutil.NewScriptedModel(
		testutil.ToolCalls("", testutil.Call("c1", "add", `{"a":1,"b":2}`)),
		testutil.Text("3"),
	)

	var (
		hookMu     sync.Mutex
		hookErrors []*agent.HookError
	)
	h, err := agent.NewBuilder(iterativeCalc(&invoked, &mu, hooks)).
		Model(m).
		OnHookError(func(e *agent.HookError) {
			hookMu.Lock()
			defer hookMu.Unlock()
			hookErrors = append(hookErrors, e)
		}).
		Build()
	require.NoError(t, err)

	out, err := h.Run(context.Background(), core.NewTask("1+2"))
	require.NoError(t, err)
	assert.Equal(t, "3", out.Response)

	assert.Equal(t, []agent.HookPoint{
		agent.HookBeforeTask,
		agent.HookBeforeModel,
		agent.HookAfterModel,
		agent.HookBeforeTool,
		agent.HookAfterTool,
		agent.HookBeforeModel,
		agent.HookAfterModel,
		agent.HookAfterTask,
	}, recorder.points)

	require.Len(t, hookErrors, 3)
	assert.Equal(t, agent.HookBeforeModel, hookErrors[0].Point)
	assert.Equal(t, agent.HookAfterTool, hookErrors[1].Point)
	assert.Contains(t, hookErrors[1].Error(), "observer crashed")
	assert.Equal(t, out.RunID, hookErrors[2].RunID)
}

func TestHooks_TaskError(t *testing.T) {
	recorder := &recordingHooks{}
	a := agent.New("a", func(o *agent.Options) { o.Hooks = recorder })
	h := build(t, a, testutil.NewScriptedModel(testutil.Fail(errors.New("down"))), nil)

	_, err := h.Run(context.Background(), core.NewTask("q"))
	require.Error(t, err)
	assert.Equal(t, []agent.HookPoint{
		agent.HookBeforeTask,
		agent.HookBeforeModel,
		agent.HookAfterModel,
		agent.HookTaskError,
	}, recorder.points)
}

func TestHooks_FailingHookDoesNotAbortRun(t *testing.T) {
	a := agent.New("a", func(o *agent.Options) { o.Hooks = faultyHooks{} })
	h := build(t, a, testutil.NewScriptedModel(testutil.Text("ok")), nil)

	out, err := h.Run(context.Background(), core.NewTask("q"))
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Response)
}
