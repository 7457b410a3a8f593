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
	"github.com/hupe1980/agentcore/memory"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/tool"
)

func iterativeCalc(invoked *[]string, mu *sync.Mutex, hooks agent.Hooks) *agent.Agent {
	return agent.New("calc", func(o *agent.Options) {
		o.Tools = []tool.Tool{addTool(invoked, mu)}
		o.Executor = agent.NewIterativeExecutor()
		o.Hooks = hooks
	})
}

func TestRunStream_Iterative(t *testing.T) {
	var (
		mu      sync.Mutex
		invoked []string
	)
	m := testutil.NewScriptedModel(
		testutil.ToolCalls("adding", testutil.Call("c1", "add", `{"a":20,"b":10}`)),
		testutil.ToolCalls("", testutil.Call("c2", "add", `{"a":1,"b":1}`)),
		testutil.Text("30"),
	)
	h := build(t, iterativeCalc(&invoked, &mu, nil), m, memory.MustSlidingWindow(20))

	var chunks []core.Output
	for out, err := range h.RunStream(context.Background(), core.NewTask("What is 20 + 10?")) {
		require.NoError(t, err)
		chunks = append(chunks, out)
	}

	require.Len(t, chunks, 2)
	assert.Equal(t, "adding", chunks[0].Response)
	assert.False(t, chunks[0].Done)
	assert.Equal(t, "30", chunks[1].Response)
	assert.True(t, chunks[1].Done)
	assert.Equal(t, 3, chunks[1].Iterations)
	assert.Equal(t, chunks[0].RunID, chunks[1].RunID)
	assert.True(t, m.Requests()[0].Stream)
}

func TestRunStream_Direct(t *testing.T) {
	h := build(t, agent.New("direct"), model.NewMockModel("mock"), memory.MustSlidingWindow(10))

	var chunks []core.Output
	for out, err := range h.RunStream(context.Background(), core.NewTask("hello")) {
		require.NoError(t, err)
		chunks = append(chunks, out)
	}
	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].Done)
	assert.Equal(t, "Mock response to: hello", chunks[0].Response)
}

func TestRunStream_StopConsuming(t *testing.T) {
	var (
		mu      sync.Mutex
		invoked []string
	)
	m := testutil.NewScriptedModel(
		testutil.ToolCalls("step one", testutil.Call("c1", "add", `{"a":1,"b":2}`)),
		testutil.Text("never requested"),
	)
	mem := memory.MustSlidingWindow(20)
	h := build(t, iterativeCalc(&invoked, &mu, nil), m, mem)

	seq := h.RunStream(context.Background(), core.NewTask("q"))
	for out, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, "step one", out.Response)
		break
	}

	assert.Equal(t, 1, m.Calls())
	assert.Empty(t, invoked)
	turns := mem.Snapshot()
	require.Len(t, turns, 3)
	assert.Equal(t, core.RoleUser, turns[0].Role)
	assert.Equal(t, "step one", turns[1].Content)
	require.NotNil(t, turns[2].ToolResult)
	assert.Equal(t, "c1", turns[2].ToolResult.CallID)
	assert.Equal(t, agent.ToolCallCancelled, turns[2].ToolResult.Error)

	// A stream is not restartable.
	for _, err := range seq {
		assert.ErrorIs(t, err, agent.ErrStreamConsumed)
	}
	assert.Equal(t, 1, m.Calls())
}

func TestRunStream_ErrorChunk(t *testing.T) {
	boom := errors.New("boom")
	h := build(t, agent.New("a"), testutil.NewScriptedModel(testutil.Fail(boom)), memory.MustSlidingWindow(10))

	var (
		count   int
		lastErr error
		last    core.Output
	)
	for out, err := range h.RunStream(context.Background(), core.NewTask("q")) {
		count++
		last, lastErr = out, err
	}
	assert.Equal(t, 1, count)
	require.ErrorIs(t, lastErr, boom)
	assert.True(t, last.Done)
	assert.NotEmpty(t, last.RunID)
}

// cancelHooks cancels the run context while the backend call is in flight.
type cancelHooks struct {
	agent.NoOpHooks
	cancel context.CancelFunc
}

func (h cancelHooks) BeforeModel(*agent.Context, model.Request) error {
	h.cancel()
	return nil
}

func TestRunStream_ContextCancelDiscardsInflight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		invoked []string
	)
	never := make(chan struct{})
	m := testutil.NewScriptedModel(testutil.Step{Response: model.Response{Text: "late"}, Wait: never})
	mem := memory.MustSlidingWindow(20)
	h := build(t, iterativeCalc(&invoked, &mu, cancelHooks{cancel: cancel}), m, mem)

	var errs []error
	for _, err := range h.RunStream(ctx, core.NewTask("q")) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.Equal(t, core.KindBackend, core.KindOf(errs[0]))
	require.Equal(t, 1, mem.Len())
	assert.Equal(t, core.RoleUser, mem.Snapshot()[0].Role)
}

func TestRunStream_StopThenRunSendsAnsweredCalls(t *testing.T) {
	var (
		mu      sync.Mutex
		invoked []string
	)
	m := testutil.NewScriptedModel(
		testutil.ToolCalls("thinking", testutil.Call("c1", "add", `{"a":1,"b":2}`), testutil.Call("c2", "add", `{"a":3,"b":4}`)),
		testutil.Text("second answer"),
	)
	h := build(t, iterativeCalc(&invoked, &mu, nil), m, memory.MustSlidingWindow(20))

	for range h.RunStream(context.Background(), core.NewTask("first")) {
		break
	}

	out, err := h.Run(context.Background(), core.NewTask("second"))
	require.NoError(t, err)
	assert.Equal(t, "second answer", out.Response)
	assert.Empty(t, invoked)

	turns := m.Requests()[1].Turns
	roles := make([]core.Role, 0, len(turns))
	for _, turn := range turns {
		roles = append(roles, turn.Role)
	}
	assert.Equal(t, []core.Role{core.RoleUser, core.RoleAssistant, core.RoleTool, core.RoleTool, core.RoleUser}, roles)
	assert.Equal(t, "c1", turns[2].ToolResult.CallID)
	assert.Equal(t, "c2", turns[3].ToolResult.CallID)
}

// streamFlagHooks records whether runs were started through RunStream.
type streamFlagHooks struct {
	agent.NoOpHooks
	streaming *[]bool
}

func (h streamFlagHooks) BeforeTask(rc *agent.Context, _ core.Task) error {
	*h.streaming = append(*h.streaming, rc.Streaming())
	return nil
}

func TestRunStream_IterationLimitEndsWithErrorChunk(t *testing.T) {
	var (
		mu        sync.Mutex
		invoked   []string
		streaming []bool
	)
	m := testutil.NewScriptedModel(
		testutil.ToolCalls("again", testutil.Call("", "add", `{"a":1,"b":1}`)),
	).RepeatLast()
	a := agent.New("looper", func(o *agent.Options) {
		o.Tools = []tool.Tool{addTool(&invoked, &mu)}
		o.Executor = agent.NewIterativeExecutor(func(c *core.ExecutorConfig) { c.MaxIterations = 2 })
		o.Hooks = streamFlagHooks{streaming: &streaming}
	})
	h := build(t, a, m, memory.MustSlidingWindow(20))

	var (
		chunks []core.Output
		errs   []error
	)
	for out, err := range h.RunStream(context.Background(), core.NewTask("loop")) {
		chunks = append(chunks, out)
		errs = append(errs, err)
	}

	require.Len(t, chunks, 3)
	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		assert.False(t, chunks[i].Done)
		assert.Equal(t, "again", chunks[i].Response)
	}

	last := chunks[2]
	assert.True(t, last.Done)
	assert.Equal(t, 2, last.Iterations)
	require.Error(t, errs[2])
	assert.Equal(t, core.KindIterationLimit, core.KindOf(errs[2]))
	var limitErr *core.IterationLimitError
	assert.ErrorAs(t, errs[2], &limitErr)

	assert.Equal(t, 2, m.Calls())
	assert.Equal(t, []bool{true}, streaming)
}
