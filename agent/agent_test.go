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

// TestError mirrors a user defined executor failure.
type TestError struct{ Message string }

func (e *TestError) Error() string { return e.Message }

type mockExecutor struct{ shouldFail bool }

func (e *mockExecutor) Strategy() core.Strategy     { return core.StrategyDirect }
func (e *mockExecutor) Config() core.ExecutorConfig { return core.DefaultExecutorConfig() }

func (e *mockExecutor) Execute(_ *agent.Context, task core.Task, _ agent.Emit) (core.Output, error) {
	if e.shouldFail {
		return core.Output{}, &TestError{Message: "Mock execution failed"}
	}
	return core.Output{Response: "Processed: " + task.Prompt, Done: true}, nil
}

// addTool returns an "add" tool recording the call ids it was invoked with.
func addTool(invoked *[]string, mu *sync.Mutex) tool.Tool {
	return tool.NewFunctionTool("add", "Adds two numbers", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}, func(tc *core.ToolContext, args map[string]any) (any, error) {
		mu.Lock()
		*invoked = append(*invoked, tc.FunctionCallID())
		mu.Unlock()
		return args["a"].(float64) + args["b"].(float64), nil
	})
}

func build(t *testing.T, a *agent.Agent, m model.Model, mem core.Memory) *agent.Handle {
	t.Helper()
	h, err := agent.NewBuilder(a).Model(m).Memory(mem).Build()
	require.NoError(t, err)
	return h
}

func TestMockAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("should fail", func(t *testing.T) {
		mem := memory.MustSlidingWindow(10)
		a := agent.New("MockAgent", func(o *agent.Options) { o.Executor = &mockExecutor{shouldFail: true} })
		h := build(t, a, model.NewMockModel("mock"), mem)

		_, err := h.Run(ctx, core.NewTask("What is 20 + 10?"))
		require.Error(t, err)

		var testErr *TestError
		require.ErrorAs(t, err, &testErr)
		assert.Equal(t, "Mock execution failed", testErr.Message)

		var execErr *core.ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, "MockAgent", execErr.Agent)
		assert.NotEmpty(t, execErr.RunID)
		assert.Equal(t, core.KindExecution, core.KindOf(err))
		assert.Equal(t, 0, mem.Len())
	})

	t.Run("should succeed", func(t *testing.T) {
		a := agent.New("MockAgent", func(o *agent.Options) { o.Executor = &mockExecutor{} })
		h := build(t, a, model.NewMockModel("mock"), memory.MustSlidingWindow(10))

		out, err := h.Run(ctx, core.NewTask("What is 20 + 10?"))
		require.NoError(t, err)
		assert.Equal(t, "Processed: What is 20 + 10?", out.Response)
		assert.True(t, out.Done)
		assert.NotEmpty(t, out.RunID)
	})
}

func TestBuilderValidation(t *testing.T) {
	m := model.NewMockModel("mock")
	noop := func(*core.ToolContext, map[string]any) (any, error) { return nil, nil }

	t.Run("missing backend", func(t *testing.T) {
		_, err := agent.NewBuilder(agent.New("a")).Build()
		require.ErrorIs(t, err, core.ErrMissingBackend)
		var buildErr *core.BuildError
		require.ErrorAs(t, err, &buildErr)
		assert.Equal(t, core.KindBuild, core.KindOf(err))
	})

	t.Run("iterative max iterations", func(t *testing.T) {
		a := agent.New("a", func(o *agent.Options) {
			o.Executor = agent.NewIterativeExecutor(func(c *core.ExecutorConfig) { c.MaxIterations = 0 })
		})
		_, err := agent.NewBuilder(a).Model(m).Build()
		require.ErrorIs(t, err, core.ErrInvalidConfig)
	})

	t.Run("forced tool must be declared", func(t *testing.T) {
		a := agent.New("a", func(o *agent.Options) {
			o.Executor = agent.NewIterativeExecutor(func(c *core.ExecutorConfig) {
				c.ToolChoice = core.ToolChoiceForcedPolicy("missing")
			})
		})
		_, err := agent.NewBuilder(a).Model(m).Build()
		require.ErrorIs(t, err, core.ErrInvalidConfig)
	})

	t.Run("structured output needs schema", func(t *testing.T) {
		a := agent.New("a", func(o *agent.Options) {
			o.Executor = agent.NewDirectExecutor(func(o *agent.DirectOptions) { o.RequireStructuredOutput = true })
		})
		_, err := agent.NewBuilder(a).Model(m).Build()
		require.ErrorIs(t, err, core.ErrInvalidConfig)
	})

	t.Run("duplicate tool", func(t *testing.T) {
		a := agent.New("a", func(o *agent.Options) {
			o.Tools = []tool.Tool{
				tool.NewFunctionTool("dup", "first", nil, noop),
				tool.NewFunctionTool("dup", "second", nil, noop),
			}
		})
		_, err := agent.NewBuilder(a).Model(m).Build()
		require.ErrorIs(t, err, core.ErrDuplicateTool)
		var dupErr *tool.DuplicateToolError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "dup", dupErr.Name)
	})

	t.Run("defaults", func(t *testing.T) {
		h, err := agent.NewBuilder(agent.New("a")).Model(m).Build()
		require.NoError(t, err)
		assert.Equal(t, agent.DefaultMemoryCapacity, h.Memory().Capacity())
		assert.Equal(t, 0, h.Tools().Len())
	})
}

func TestAgentMetadata(t *testing.T) {
	var (
		mu      sync.Mutex
		invoked []string
	)
	schema := &model.OutputSchema{Name: "answer", Schema: map[string]any{"type": "object"}}
	a := agent.New("MathAgent", func(o *agent.Options) {
		o.Description = "Solves arithmetic"
		o.OutputSchema = schema
		o.Tools = []tool.Tool{addTool(&invoked, &mu)}
		o.Executor = agent.NewIterativeExecutor()
	})

	md := a.Metadata()
	assert.Equal(t, "MathAgent", md.Name)
	assert.Equal(t, "Solves arithmetic", md.Description)
	assert.Equal(t, []string{"add"}, md.Tools)
	assert.Equal(t, string(core.StrategyIterative), md.Strategy)
	assert.Same(t, schema, md.OutputSchema)
	assert.Equal(t, agent.DefaultMaxIterations, a.Executor().Config().MaxIterations)
}

func TestRunBatch(t *testing.T) {
	h, err := agent.NewBuilder(agent.New("batch")).
		Model(model.NewMockModel("mock")).
		Memory(memory.MustSlidingWindow(50)).
		BatchConcurrency(2).
		Build()
	require.NoError(t, err)

	tasks := []core.Task{
		core.NewTask("one"), core.NewTask("two"), core.NewTask("three"), core.NewTask("four"),
	}
	results := h.RunBatch(context.Background(), tasks)

	require.Len(t, results, len(tasks))
	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, tasks[i].ID, r.Task.ID)
		assert.Equal(t, "Mock response to: "+tasks[i].Prompt, r.Output.Response)
		assert.True(t, r.Output.Done)
	}
	assert.Equal(t, 2*len(tasks), h.Memory().Len())
}

func TestRunBatch_IsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	m := testutil.NewScriptedModel(testutil.Fail(boom), testutil.Text("ok"))
	h, err := agent.NewBuilder(agent.New("batch")).Model(m).BatchConcurrency(1).Build()
	require.NoError(t, err)

	results := h.RunBatch(context.Background(), []core.Task{core.NewTask("a"), core.NewTask("b")})
	require.Len(t, results, 2)

	require.ErrorIs(t, results[0].Err, boom)
	assert.Equal(t, core.KindBackend, core.KindOf(results[0].Err))
	require.NoError(t, results[1].Err)
	assert.Equal(t, "ok", results[1].Output.Response)
	assert.Equal(t, 2, m.Calls())
}
