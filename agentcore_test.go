package agentcore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/testutil"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/tool"
)

func TestNewDirect(t *testing.T) {
	m := model.NewMockModel("mock")
	m.AddResponse("What is 20 + 10?", "30")

	h, err := NewDirect("MathAgent", m, func(o *Options) {
		o.Description = "Answers arithmetic questions"
		o.MemoryCapacity = 10
	})
	require.NoError(t, err)
	assert.Equal(t, 10, h.Memory().Capacity())
	assert.Equal(t, core.StrategyDirect, h.Agent().Executor().Strategy())

	out, err := h.Run(context.Background(), core.NewTask("What is 20 + 10?"))
	require.NoError(t, err)
	assert.Equal(t, "30", out.Response)
	assert.True(t, out.Done)
}

func TestNewDirect_InvalidCapacity(t *testing.T) {
	_, err := NewDirect("a", model.NewMockModel("mock"), func(o *Options) { o.MemoryCapacity = 0 })
	require.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestNewIterative(t *testing.T) {
	double := tool.NewFunctionTool("double", "Doubles a number", map[string]any{
		"type":       "object",
		"properties": map[string]any{"x": map[string]any{"type": "number"}},
		"required":   []string{"x"},
	}, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args["x"].(float64) * 2, nil
	})

	m := testutil.NewScriptedModel(
		testutil.ToolCalls("", testutil.Call("c1", "double", `{"x":21}`)),
		testutil.Text("42"),
	)
	h, err := NewIterative("doubler", m, func(o *Options) {
		o.Instruction = "Use tools for arithmetic."
		o.Tools = []tool.Tool{double}
		o.MaxIterations = 3
	})
	require.NoError(t, err)
	assert.Equal(t, 3, h.Agent().Executor().Config().MaxIterations)

	out, err := h.Run(context.Background(), core.NewTask("double 21"))
	require.NoError(t, err)
	assert.Equal(t, "42", out.Response)
	assert.Equal(t, "Use tools for arithmetic.", m.Requests()[0].Instructions)
	assert.Equal(t, 42.0, h.Memory().Snapshot()[2].ToolResult.Result)
}

func TestNewIterative_InvalidMaxIterations(t *testing.T) {
	_, err := NewIterative("a", model.NewMockModel("mock"), func(o *Options) { o.MaxIterations = 0 })
	require.ErrorIs(t, err, core.ErrInvalidConfig)
	assert.Equal(t, core.KindBuild, core.KindOf(err))
}
