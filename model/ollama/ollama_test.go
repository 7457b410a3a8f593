package ollama

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

func TestBuildRequest(t *testing.T) {
	m, err := NewModel(func(o *Options) {
		o.Model = "qwen"
		o.Endpoint = "http://127.0.0.1:11434"
	})
	require.NoError(t, err)

	req := model.Request{
		Instructions: "sys",
		Turns: []core.Turn{
			core.NewUserTurn("hi"),
			core.NewAssistantTurn("", core.FunctionCall{ID: "c1", Name: "add", Arguments: `{"a":1}`}),
			core.NewToolTurn(core.ToolResult{CallID: "c1", Name: "add", Result: "1"}),
		},
		Tools: []model.ToolDefinition{{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        "add",
				Description: "adds",
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{"a": map[string]any{"type": "number"}},
					"required":   []string{"a"},
				},
			},
		}},
		OutputSchema: &model.OutputSchema{Name: "o", Schema: map[string]any{"type": "object"}},
	}

	chatReq, err := m.buildRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "qwen", chatReq.Model)
	require.Len(t, chatReq.Messages, 4)
	assert.Equal(t, "system", chatReq.Messages[0].Role)
	assert.Equal(t, "tool", chatReq.Messages[3].Role)
	assert.Equal(t, "1", chatReq.Messages[3].Content)
	require.Len(t, chatReq.Messages[2].ToolCalls, 1)
	assert.Equal(t, "add", chatReq.Messages[2].ToolCalls[0].Function.Name)
	require.Len(t, chatReq.Tools, 1)
	assert.Equal(t, "add", chatReq.Tools[0].Function.Name)
	assert.JSONEq(t, `{"type":"object"}`, string(chatReq.Format))
}
