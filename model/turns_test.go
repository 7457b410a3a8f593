package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/core"
)

func roles(turns []core.Turn) []core.Role {
	out := make([]core.Role, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.Role)
	}
	return out
}

func TestPairToolTurns_DropsOrphanResults(t *testing.T) {
	turns := []core.Turn{
		core.NewToolTurn(core.ToolResult{CallID: "c1", Name: "add", Result: 3.0}),
		core.NewAssistantTurn("", core.FunctionCall{ID: "c2", Name: "add"}),
		core.NewToolTurn(core.ToolResult{CallID: "c2", Name: "add", Result: 4.0}),
	}

	got := PairToolTurns(turns)
	assert.Equal(t, []core.Role{core.RoleAssistant, core.RoleTool}, roles(got))
	assert.Equal(t, "c2", got[1].ToolResult.CallID)
}

func TestPairToolTurns_DropsUnansweredCalls(t *testing.T) {
	turns := []core.Turn{
		core.NewUserTurn("q"),
		core.NewAssistantTurn("partly", core.FunctionCall{ID: "c1"}, core.FunctionCall{ID: "c2"}),
		core.NewToolTurn(core.ToolResult{CallID: "c2", Result: "ok"}),
		core.NewAssistantTurn("", core.FunctionCall{ID: "c3"}),
		core.NewUserTurn("next"),
	}

	got := PairToolTurns(turns)
	assert.Equal(t, []core.Role{core.RoleUser, core.RoleAssistant, core.RoleTool, core.RoleUser}, roles(got))
	require.Len(t, got[1].ToolCalls, 1)
	assert.Equal(t, "c2", got[1].ToolCalls[0].ID)

	// The input keeps its calls.
	assert.Len(t, turns[1].ToolCalls, 2)
}

func TestPairToolTurns_KeepsTextOfUnansweredAssistant(t *testing.T) {
	got := PairToolTurns([]core.Turn{core.NewAssistantTurn("let me check", core.FunctionCall{ID: "c1"})})
	require.Len(t, got, 1)
	assert.Equal(t, "let me check", got[0].Content)
	assert.Nil(t, got[0].ToolCalls)
}

func TestPairToolTurns_ResultBeforeCallIsDropped(t *testing.T) {
	got := PairToolTurns([]core.Turn{
		core.NewToolTurn(core.ToolResult{CallID: "c1"}),
		core.NewAssistantTurn("", core.FunctionCall{ID: "c1"}),
	})
	assert.Empty(t, got)
}

func TestPairToolTurns_EarlyDuplicateResultIsDropped(t *testing.T) {
	got := PairToolTurns([]core.Turn{
		core.NewToolTurn(core.ToolResult{CallID: "c1", Result: "stale"}),
		core.NewAssistantTurn("", core.FunctionCall{ID: "c1"}),
		core.NewToolTurn(core.ToolResult{CallID: "c1", Result: "fresh"}),
	})
	assert.Equal(t, []core.Role{core.RoleAssistant, core.RoleTool}, roles(got))
	assert.Equal(t, "fresh", got[1].ToolResult.Result)
}
