package testutil

import (
	"github.com/hupe1980/agentcore/core"
)

// TurnBuilder provides a fluent helper for constructing conversations in tests.
// Example:
//
//	turns := NewTurnBuilder().User("hi").Assistant("hello").Build()
//
// Chain only the turns you need; ids and arguments get sensible defaults.
type TurnBuilder struct {
	turns []core.Turn
}

// NewTurnBuilder creates an empty builder.
func NewTurnBuilder() *TurnBuilder { return &TurnBuilder{} }

// User appends a user turn (chainable).
func (b *TurnBuilder) User(text string) *TurnBuilder {
	b.turns = append(b.turns, core.NewUserTurn(text))
	return b
}

// Assistant appends an assistant turn, optionally requesting tool calls (chainable).
func (b *TurnBuilder) Assistant(text string, calls ...core.FunctionCall) *TurnBuilder {
	b.turns = append(b.turns, core.NewAssistantTurn(text, calls...))
	return b
}

// ToolResult appends a successful tool turn (chainable).
func (b *TurnBuilder) ToolResult(callID, name string, result any) *TurnBuilder {
	b.turns = append(b.turns, core.NewToolTurn(core.ToolResult{CallID: callID, Name: name, Result: result}))
	return b
}

// ToolError appends a failed tool turn (chainable).
func (b *TurnBuilder) ToolError(callID, name string, err error) *TurnBuilder {
	b.turns = append(b.turns, core.NewToolTurn(core.ToolResult{CallID: callID, Name: name, Error: err.Error()}))
	return b
}

// Build returns the constructed turns.
func (b *TurnBuilder) Build() []core.Turn {
	out := make([]core.Turn, len(b.turns))
	copy(out, b.turns)
	return out
}

// Call builds a function call with an "{}" default argument string.
func Call(id, name, args string) core.FunctionCall {
	if args == "" {
		args = "{}"
	}
	return core.FunctionCall{ID: id, Name: name, Arguments: args}
}
