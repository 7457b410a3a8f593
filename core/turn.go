package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies the author of a Turn.
type Role string

const (
	// RoleUser marks prompts supplied by the caller.
	RoleUser Role = "user"
	// RoleAssistant marks replies produced by the model backend.
	RoleAssistant Role = "assistant"
	// RoleTool marks results (or failures) of tool invocations.
	RoleTool Role = "tool"
)

// FunctionCall describes a tool invocation requested by the model.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`        // Backend supplied call id (generated when absent)
	Name      string `json:"name"`                // Tool name
	Arguments string `json:"arguments,omitempty"` // Raw JSON argument payload
}

// ToolResult is the outcome of one FunctionCall. Exactly one of Result / Error
// is meaningful: Error is non-empty when the invocation failed.
type ToolResult struct {
	CallID string `json:"call_id,omitempty"`
	Name   string `json:"name"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// IsError reports whether the invocation failed.
func (r ToolResult) IsError() bool { return r.Error != "" }

// Text renders the result as the text fed back to the model.
func (r ToolResult) Text() string {
	if r.IsError() {
		return "error: " + r.Error
	}
	switch v := r.Result.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// Turn is one entry of the conversation stored in Memory.
//
// Content holds the text of user / assistant turns. Assistant turns that
// request tools carry them in ToolCalls (in the order the model listed them);
// tool turns carry their outcome in ToolResult. Seq is assigned by the Memory
// on append and increases monotonically.
type Turn struct {
	Role       Role           `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []FunctionCall `json:"tool_calls,omitempty"`
	ToolResult *ToolResult    `json:"tool_result,omitempty"`
	Seq        uint64         `json:"seq"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewUserTurn creates a user turn carrying text.
func NewUserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text, Timestamp: time.Now().UTC()}
}

// NewAssistantTurn creates an assistant turn with optional tool call requests.
func NewAssistantTurn(text string, calls ...FunctionCall) Turn {
	return Turn{Role: RoleAssistant, Content: text, ToolCalls: calls, Timestamp: time.Now().UTC()}
}

// NewToolTurn creates a tool turn from an invocation outcome. Content mirrors
// ToolResult.Text so that text-only backends can still consume it.
func NewToolTurn(result ToolResult) Turn {
	r := result
	return Turn{Role: RoleTool, Content: r.Text(), ToolResult: &r, Timestamp: time.Now().UTC()}
}

// Clone returns a deep copy of the turn's slices and pointers.
func (t Turn) Clone() Turn {
	c := t
	if t.ToolCalls != nil {
		c.ToolCalls = append([]FunctionCall(nil), t.ToolCalls...)
	}
	if t.ToolResult != nil {
		r := *t.ToolResult
		c.ToolResult = &r
	}
	return c
}
