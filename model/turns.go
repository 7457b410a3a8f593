package model

import "github.com/hupe1980/agentcore/core"

// PairToolTurns returns turns reduced to a history providers accept: every
// tool turn answers a call of an earlier assistant turn, and every kept call
// is answered. A bounded Memory may evict the assistant turn of a call while
// keeping its results, or hold a call whose result was never recorded.
// Assistant turns left with neither text nor calls are dropped. turns is not
// modified.
func PairToolTurns(turns []core.Turn) []core.Turn {
	requested := make(map[string]bool)
	answered := make(map[string]bool)
	for _, t := range turns {
		switch t.Role {
		case core.RoleAssistant:
			for _, c := range t.ToolCalls {
				requested[c.ID] = true
			}
		case core.RoleTool:
			if t.ToolResult != nil && requested[t.ToolResult.CallID] {
				answered[t.ToolResult.CallID] = true
			}
		}
	}

	out := make([]core.Turn, 0, len(turns))
	seen := make(map[string]bool)
	for _, t := range turns {
		switch t.Role {
		case core.RoleTool:
			if t.ToolResult == nil || !seen[t.ToolResult.CallID] {
				continue
			}
		case core.RoleAssistant:
			if len(t.ToolCalls) == 0 {
				break
			}
			kept := make([]core.FunctionCall, 0, len(t.ToolCalls))
			for _, c := range t.ToolCalls {
				if answered[c.ID] {
					kept = append(kept, c)
					seen[c.ID] = true
				}
			}
			if len(kept) == 0 {
				if t.Content == "" {
					continue
				}
				kept = nil
			}
			t.ToolCalls = kept
		}
		out = append(out, t)
	}
	return out
}
