package core

// Output is the result of a run. A direct call yields exactly one Output with
// Done set; a streamed run yields zero or more non-terminal chunks followed by
// a final chunk with Done set.
type Output struct {
	Response   string `json:"response"`
	Structured any    `json:"structured,omitempty"` // Decoded value conforming to the agent output schema
	Done       bool   `json:"done"`
	RunID      string `json:"run_id,omitempty"`
	Iterations int    `json:"iterations,omitempty"` // Backend calls issued so far in this run
}
