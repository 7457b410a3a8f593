package core

import "fmt"

// Strategy tags the algorithm an executor uses to turn a Task into an Output.
type Strategy string

const (
	// StrategyDirect issues exactly one backend call per run.
	StrategyDirect Strategy = "direct"
	// StrategyIterative loops over backend calls and tool invocations.
	StrategyIterative Strategy = "iterative"
)

// ToolChoiceMode selects which registered tools are offered to the backend.
type ToolChoiceMode string

const (
	// ToolChoiceAuto offers every registered tool.
	ToolChoiceAuto ToolChoiceMode = "auto"
	// ToolChoiceNone offers no tool.
	ToolChoiceNone ToolChoiceMode = "none"
	// ToolChoiceForced offers only the named tool.
	ToolChoiceForced ToolChoiceMode = "forced"
)

// ToolChoice is the tool selection policy of an executor.
type ToolChoice struct {
	Mode ToolChoiceMode `json:"mode"`
	Name string         `json:"name,omitempty"` // Only meaningful for ToolChoiceForced
}

// ToolChoiceAutoPolicy returns the default policy.
func ToolChoiceAutoPolicy() ToolChoice { return ToolChoice{Mode: ToolChoiceAuto} }

// ToolChoiceNonePolicy disables tool offering.
func ToolChoiceNonePolicy() ToolChoice { return ToolChoice{Mode: ToolChoiceNone} }

// ToolChoiceForcedPolicy offers only the named tool.
func ToolChoiceForcedPolicy(name string) ToolChoice {
	return ToolChoice{Mode: ToolChoiceForced, Name: name}
}

// Allows reports whether a tool with the given name is offered under this policy.
func (tc ToolChoice) Allows(name string) bool {
	switch tc.Mode {
	case ToolChoiceNone:
		return false
	case ToolChoiceForced:
		return tc.Name == name
	default:
		return true
	}
}

func (tc ToolChoice) String() string {
	if tc.Mode == ToolChoiceForced {
		return fmt.Sprintf("forced(%s)", tc.Name)
	}
	if tc.Mode == "" {
		return string(ToolChoiceAuto)
	}
	return string(tc.Mode)
}

// ExecutorConfig is the immutable per-agent execution configuration.
type ExecutorConfig struct {
	MaxIterations           int        `json:"max_iterations"`
	ToolChoice              ToolChoice `json:"tool_choice"`
	RequireStructuredOutput bool       `json:"require_structured_output"`
}

// DefaultExecutorConfig returns a single iteration, auto tool choice configuration.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{MaxIterations: 1, ToolChoice: ToolChoiceAutoPolicy()}
}
