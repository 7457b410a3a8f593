// Package core provides the foundational domain types and contracts shared by
// every layer of agentcore. It defines:
//
//   - Task (one immutable unit of work submitted to an agent)
//   - Turn / Role (the conversational records stored in Memory)
//   - Output (single-shot results and streamed chunks)
//   - ExecutorConfig / ToolChoice / Strategy (static executor configuration)
//   - Memory (the bounded conversation store contract)
//   - The run error taxonomy (BuildError, BackendError, ...)
//   - ToolContext (the constrained surface handed to tool implementations)
//
// Implementation concerns (concrete memories, backends, strategies) live in
// sibling packages so that custom implementations only depend on core.
package core
