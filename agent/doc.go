// Package agent contains the agent execution engine: the Agent value binding
// static metadata to an execution strategy, the Direct and Iterative
// executors, the per-run Context, lifecycle Hooks and the Builder/Handle pair
// that turns validated dependencies into a runnable agent.
//
// Execution Model:
//   - Builder.Build validates the backend, memory, tools and executor
//     configuration once and returns an immutable Handle
//   - Handle.Run and Handle.RunStream create a fresh Context per call; runs
//     share the Handle's Memory, tool Registry and backend
//   - The DirectExecutor issues exactly one backend call; the
//     IterativeExecutor loops between backend calls and tool invocations until
//     completion or the iteration limit
//   - Hooks observe every lifecycle point; a failing hook is logged and
//     reported through the OnHookError side channel but never aborts a run
//
// Streaming is exposed as an iter.Seq2[core.Output, error]. Stopping the range
// loop is the cancellation mechanism: the executor returns before issuing
// another backend call and appends nothing further to Memory.
package agent
