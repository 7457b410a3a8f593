package testutil

import (
	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/memory"
)

// MemoryBuilder helps construct pre-seeded sliding window memories.
// Example:
//
//	mem := NewMemoryBuilder(10).Turns(NewTurnBuilder().User("hi").Build()...).Build()
type MemoryBuilder struct {
	capacity int
	turns    []core.Turn
}

// NewMemoryBuilder creates a builder for a memory of the given capacity.
func NewMemoryBuilder(capacity int) *MemoryBuilder {
	return &MemoryBuilder{capacity: capacity}
}

// Turns appends turns to seed the memory with (chainable).
func (b *MemoryBuilder) Turns(turns ...core.Turn) *MemoryBuilder {
	b.turns = append(b.turns, turns...)
	return b
}

// Build constructs the memory. It panics on an invalid capacity.
func (b *MemoryBuilder) Build() *memory.SlidingWindow {
	mem := memory.MustSlidingWindow(b.capacity)
	for _, t := range b.turns {
		mem.Append(t)
	}
	return mem
}
