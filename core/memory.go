package core

// Memory is the ordered, bounded conversation store shared by the runs of an
// agent. Implementations must be safe for concurrent use: appends are
// serialized and Snapshot never observes a partial append.
type Memory interface {
	// Append stores a turn, evicting the oldest turns when capacity would be exceeded.
	Append(turn Turn)
	// Snapshot returns a copy of the current turns in insertion order.
	Snapshot() []Turn
	// Clear empties the memory.
	Clear()
	// Len returns the number of stored turns.
	Len() int
	// Capacity returns the maximum number of stored turns.
	Capacity() int
}
