package core

import "maps"

// Task is one unit of work submitted to an agent. A Task is a value: it is
// never mutated by the engine, and WithMetadata returns a modified copy.
type Task struct {
	ID       string            `json:"id"`
	Prompt   string            `json:"prompt"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewTask creates a Task with a freshly generated ID.
func NewTask(prompt string) Task {
	return Task{ID: NewID(), Prompt: prompt}
}

// WithMetadata returns a copy of the task with key set to value. The receiver
// is left untouched.
func (t Task) WithMetadata(key, value string) Task {
	md := make(map[string]string, len(t.Metadata)+1)
	maps.Copy(md, t.Metadata)
	md[key] = value
	t.Metadata = md
	return t
}

// MetadataMap exposes metadata as a map[string]any, the shape expected by
// template rendering.
func (t Task) MetadataMap() map[string]any {
	m := make(map[string]any, len(t.Metadata))
	for k, v := range t.Metadata {
		m[k] = v
	}
	return m
}
