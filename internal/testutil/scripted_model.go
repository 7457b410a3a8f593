package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// ErrScriptExhausted is returned when a ScriptedModel runs out of steps.
var ErrScriptExhausted = errors.New("scripted model: no more steps")

// Step is one scripted backend reply.
type Step struct {
	Response model.Response
	Err      error
	// Wait, when set, blocks the reply until closed or the context ends.
	Wait <-chan struct{}
}

// Text scripts a completion reply.
func Text(text string) Step {
	return Step{Response: model.Response{Text: text}}
}

// ToolCalls scripts a reply requesting the given calls, with optional text.
func ToolCalls(text string, calls ...core.FunctionCall) Step {
	return Step{Response: model.Response{Text: text, ToolCalls: calls}}
}

// Fail scripts a backend failure.
func Fail(err error) Step { return Step{Err: err} }

// ScriptedModel is a deterministic model.Model replaying a fixed sequence of
// replies. It records every request and is safe for concurrent use.
type ScriptedModel struct {
	mu       sync.Mutex
	steps    []Step
	repeat   bool
	calls    int
	requests []model.Request
}

// NewScriptedModel creates a model replaying steps in order.
func NewScriptedModel(steps ...Step) *ScriptedModel {
	return &ScriptedModel{steps: steps}
}

// RepeatLast makes the model replay its last step forever (chainable).
func (m *ScriptedModel) RepeatLast() *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = true
	return m
}

// Calls returns how many times Generate was called.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns the recorded requests in call order.
func (m *ScriptedModel) Requests() []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *ScriptedModel) next(req model.Request) Step {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	m.requests = append(m.requests, req)

	switch {
	case idx < len(m.steps):
		return m.steps[idx]
	case m.repeat && len(m.steps) > 0:
		return m.steps[len(m.steps)-1]
	}
	return Step{Err: ErrScriptExhausted}
}

// Generate implements model.Model.
func (m *ScriptedModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	step := m.next(req)

	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		if step.Wait != nil {
			select {
			case <-step.Wait:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if step.Err != nil {
			errCh <- step.Err
			return
		}

		resp := step.Response
		resp.ToolCalls = append([]core.FunctionCall(nil), resp.ToolCalls...)
		out <- model.Finalize(resp)
	}()

	return out, errCh
}

// Info implements model.Model.
func (m *ScriptedModel) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "test", SupportsTools: true, SupportsStructuredOutput: true}
}
