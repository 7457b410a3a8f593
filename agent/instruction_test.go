package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/agentcore/core"
)

type mockProvider struct {
	text string
	err  error
}

func (m mockProvider) Instruction(context.Context, core.Task) (string, error) { return m.text, m.err }

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	if !inst.IsStatic() {
		t.Fatalf("expected static instruction")
	}
	got, err := inst.Resolve(context.Background(), core.NewTask("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "static instruction" {
		t.Fatalf("expected 'static instruction', got %q", got)
	}
}

func TestInstruction_TemplateFromMetadata(t *testing.T) {
	inst := NewInstructionFromText("You answer in {{ .language }}.{{ .missing }}")
	task := core.NewTask("hi").WithMetadata("language", "German")
	got, err := inst.Resolve(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "You answer in German." {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestInstruction_NewInstructionFromFunc(t *testing.T) {
	inst := NewInstructionFromFunc(func(_ context.Context, task core.Task) (string, error) {
		return "dynamic for " + task.Prompt, nil
	})
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	got, err := inst.Resolve(context.Background(), core.NewTask("q"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "dynamic for q" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestInstruction_ProviderError(t *testing.T) {
	inst := NewInstructionFromProvider(mockProvider{err: errors.New("boom")})
	if _, err := inst.Resolve(context.Background(), core.NewTask("q")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInstruction_Zero(t *testing.T) {
	var inst Instruction
	if !inst.IsZero() {
		t.Fatalf("expected zero instruction")
	}
	got, err := inst.Resolve(context.Background(), core.NewTask("q"))
	if err != nil || got != "" {
		t.Fatalf("expected empty instruction, got %q, %v", got, err)
	}
}

func TestInstruction_InvalidTemplate(t *testing.T) {
	inst := NewInstructionFromText("{{ .unterminated")
	if _, err := inst.Resolve(context.Background(), core.NewTask("q")); err == nil {
		t.Fatalf("expected parse error")
	}
}
