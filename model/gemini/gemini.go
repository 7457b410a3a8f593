// Package gemini provides a model.Model backed by the Google Gemini API
// through github.com/google/generative-ai-go.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// Options configure the Gemini model adapter.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int32
}

// Model wraps a genai client behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{Model: "gemini-1.5-flash", Temperature: 0.7, MaxTokens: 4096}
}

// NewModel creates a Gemini model authenticated with apiKey.
func NewModel(ctx context.Context, apiKey string, optFns ...func(o *Options)) (*Model, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return NewModelFromClient(client, optFns...), nil
}

// NewModelFromClient creates a Gemini model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Close releases the underlying client.
func (m *Model) Close() error { return m.client.Close() }

// Generate adapts a Gemini chat session into model.Response events.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		history := buildHistory(req.Turns)
		if len(history) == 0 {
			errCh <- errors.New("no turns provided")
			return
		}

		cs := m.generativeModel(req).StartChat()
		cs.History = history[:len(history)-1]
		last := history[len(history)-1].Parts

		if req.Stream {
			m.handleStreaming(ctx, cs, last, out, errCh)
			return
		}

		resp, err := cs.SendMessage(ctx, last...)
		if err != nil {
			errCh <- fmt.Errorf("gemini api error: %w", err)
			return
		}
		acc := &accumulator{}
		acc.add(resp)
		model.Send(ctx, out, acc.final())
	}()

	return out, errCh
}

func (m *Model) handleStreaming(
	ctx context.Context,
	cs *genai.ChatSession,
	parts []genai.Part,
	out chan<- model.Response,
	errCh chan<- error,
) {
	it := cs.SendMessageStream(ctx, parts...)
	acc := &accumulator{}
	for {
		resp, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			errCh <- fmt.Errorf("gemini streaming error: %w", err)
			return
		}
		if delta := acc.add(resp); delta != "" {
			if !model.Send(ctx, out, model.Response{Partial: true, Text: delta}) {
				return
			}
		}
	}
	model.Send(ctx, out, acc.final())
}

func (m *Model) generativeModel(req model.Request) *genai.GenerativeModel {
	gm := m.client.GenerativeModel(m.opts.Model)
	gm.SetTemperature(m.opts.Temperature)
	gm.SetMaxOutputTokens(m.opts.MaxTokens)

	if req.Instructions != "" {
		gm.SystemInstruction = genai.NewUserContent(genai.Text(req.Instructions))
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  toSchema(t.Function.Parameters),
			})
		}
		gm.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	} else if req.OutputSchema != nil {
		// JSON mode cannot be combined with function calling.
		gm.ResponseMIMEType = "application/json"
		gm.ResponseSchema = toSchema(req.OutputSchema.Schema)
	}

	return gm
}

// buildHistory converts turns into genai contents. Consecutive tool turns are
// merged into one user content of function responses.
func buildHistory(turns []core.Turn) []*genai.Content {
	var history []*genai.Content
	appendParts := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(history); n > 0 && history[n-1].Role == role && role == "function" {
			history[n-1].Parts = append(history[n-1].Parts, parts...)
			return
		}
		history = append(history, &genai.Content{Role: role, Parts: parts})
	}

	for _, t := range turns {
		switch t.Role {
		case core.RoleTool:
			if t.ToolResult == nil {
				continue
			}
			appendParts("function", genai.FunctionResponse{
				Name:     t.ToolResult.Name,
				Response: map[string]any{"result": t.ToolResult.Text()},
			})
		case core.RoleAssistant:
			var parts []genai.Part
			if t.Content != "" {
				parts = append(parts, genai.Text(t.Content))
			}
			for _, fc := range t.ToolCalls {
				args := map[string]any{}
				if fc.Arguments != "" {
					_ = json.Unmarshal([]byte(fc.Arguments), &args)
				}
				parts = append(parts, genai.FunctionCall{Name: fc.Name, Args: args})
			}
			appendParts("model", parts...)
		default:
			if t.Content != "" {
				appendParts("user", genai.Text(t.Content))
			}
		}
	}
	return history
}

// accumulator folds streamed candidates into one final response.
type accumulator struct {
	text         strings.Builder
	calls        []core.FunctionCall
	finishReason string
	usage        *model.TokenUsage
}

// add folds resp and returns the text delta it contributed.
func (a *accumulator) add(resp *genai.GenerateContentResponse) string {
	var delta strings.Builder
	for _, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonUnspecified {
			a.finishReason = strings.ToLower(cand.FinishReason.String())
		}
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch p := part.(type) {
			case genai.Text:
				delta.WriteString(string(p))
			case genai.FunctionCall:
				args, err := json.Marshal(p.Args)
				if err != nil {
					args = []byte("{}")
				}
				a.calls = append(a.calls, core.FunctionCall{
					ID:        "call-" + core.NewID(),
					Name:      p.Name,
					Arguments: string(args),
				})
			}
		}
	}
	if u := resp.UsageMetadata; u != nil {
		a.usage = &model.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	a.text.WriteString(delta.String())
	return delta.String()
}

func (a *accumulator) final() model.Response {
	resp := model.Response{
		Text:      a.text.String(),
		ToolCalls: a.calls,
		Usage:     a.usage,
	}
	if len(a.calls) == 0 {
		resp.FinishReason = a.finishReason
	}
	return model.Finalize(resp)
}

// toSchema converts a JSON Schema subset into a genai.Schema.
func toSchema(s map[string]any) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{}
	if t, ok := s["type"].(string); ok {
		out.Type = schemaType(t)
	}
	if d, ok := s["description"].(string); ok {
		out.Description = d
	}
	if enum, ok := s["enum"].([]any); ok {
		for _, v := range enum {
			out.Enum = append(out.Enum, fmt.Sprint(v))
		}
	}
	if enum, ok := s["enum"].([]string); ok {
		out.Enum = append(out.Enum, enum...)
	}
	if items, ok := s["items"].(map[string]any); ok {
		out.Items = toSchema(items)
	}
	if props, ok := s["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				out.Properties[name] = toSchema(pm)
			}
		}
	}
	switch req := s["required"].(type) {
	case []string:
		out.Required = req
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				out.Required = append(out.Required, name)
			}
		}
	}
	return out
}

func schemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	}
	return genai.TypeUnspecified
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:                     m.opts.Model,
		Provider:                 "gemini",
		SupportsTools:            true,
		SupportsStructuredOutput: true,
	}
}
