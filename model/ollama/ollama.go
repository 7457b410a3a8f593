// Package ollama provides a model.Model backed by a local or remote Ollama
// server through the official github.com/ollama/ollama/api client.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// DefaultEndpoint is used when no endpoint is configured and OLLAMA_HOST is unset.
const DefaultEndpoint = "http://localhost:11434"

// Options configure the Ollama model adapter.
type Options struct {
	Model       string
	Endpoint    string // Empty means OLLAMA_HOST or DefaultEndpoint
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// Model wraps the Ollama chat endpoint behind the generic model.Model interface.
type Model struct {
	client *api.Client
	opts   Options
}

// NewModel creates a new Ollama model.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:       "llama3.2",
		Temperature: 0.7,
		MaxTokens:   4096,
		HTTPClient:  http.DefaultClient,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Endpoint == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client: %w", err)
		}
		return &Model{client: client, opts: opts}, nil
	}

	base, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("ollama endpoint %q: %w", opts.Endpoint, err)
	}
	return &Model{client: api.NewClient(base, opts.HTTPClient), opts: opts}, nil
}

// NewModelFromClient creates a new Ollama model from an existing client.
func NewModelFromClient(client *api.Client, optFns ...func(o *Options)) *Model {
	opts := Options{Model: "llama3.2", Temperature: 0.7, MaxTokens: 4096}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate adapts the Ollama chat API into model.Response events. Ollama
// streams by default; each chunk becomes a partial response and the last
// chunk the final one.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		chatReq, err := m.buildRequest(req)
		if err != nil {
			errCh <- err
			return
		}

		var (
			text  string
			calls []core.FunctionCall
		)
		err = m.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				text += resp.Message.Content
				if req.Stream && !resp.Done && !model.Send(ctx, out, model.Response{Partial: true, Text: resp.Message.Content}) {
					return ctx.Err()
				}
			}
			for _, tc := range resp.Message.ToolCalls {
				args, err := json.Marshal(tc.Function.Arguments)
				if err != nil {
					return fmt.Errorf("encode tool arguments for %s: %w", tc.Function.Name, err)
				}
				calls = append(calls, core.FunctionCall{Name: tc.Function.Name, Arguments: string(args)})
			}
			if !resp.Done {
				return nil
			}
			model.Send(ctx, out, model.Finalize(model.Response{
				Text:         text,
				ToolCalls:    calls,
				FinishReason: resp.DoneReason,
				Usage: &model.TokenUsage{
					PromptTokens:     resp.PromptEvalCount,
					CompletionTokens: resp.EvalCount,
					TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
				},
			}))
			return nil
		})
		if err != nil {
			errCh <- fmt.Errorf("ollama api error: %w", err)
		}
	}()

	return out, errCh
}

func (m *Model) buildRequest(req model.Request) (*api.ChatRequest, error) {
	stream := req.Stream
	chatReq := &api.ChatRequest{
		Model:    m.opts.Model,
		Messages: buildMessages(req),
		Stream:   &stream,
		Options: map[string]any{
			"temperature": m.opts.Temperature,
			"num_predict": m.opts.MaxTokens,
		},
	}

	if req.OutputSchema != nil {
		format, err := json.Marshal(req.OutputSchema.Schema)
		if err != nil {
			return nil, fmt.Errorf("encode output schema: %w", err)
		}
		chatReq.Format = format
	}

	if len(req.Tools) > 0 {
		tools, err := buildTools(req.Tools)
		if err != nil {
			return nil, err
		}
		chatReq.Tools = tools
	}

	return chatReq, nil
}

func buildMessages(req model.Request) []api.Message {
	messages := make([]api.Message, 0, len(req.Turns)+1)
	if req.Instructions != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.Instructions})
	}
	for _, t := range req.Turns {
		switch t.Role {
		case core.RoleTool:
			if t.ToolResult != nil {
				messages = append(messages, api.Message{Role: "tool", Content: t.ToolResult.Text()})
			}
		case core.RoleAssistant:
			msg := api.Message{Role: "assistant", Content: t.Content}
			for _, fc := range t.ToolCalls {
				var args api.ToolCallFunctionArguments
				if fc.Arguments != "" {
					_ = json.Unmarshal([]byte(fc.Arguments), &args)
				}
				msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{
					Function: api.ToolCallFunction{Name: fc.Name, Arguments: args},
				})
			}
			messages = append(messages, msg)
		default:
			messages = append(messages, api.Message{Role: "user", Content: t.Content})
		}
	}
	return messages
}

// buildTools converts tool definitions through their JSON form; the wire
// shape of model.ToolDefinition matches Ollama's tool schema.
func buildTools(defs []model.ToolDefinition) (api.Tools, error) {
	raw, err := json.Marshal(defs)
	if err != nil {
		return nil, fmt.Errorf("encode tools: %w", err)
	}
	var tools api.Tools
	if err := json.Unmarshal(raw, &tools); err != nil {
		return nil, fmt.Errorf("decode ollama tools: %w", err)
	}
	return tools, nil
}

// Info returns metadata describing this Ollama model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:                     m.opts.Model,
		Provider:                 "ollama",
		SupportsTools:            true,
		SupportsStructuredOutput: true,
	}
}
