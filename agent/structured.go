package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/util"
	"github.com/hupe1980/agentcore/model"
)

// ErrNoStructuredOutput is returned by Decode when an output carries neither a
// structured value nor a response text.
var ErrNoStructuredOutput = errors.New("output carries no structured value")

// structuredValue returns the reply's structured value validated against
// schema. Replies without a decoded value are parsed from their text.
func structuredValue(resp model.Response, schema *model.OutputSchema) (any, error) {
	value := resp.Structured
	if value == nil {
		raw := stripCodeFence(resp.Text)
		if raw == "" {
			return nil, &core.StructuredOutputError{Raw: resp.Text, Err: errors.New("empty response")}
		}
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, &core.StructuredOutputError{Raw: resp.Text, Err: fmt.Errorf("invalid JSON: %w", err)}
		}
	}

	if err := util.ValidateValue(value, schema.Schema); err != nil {
		return nil, &core.StructuredOutputError{Raw: resp.Text, Err: err}
	}
	return value, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence, which models
// often add around JSON answers.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Decode converts an Output into a caller defined type. The structured value
// is used when present; otherwise the response text is decoded as JSON.
func Decode[T any](out core.Output) (T, error) {
	var target T

	var raw []byte
	switch {
	case out.Structured != nil:
		b, err := json.Marshal(out.Structured)
		if err != nil {
			return target, fmt.Errorf("encode structured output: %w", err)
		}
		raw = b
	case strings.TrimSpace(out.Response) != "":
		raw = []byte(stripCodeFence(out.Response))
	default:
		return target, ErrNoStructuredOutput
	}

	if err := json.Unmarshal(raw, &target); err != nil {
		return target, &core.StructuredOutputError{Raw: string(raw), Err: err}
	}
	return target, nil
}
