package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
	D string `json:"d" enum:"x,y"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	assert.Equal(t, []string{"x", "y"}, props["d"].(map[string]any)["enum"])
	assert.ElementsMatch(t, []string{"a", "d"}, schema["required"])

	assert.Equal(t, "object", CreateSchema(42)["type"])
	assert.Equal(t, "object", CreateSchema(nil)["type"])
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x":  map[string]any{"type": "integer"},
			"op": map[string]any{"type": "string", "enum": []string{"add", "sub"}},
		},
		"required": []any{"x"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"x": 5.0, "op": "add"}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	err = ValidateParameters(map[string]any{"x": "not-int"}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type integer")

	err = ValidateParameters(map[string]any{"x": 1, "op": "mul"}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "op", vErr.Field)
}

func TestValidateValue_Nested(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": map[string]any{"n": map[string]any{"type": "number"}},
					"required":   []string{"n"},
				},
			},
		},
		"required": []string{"items"},
	}

	assert.NoError(t, ValidateValue(map[string]any{"items": []any{map[string]any{"n": 1.5}}}, schema))

	err := ValidateValue(map[string]any{"items": []any{map[string]any{}}}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "items[0].n", vErr.Field)

	err = ValidateValue("text", schema)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type object")
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	out, err = RenderTemplate(`Answer in {{ .lang | default "english" }} for {{ upper .user }}{{ .missing }}`, map[string]any{"user": "ann"})
	require.NoError(t, err)
	assert.Equal(t, "Answer in english for ANN", out)

	_, err = RenderTemplate("{{ .broken", nil)
	assert.Error(t, err)
}

func TestParseTemplate_Reuse(t *testing.T) {
	tmpl, err := ParseTemplate(`{{ trim .name }}: {{ join ", " .tags }}`)
	require.NoError(t, err)

	out, err := tmpl.Render(map[string]any{"name": " a ", "tags": []string{"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, "a: x, y", out)

	out, err = tmpl.Render(map[string]any{"name": "b", "tags": []any{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, "b: 1, 2", out)
}
