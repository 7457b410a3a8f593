package util

import (
	"fmt"
	"strings"
	"text/template"
)

var templateFuncs = template.FuncMap{
	"default": func(fallback, val any) any {
		if val == nil || val == "" {
			return fallback
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
	"join": func(sep string, items any) string {
		switch v := items.(type) {
		case []string:
			return strings.Join(v, sep)
		case []any:
			parts := make([]string, len(v))
			for i, item := range v {
				parts[i] = fmt.Sprint(item)
			}
			return strings.Join(parts, sep)
		}
		return fmt.Sprint(items)
	},
}

// Template is a parsed text/template. Text without {{ markers is kept
// verbatim and never parsed.
type Template struct {
	text string
	tmpl *template.Template
}

// ParseTemplate parses text once for repeated rendering.
func ParseTemplate(text string) (*Template, error) {
	t := &Template{text: text}
	if !strings.Contains(text, "{{") {
		return t, nil
	}
	tmpl, err := template.New("instruction").Option("missingkey=zero").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	t.tmpl = tmpl
	return t, nil
}

// Render executes the template against data. Missing keys render empty.
func (t *Template) Render(data map[string]any) (string, error) {
	if t.tmpl == nil {
		return t.text, nil
	}
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return strings.ReplaceAll(sb.String(), "<no value>", ""), nil
}

// RenderTemplate parses and renders text in one step.
func RenderTemplate(text string, data map[string]any) (string, error) {
	t, err := ParseTemplate(text)
	if err != nil {
		return "", err
	}
	return t.Render(data)
}
