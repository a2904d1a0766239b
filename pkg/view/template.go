package view

import (
	"bytes"
	"html/template"
)

// Template renders the markup of a view's root node. The markup must hold
// exactly one top-level element.
type Template interface {
	Render(data map[string]any) (string, error)
}

// Markup is an already compiled template: it renders to itself.
type Markup string

// Render returns m unchanged.
func (m Markup) Render(map[string]any) (string, error) {
	return string(m), nil
}

// TemplateFunc adapts a function to Template.
type TemplateFunc func(data map[string]any) (string, error)

// Render calls f(data).
func (f TemplateFunc) Render(data map[string]any) (string, error) {
	return f(data)
}

// HTMLTemplate renders with an html/template, executing it with the view's
// template data.
func HTMLTemplate(t *template.Template) Template {
	return TemplateFunc(func(data map[string]any) (string, error) {
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return "", err
		}
		return buf.String(), nil
	})
}

// Templated is implemented by views that carry their own template.
// A template given in Options takes precedence.
type Templated interface {
	Template() Template
}
