package view

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/net/html"

	"github.com/go-drift/stickyview/pkg/errors"
)

// Options configure Controller.Create.
type Options struct {
	// Template renders the root node. Mutually exclusive with El.
	Template Template
	// Model backs the view. Its destroy signal removes the view.
	Model Model
	// El is an existing node to attach to instead of rendering one.
	El *html.Node

	// At most one placement may be set.
	AppendTo  *html.Node
	PrependTo *html.Node
	ReplaceEl *html.Node

	// TagName, ID and Attributes describe the element created when neither
	// Template nor El is given. TagName defaults to "div".
	TagName    string
	ID         string
	Attributes map[string]string
	// ClassName is added to the root node's classes.
	ClassName string
	// ModelBinding rules are applied through the controller's binding
	// factory when a Model is present.
	ModelBinding Rules
}

func (o Options) placements() int {
	n := 0
	for _, target := range []*html.Node{o.AppendTo, o.PrependTo, o.ReplaceEl} {
		if target != nil {
			n++
		}
	}
	return n
}

func (o Options) validate(op string, tmpl Template) error {
	if tmpl != nil && o.El != nil {
		return errors.Configuration(op, "cannot attach a templated view to an existing element")
	}
	if o.placements() > 1 {
		return errors.Configuration(op, "only one of appendTo, prependTo and replaceEl may be set")
	}
	if o.ReplaceEl != nil && o.ReplaceEl == o.El {
		return errors.Configuration(op, "replaceEl must differ from el")
	}
	return nil
}

// rawOptions is the map form of Options before type checking. Node, model
// and template values are decoded as-is so pointer identity survives.
type rawOptions struct {
	Template     any               `mapstructure:"template"`
	Model        any               `mapstructure:"model"`
	El           any               `mapstructure:"el"`
	AppendTo     any               `mapstructure:"appendTo"`
	PrependTo    any               `mapstructure:"prependTo"`
	ReplaceEl    any               `mapstructure:"replaceEl"`
	TagName      string            `mapstructure:"tagName"`
	ID           string            `mapstructure:"id"`
	ClassName    string            `mapstructure:"className"`
	Attributes   map[string]string `mapstructure:"attributes"`
	ModelBinding map[string]string `mapstructure:"modelBinding"`
}

// OptionsFromMap decodes options given as a map, e.g.
//
//	{"template": "<div></div>", "model": m, "appendTo": body, "className": "panel"}
//
// Unknown keys and values of the wrong type are configuration errors.
func OptionsFromMap(m map[string]any) (Options, error) {
	const op = "view.OptionsFromMap"

	var raw rawOptions
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Options{}, &errors.ViewError{Op: op, Kind: errors.KindConfiguration, Err: err}
	}
	if err := dec.Decode(m); err != nil {
		return Options{}, &errors.ViewError{Op: op, Kind: errors.KindConfiguration, Err: err}
	}

	opts := Options{
		TagName:      raw.TagName,
		ID:           raw.ID,
		ClassName:    raw.ClassName,
		Attributes:   raw.Attributes,
		ModelBinding: Rules(raw.ModelBinding),
	}

	if opts.Template, err = asTemplate(raw.Template); err != nil {
		return Options{}, errors.Configuration(op, "template: %v", err)
	}
	switch mv := raw.Model.(type) {
	case nil:
	case Model:
		opts.Model = mv
	default:
		return Options{}, errors.Configuration(op, "model: unsupported type %T", raw.Model)
	}

	nodes := []struct {
		key string
		in  any
		out **html.Node
	}{
		{"el", raw.El, &opts.El},
		{"appendTo", raw.AppendTo, &opts.AppendTo},
		{"prependTo", raw.PrependTo, &opts.PrependTo},
		{"replaceEl", raw.ReplaceEl, &opts.ReplaceEl},
	}
	for _, n := range nodes {
		switch v := n.in.(type) {
		case nil:
		case *html.Node:
			*n.out = v
		default:
			return Options{}, errors.Configuration(op, "%s: expected *html.Node, got %T", n.key, n.in)
		}
	}
	return opts, nil
}

func asTemplate(v any) (Template, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case Template:
		return t, nil
	case string:
		return Markup(t), nil
	case func(map[string]any) (string, error):
		return TemplateFunc(t), nil
	case func(map[string]any) string:
		return TemplateFunc(func(data map[string]any) (string, error) { return t(data), nil }), nil
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}
