// Package binding keeps views in step with their models.
//
// ModelBinding applies rules of the form attribute -> selector: the text of
// every node under the view's root matching the selector is set to the
// attribute's value. The root node itself is included, so a rule like
// {"title": "h1"} works for a view whose root is the h1. Rules fire once when
// the view is attached and again for each attribute change.
//
// CollectionBinding keeps one view per model of a collection inside a
// container node.
package binding

import (
	"fmt"
	"sort"

	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/errors"
	"github.com/go-drift/stickyview/pkg/view"
)

// changeNotifier is implemented by models that signal attribute changes.
type changeNotifier interface {
	OnChange(fn func(key string)) func()
}

// ModelBinding applies attribute -> selector rules to a view.
type ModelBinding struct {
	model view.Model
	view  view.View
	scope any
	rules view.Rules
	unsub func()
}

// Factory is a view.BindingFactory producing ModelBindings.
func Factory(cfg view.BindingConfig) (view.Binding, error) {
	return New(cfg)
}

// New creates a binding. Rules with an empty selector are rejected.
func New(cfg view.BindingConfig) (*ModelBinding, error) {
	if cfg.Model == nil || cfg.View == nil {
		return nil, fmt.Errorf("binding: model and view are required")
	}
	for attr, selector := range cfg.Rules {
		if selector == "" {
			return nil, fmt.Errorf("binding: empty selector for %q", attr)
		}
	}
	b := &ModelBinding{model: cfg.Model, view: cfg.View, scope: cfg.Scope, rules: cfg.Rules}
	if n, ok := cfg.Model.(changeNotifier); ok {
		b.unsub = n.OnChange(func(key string) {
			if _, bound := b.rules[key]; bound {
				b.fireChange(key)
			}
		})
	}
	return b, nil
}

// Scope returns the scope the binding was created with.
func (b *ModelBinding) Scope() any {
	return b.scope
}

// FireAll applies every rule, in attribute order.
func (b *ModelBinding) FireAll() error {
	attrs := make([]string, 0, len(b.rules))
	for attr := range b.rules {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	for _, attr := range attrs {
		if err := b.Fire(attr); err != nil {
			return err
		}
	}
	return nil
}

// Fire applies the rule for attr.
func (b *ModelBinding) Fire(attr string) error {
	selector, ok := b.rules[attr]
	if !ok {
		return nil
	}
	nodes, err := dom.Select(b.view.Node(), selector)
	if err != nil {
		return err
	}
	value := b.model.Attributes()[attr]
	text := ""
	if value != nil {
		text = fmt.Sprint(value)
	}
	for _, n := range nodes {
		dom.SetText(n, text)
	}
	return nil
}

// fireChange applies the rule for a changed attribute. There is no caller
// to return a failure to, so it is reported.
func (b *ModelBinding) fireChange(key string) {
	if err := b.Fire(key); err != nil {
		errors.Report(&errors.ViewError{
			Op:   "binding.ModelBinding",
			Kind: errors.KindConfiguration,
			View: b.view.ID(),
			Err:  fmt.Errorf("attribute %q: %w", key, err),
		})
	}
}

// Close stops listening for model changes.
func (b *ModelBinding) Close() error {
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
	return nil
}
