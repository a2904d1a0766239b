package view

import (
	"golang.org/x/net/html"

	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/errors"
)

// View is a UI component owning exactly one root node.
// Implementations embed Base; the unexported method enforces that.
type View interface {
	// ID returns the view's unique identifier ("view1", "view2", ...).
	ID() string
	// Node returns the root node. It is set once, before the view becomes
	// reachable from the registry.
	Node() *html.Node
	// TemplateData returns the data a function template renders with.
	TemplateData() map[string]any
	// OnRender runs after the root node is attached and the model wired.
	OnRender() error
	// CreateChildren builds nested views.
	CreateChildren() error
	// DoLayout sizes and positions the view. It must be idempotent and is
	// expected to lay out nested views itself.
	DoLayout() error

	base() *Base
}

// Model is the backing data a view may be bound to. Views do not own it.
type Model interface {
	Attributes() map[string]any
	// OnDestroy registers fn for the destroy signal and returns an
	// unsubscribe function.
	OnDestroy(fn func()) func()
}

// Rules are model binding rules. Their meaning belongs to the binding
// implementation.
type Rules map[string]string

// BindingConfig is passed to a BindingFactory.
type BindingConfig struct {
	Model Model
	View  View
	Scope any
	Rules Rules
}

// Binding synchronises a model with a view.
// If it also implements io.Closer, Close runs when the view is removed.
type Binding interface {
	// FireAll applies every rule now.
	FireAll() error
}

// BindingFactory constructs a Binding.
type BindingFactory func(BindingConfig) (Binding, error)

// Base carries the state every view shares. Embed it in view structs.
type Base struct {
	id        string
	node      *html.Node
	model     Model
	binding   Binding
	options   Options
	ctrl      *Controller
	disposers []func()
	removed   bool
}

func (b *Base) base() *Base { return b }

// ID returns the view's identifier, or "" before creation.
func (b *Base) ID() string {
	return b.id
}

// Node returns the view's root node.
func (b *Base) Node() *html.Node {
	return b.node
}

// Model returns the backing model, or nil.
func (b *Base) Model() Model {
	return b.model
}

// Binding returns the model binding created at attach time, or nil.
func (b *Base) Binding() Binding {
	return b.binding
}

// Options returns the options the view was created with.
func (b *Base) Options() Options {
	return b.options
}

// Controller returns the controller that created the view.
// Use it from CreateChildren to build nested views.
func (b *Base) Controller() *Controller {
	return b.ctrl
}

// Removed reports whether the view has been removed.
func (b *Base) Removed() bool {
	return b.removed
}

// TemplateData returns the model's attributes, or an empty map without a
// model.
func (b *Base) TemplateData() map[string]any {
	if b.model != nil {
		return b.model.Attributes()
	}
	return map[string]any{}
}

// OnRender does nothing.
func (b *Base) OnRender() error { return nil }

// CreateChildren does nothing.
func (b *Base) CreateChildren() error { return nil }

// DoLayout does nothing.
func (b *Base) DoLayout() error { return nil }

// ParentView returns the closest view enclosing this one, or nil.
func (b *Base) ParentView() View {
	if b.ctrl == nil || b.removed {
		return nil
	}
	self, ok := b.ctrl.registry.Lookup(b.node)
	if !ok {
		return nil
	}
	return b.ctrl.ParentView(self)
}

// ViewSet returns the views owning the nodes matched by selector under the
// root node, deduplicated in document order. An empty selector returns the
// view itself.
func (b *Base) ViewSet(selector string) ([]View, error) {
	if b.ctrl == nil || b.removed {
		return nil, nil
	}
	if selector == "" {
		return b.ctrl.ViewsOf([]*html.Node{b.node}), nil
	}
	nodes, err := dom.Find(b.node, selector)
	if err != nil {
		return nil, &errors.ViewError{Op: "view.ViewSet", Kind: errors.KindConfiguration, View: b.id, Err: err}
	}
	return b.ctrl.ViewsOf(nodes), nil
}

// Remove removes the view, its node and any nested views.
func (b *Base) Remove() {
	if b.ctrl == nil || b.removed {
		return
	}
	if self, ok := b.ctrl.registry.Lookup(b.node); ok {
		b.ctrl.Remove(self)
	}
}

// OnDispose registers cleanup to run when the view is removed.
// Cleanups run in reverse registration order, once.
func (b *Base) OnDispose(cleanup func()) {
	if cleanup == nil {
		return
	}
	if b.removed {
		cleanup()
		return
	}
	b.disposers = append(b.disposers, cleanup)
}

func (b *Base) dispose() {
	if b.removed {
		return
	}
	b.removed = true
	disposers := b.disposers
	b.disposers = nil
	for i := len(disposers) - 1; i >= 0; i-- {
		disposers[i]()
	}
}
