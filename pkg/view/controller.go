package view

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/errors"
	"github.com/go-drift/stickyview/pkg/logging"
	"github.com/go-drift/stickyview/pkg/registry"
)

// DefaultMarkerClass marks view root nodes.
const DefaultMarkerClass = "stickyView"

// Config configures a Controller.
type Config struct {
	// MarkerClass is added to every view root. Defaults to DefaultMarkerClass.
	MarkerClass string
	// Binder builds model bindings. Views created with ModelBinding rules
	// and a model require it.
	Binder BindingFactory
	// Logger receives debug records for attach and remove. Defaults to a
	// no-op logger.
	Logger *slog.Logger
}

// Controller creates views on a document and keeps the registry in step
// with the document: removing a node through the document removes the
// views it owned.
type Controller struct {
	doc         *dom.Document
	registry    *registry.Registry[View]
	markerClass string
	binder      BindingFactory
	logger      *slog.Logger
	seq         int
	unsubscribe func()
}

// NewController creates a controller for doc. A nil registry gets a fresh
// one.
func NewController(doc *dom.Document, reg *registry.Registry[View], cfg Config) *Controller {
	if reg == nil {
		reg = registry.New[View]()
	}
	if cfg.MarkerClass == "" {
		cfg.MarkerClass = DefaultMarkerClass
	}
	c := &Controller{
		doc:         doc,
		registry:    reg,
		markerClass: cfg.MarkerClass,
		binder:      cfg.Binder,
		logger:      logging.OrNop(cfg.Logger),
	}
	c.unsubscribe = doc.OnRemove(c.handleRemoved)
	return c
}

// Close stops tracking document removals.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Document returns the controller's document.
func (c *Controller) Document() *dom.Document {
	return c.doc
}

// Registry returns the node registry the controller writes to.
func (c *Controller) Registry() *registry.Registry[View] {
	return c.registry
}

// MarkerClass returns the class added to view roots.
func (c *Controller) MarkerClass() string {
	return c.markerClass
}

// CreateFromMap decodes options with OptionsFromMap and calls Create.
func (c *Controller) CreateFromMap(v View, options map[string]any) error {
	opts, err := OptionsFromMap(options)
	if err != nil {
		return err
	}
	return c.Create(v, opts)
}

// attachment records what Create changed so it can be undone.
type attachment struct {
	view       View
	node       *html.Node
	addedClass string
	placed     bool
	prevParent *html.Node
	prevNext   *html.Node
	replaced   *html.Node
	// commitReplace notifies removal of replaced once Create succeeds.
	commitReplace func()
}

func (at *attachment) commit() {
	if at.commitReplace != nil {
		at.commitReplace()
	}
}

// Create builds v and attaches it to the document. On error nothing of v
// remains registered, classified, placed or subscribed.
func (c *Controller) Create(v View, opts Options) error {
	const op = "view.Create"
	if v == nil {
		return errors.Configuration(op, "nil view")
	}
	b := v.base()
	if b.ctrl != nil {
		return &errors.ViewError{Op: op, Kind: errors.KindConfiguration, View: b.id, Err: fmt.Errorf("view already created")}
	}

	tmpl := opts.Template
	if tmpl == nil {
		if t, ok := v.(Templated); ok {
			tmpl = t.Template()
		}
	}
	if err := opts.validate(op, tmpl); err != nil {
		return err
	}
	if opts.Model != nil && len(opts.ModelBinding) > 0 && c.binder == nil {
		return errors.Configuration(op, "model binding rules given but no binding factory configured")
	}

	c.seq++
	b.id = fmt.Sprintf("view%d", c.seq)
	b.model = opts.Model
	b.options = opts

	node, err := c.resolveNode(op, v, tmpl, opts)
	if err != nil {
		*b = Base{}
		return err
	}
	b.node = node
	b.ctrl = c

	if err := c.registry.Attach(node, v); err != nil {
		*b = Base{}
		return err
	}
	at := &attachment{view: v, node: node, addedClass: c.addClasses(node, opts.ClassName)}
	c.place(at, opts)

	if opts.Model != nil {
		// A model destroyed already removes the view right here.
		b.OnDispose(opts.Model.OnDestroy(func() { c.Remove(v) }))
		if len(opts.ModelBinding) > 0 && !b.removed {
			if err := c.bind(op, v, opts); err != nil {
				c.rollback(at)
				return err
			}
		}
	}
	c.logger.Debug("view attached", "view", b.id, "node", node.Data, "placed", at.placed)

	hooks := []struct {
		name string
		fn   func() error
	}{
		{"OnRender", v.OnRender},
		{"CreateChildren", v.CreateChildren},
		{"DoLayout", v.DoLayout},
	}
	for _, h := range hooks {
		if b.removed {
			break
		}
		if err := invokeHook(op, v, h.name, h.fn); err != nil {
			c.rollback(at)
			return err
		}
	}
	at.commit()
	return nil
}

func (c *Controller) resolveNode(op string, v View, tmpl Template, opts Options) (*html.Node, error) {
	if tmpl == nil {
		if opts.El != nil {
			return opts.El, nil
		}
		n := c.doc.CreateElement(opts.TagName)
		if opts.ID != "" {
			dom.SetAttr(n, "id", opts.ID)
		}
		keys := make([]string, 0, len(opts.Attributes))
		for k := range opts.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			dom.SetAttr(n, k, opts.Attributes[k])
		}
		return n, nil
	}

	var markup string
	err := invokeHook(op, v, "Template", func() error {
		var renderErr error
		markup, renderErr = tmpl.Render(v.TemplateData())
		return renderErr
	})
	if err != nil {
		ve := err.(*errors.ViewError)
		ve.Kind = errors.KindTemplate
		return nil, ve
	}

	nodes, err := c.doc.ParseFragment(markup)
	if err != nil {
		return nil, &errors.ViewError{Op: op, Kind: errors.KindTemplate, View: v.ID(), Err: err}
	}
	var roots []*html.Node
	elements := 0
	for _, n := range nodes {
		if !dom.IsBlank(n) {
			roots = append(roots, n)
			if n.Type == html.ElementNode {
				elements++
			}
		}
	}
	if len(roots) != 1 || elements != 1 {
		ve := errors.TemplateStructure(op, markup, len(roots), elements)
		ve.View = v.ID()
		return nil, ve
	}
	return roots[0], nil
}

// addClasses adds the marker class and className to node and returns the
// classes that were not already present.
func (c *Controller) addClasses(node *html.Node, className string) string {
	var added []string
	for _, cls := range append([]string{c.markerClass}, strings.Fields(className)...) {
		if !dom.HasClass(node, cls) && !slices.Contains(added, cls) {
			added = append(added, cls)
		}
	}
	classes := strings.Join(added, " ")
	if classes != "" {
		dom.AddClass(node, classes)
	}
	return classes
}

// place applies the single placement option, recording where the node was.
func (c *Controller) place(at *attachment, opts Options) {
	if opts.placements() == 0 {
		return
	}
	at.placed = true
	at.prevParent = at.node.Parent
	at.prevNext = at.node.NextSibling

	switch {
	case opts.AppendTo != nil:
		c.doc.AppendTo(opts.AppendTo, at.node)
	case opts.PrependTo != nil:
		c.doc.PrependTo(opts.PrependTo, at.node)
	default:
		// Views inside the replaced node stay registered until commit.
		at.replaced = opts.ReplaceEl
		at.commitReplace = c.doc.Swap(opts.ReplaceEl, at.node)
	}
}

func (c *Controller) bind(op string, v View, opts Options) error {
	b := v.base()
	binding, err := c.binder(BindingConfig{Model: opts.Model, View: v, Scope: v, Rules: opts.ModelBinding})
	if err != nil {
		return &errors.ViewError{Op: op, Kind: errors.KindConfiguration, View: b.id, Err: fmt.Errorf("model binding: %w", err)}
	}
	if closer, ok := binding.(io.Closer); ok {
		b.OnDispose(func() { _ = closer.Close() })
	}
	b.binding = binding
	if err := binding.FireAll(); err != nil {
		return &errors.ViewError{Op: op, Kind: errors.KindConfiguration, View: b.id, Err: fmt.Errorf("model binding: %w", err)}
	}
	return nil
}

// rollback undoes a failed Create.
func (c *Controller) rollback(at *attachment) {
	b := at.view.base()
	for _, v := range c.registry.Detach(at.node) {
		v.base().dispose()
	}
	if at.addedClass != "" {
		dom.RemoveClass(at.node, at.addedClass)
	}
	if at.placed {
		if at.replaced != nil && at.replaced.Parent == nil {
			if at.node.Parent != nil {
				at.node.Parent.InsertBefore(at.replaced, at.node)
			} else {
				// A hook removed the node; the replaced position is gone.
				at.commit()
			}
		}
		if at.node.Parent != nil {
			at.node.Parent.RemoveChild(at.node)
		}
		if at.prevParent != nil {
			next := at.prevNext
			if next != nil && next.Parent != at.prevParent {
				next = nil
			}
			at.prevParent.InsertBefore(at.node, next)
		}
	}
	c.logger.Debug("view creation rolled back", "view", b.id)
	*b = Base{}
}

// Remove removes v, the views nested in its node, and its node from the
// document. Removing a removed view is a no-op.
func (c *Controller) Remove(v View) {
	if v == nil {
		return
	}
	b := v.base()
	if b.ctrl != c || b.removed {
		return
	}
	for _, removed := range c.registry.Detach(b.node) {
		c.dispose(removed)
	}
	c.doc.Remove(b.node)
}

func (c *Controller) handleRemoved(n *html.Node) {
	for _, v := range c.registry.Detach(n) {
		c.dispose(v)
	}
}

func (c *Controller) dispose(v View) {
	v.base().dispose()
	c.logger.Debug("view removed", "view", v.ID())
}

// ParentView returns the nearest view enclosing v, or nil.
func (c *Controller) ParentView(v View) View {
	if p, ok := c.registry.ParentOf(v); ok {
		return p
	}
	return nil
}

// ViewOf returns the view owning n or its nearest ancestor, or nil.
func (c *Controller) ViewOf(n *html.Node) View {
	if v, ok := c.registry.Nearest(n); ok {
		return v
	}
	return nil
}

// ViewsOf resolves nodes to their nearest views, deduplicated in order.
func (c *Controller) ViewsOf(nodes []*html.Node) []View {
	return c.registry.ViewsOf(nodes)
}
