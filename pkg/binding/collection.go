package binding

import (
	stderrors "errors"
	"fmt"

	"golang.org/x/net/html"

	"github.com/go-drift/stickyview/pkg/errors"
	"github.com/go-drift/stickyview/pkg/model"
	"github.com/go-drift/stickyview/pkg/view"
)

// CollectionConfig configures BindCollection.
type CollectionConfig struct {
	Controller *view.Controller
	Collection *model.Collection
	// Container receives one view root per model.
	Container *html.Node
	// NewView returns the view for a model.
	NewView func(*model.Model) view.View
	// Options returns extra options for a model's view. Model and AppendTo
	// are always set by the binding.
	Options func(*model.Model) view.Options
}

// CollectionBinding keeps a view per collection model. Adding a model
// creates its view; removing or destroying the model removes the view.
type CollectionBinding struct {
	cfg   CollectionConfig
	views map[*model.Model]view.View
	unsub []func()
}

// BindCollection creates views for the current models and tracks changes.
// Views that fail to build are reported and skipped.
func BindCollection(cfg CollectionConfig) (*CollectionBinding, error) {
	if cfg.Controller == nil || cfg.Collection == nil || cfg.Container == nil || cfg.NewView == nil {
		return nil, errors.Configuration("binding.BindCollection", "controller, collection, container and view constructor are required")
	}
	cb := &CollectionBinding{cfg: cfg, views: make(map[*model.Model]view.View)}
	for _, m := range cfg.Collection.Models() {
		cb.add(m)
	}
	cb.unsub = append(cb.unsub,
		cfg.Collection.OnAdd(cb.add),
		cfg.Collection.OnRemove(cb.remove),
	)
	return cb, nil
}

// View returns the view bound to m, or nil.
func (cb *CollectionBinding) View(m *model.Model) view.View {
	return cb.views[m]
}

// Views returns the bound views in collection order.
func (cb *CollectionBinding) Views() []view.View {
	var out []view.View
	for _, m := range cb.cfg.Collection.Models() {
		if v, ok := cb.views[m]; ok {
			out = append(out, v)
		}
	}
	return out
}

func (cb *CollectionBinding) add(m *model.Model) {
	if _, ok := cb.views[m]; ok {
		return
	}
	var opts view.Options
	if cb.cfg.Options != nil {
		opts = cb.cfg.Options(m)
	}
	opts.Model = m
	opts.AppendTo = cb.cfg.Container
	opts.PrependTo = nil
	opts.ReplaceEl = nil

	v := cb.cfg.NewView(m)
	if err := cb.cfg.Controller.Create(v, opts); err != nil {
		report := &errors.ViewError{Op: "binding.CollectionBinding", Err: fmt.Errorf("model %s: %w", m.ID(), err)}
		var ve *errors.ViewError
		if stderrors.As(err, &ve) {
			report.Kind = ve.Kind
			report.Hook = ve.Hook
		}
		errors.Report(report)
		return
	}
	cb.views[m] = v
}

func (cb *CollectionBinding) remove(m *model.Model) {
	v, ok := cb.views[m]
	if !ok {
		return
	}
	delete(cb.views, m)
	cb.cfg.Controller.Remove(v)
}

// Close stops tracking the collection and removes every bound view.
func (cb *CollectionBinding) Close() error {
	for _, unsub := range cb.unsub {
		unsub()
	}
	cb.unsub = nil
	for _, v := range cb.Views() {
		cb.cfg.Controller.Remove(v)
	}
	clear(cb.views)
	return nil
}
