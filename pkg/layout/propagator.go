package layout

import (
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/errors"
	"github.com/go-drift/stickyview/pkg/logging"
	"github.com/go-drift/stickyview/pkg/registry"
	"github.com/go-drift/stickyview/pkg/view"
)

// Viewport is the size most recently signalled by the host.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Config configures a Propagator.
type Config struct {
	// Logger receives pass summaries and failures. Defaults to a no-op logger.
	Logger *slog.Logger
	// Metrics is optional.
	Metrics *Metrics
}

// Result describes one pass.
type Result struct {
	// Laid lists the views whose DoLayout succeeded, in invocation order.
	Laid []view.View
	// Failed holds one error per view whose DoLayout failed or panicked.
	Failed []*errors.ViewError
	// Skipped counts views removed by an earlier hook in the same pass.
	Skipped int
}

// Propagator runs resize passes over the views in a registry.
type Propagator struct {
	doc      *dom.Document
	registry *registry.Registry[view.View]
	logger   *slog.Logger
	metrics  *Metrics
	viewport Viewport
}

// NewPropagator creates a propagator for the views of reg attached to doc.
func NewPropagator(doc *dom.Document, reg *registry.Registry[view.View], cfg Config) *Propagator {
	return &Propagator{
		doc:      doc,
		registry: reg,
		logger:   logging.OrNop(cfg.Logger),
		metrics:  cfg.Metrics,
	}
}

// SetViewport records the size of the latest resize signal.
func (p *Propagator) SetViewport(vp Viewport) {
	p.viewport = vp
}

// Viewport returns the size of the latest resize signal.
func (p *Propagator) Viewport() Viewport {
	return p.viewport
}

// Propagate runs one pass. The working set is every registered view whose
// node is in the document, in registration order. For each chain the
// outermost member is laid out and the whole chain leaves the working set.
func (p *Propagator) Propagate() Result {
	start := time.Now()
	var res Result

	pending := make(map[view.View]bool)
	var order []view.View
	for _, v := range p.registry.Views() {
		if p.doc.Contains(v.Node()) {
			pending[v] = true
			order = append(order, v)
		}
	}

	for _, v := range order {
		if !pending[v] {
			continue
		}
		if !p.live(v) {
			delete(pending, v)
			res.Skipped++
			continue
		}

		root := v
		for parent, ok := p.registry.ParentOf(root); ok && pending[parent]; parent, ok = p.registry.ParentOf(parent) {
			root = parent
		}
		for u := range pending {
			if dom.IsInclusiveAncestor(root.Node(), u.Node()) {
				delete(pending, u)
			}
		}

		if err := view.Layout("layout.Propagate", root); err != nil {
			ve := asViewError(err)
			errors.Report(ve)
			p.logger.Warn("layout failed", "view", root.ID(), "err", ve.Err)
			res.Failed = append(res.Failed, ve)
			continue
		}
		res.Laid = append(res.Laid, root)
	}

	p.metrics.observe(res, time.Since(start))
	p.logger.Debug("layout pass",
		"width", p.viewport.Width,
		"height", p.viewport.Height,
		"laid", len(res.Laid),
		"failed", len(res.Failed),
		"skipped", res.Skipped,
	)
	return res
}

// live reports whether v is still registered and attached.
func (p *Propagator) live(v view.View) bool {
	return p.registry.Owns(v) && p.doc.Contains(v.Node())
}

func asViewError(err error) *errors.ViewError {
	var ve *errors.ViewError
	if stderrors.As(err, &ve) {
		return ve
	}
	return &errors.ViewError{Op: "layout.Propagate", Kind: errors.KindLayout, Hook: "DoLayout", Err: err}
}
