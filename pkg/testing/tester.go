package testing

import (
	"fmt"
	"testing"

	"golang.org/x/net/html"

	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/engine"
	"github.com/go-drift/stickyview/pkg/layout"
	"github.com/go-drift/stickyview/pkg/view"
)

const (
	// DefaultTestWidth is the default viewport width.
	DefaultTestWidth = 800
	// DefaultTestHeight is the default viewport height.
	DefaultTestHeight = 600
)

// ViewTester drives an engine over an in-memory document. It runs the same
// dispatch and layout phases as the engine, one frame per Pump.
type ViewTester struct {
	engine   *engine.Engine
	viewport layout.Viewport
}

// NewViewTester parses markup into a document and creates a tester over it.
// Call Cleanup when done, or use NewViewTesterWithT instead.
func NewViewTester(markup string, cfg engine.Config) (*ViewTester, error) {
	doc, err := dom.ParseString(markup)
	if err != nil {
		return nil, err
	}
	return &ViewTester{
		engine:   engine.New(doc, cfg),
		viewport: layout.Viewport{Width: DefaultTestWidth, Height: DefaultTestHeight},
	}, nil
}

// NewViewTesterWithT creates a tester with the default engine config that
// fails t on a parse error and cleans up via t.Cleanup().
func NewViewTesterWithT(t testing.TB, markup string) *ViewTester {
	t.Helper()
	tester, err := NewViewTester(markup, engine.Config{})
	if err != nil {
		t.Fatalf("parse test document: %v", err)
	}
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup detaches the engine from the document.
func (t *ViewTester) Cleanup() {
	t.engine.Close()
}

// Engine returns the engine under test.
func (t *ViewTester) Engine() *engine.Engine {
	return t.engine
}

// Document returns the document under test.
func (t *ViewTester) Document() *dom.Document {
	return t.engine.Document()
}

// SetSize sets the viewport used by Pump.
func (t *ViewTester) SetSize(width, height int) {
	t.viewport = layout.Viewport{Width: width, Height: height}
}

// Mount creates v with opts.
func (t *ViewTester) Mount(v view.View, opts view.Options) error {
	return t.engine.Create(v, opts)
}

// MountOn creates v on the single element matching selector.
func (t *ViewTester) MountOn(selector string, v view.View, opts view.Options) error {
	nodes, err := t.Document().Select(selector)
	if err != nil {
		return err
	}
	if len(nodes) != 1 {
		return fmt.Errorf("MountOn(%q): matched %d elements, want 1", selector, len(nodes))
	}
	opts.El = nodes[0]
	return t.engine.Create(v, opts)
}

// Dispatch queues a callback for the next frame, mirroring engine.Dispatch.
func (t *ViewTester) Dispatch(fn func()) {
	t.engine.Dispatch(fn)
}

// Pump runs one frame with a resize signal at the current size.
func (t *ViewTester) Pump() *engine.FrameSnapshot {
	return t.engine.Resize(t.viewport)
}

// Resize sets the size and runs one frame.
func (t *ViewTester) Resize(width, height int) *engine.FrameSnapshot {
	t.SetSize(width, height)
	return t.Pump()
}

// Views returns the attached views in document order.
func (t *ViewTester) Views() []view.View {
	var out []view.View
	reg := t.engine.Registry()
	dom.Walk(t.Document().Root(), func(n *html.Node) bool {
		if v, ok := reg.Lookup(n); ok {
			out = append(out, v)
		}
		return true
	})
	return out
}

// Find evaluates a finder against the attached views.
func (t *ViewTester) Find(finder Finder) FinderResult {
	return FinderResult{
		views:  finder.Evaluate(t),
		finder: finder,
	}
}
