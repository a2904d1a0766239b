package layout

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/errors"
	"github.com/go-drift/stickyview/pkg/view"
)

type recorder struct {
	calls []string
}

type boxView struct {
	view.Base
	name   string
	rec    *recorder
	layout func(*boxView) error
}

func (v *boxView) DoLayout() error {
	if v.rec != nil {
		v.rec.calls = append(v.rec.calls, v.name)
	}
	if v.layout != nil {
		return v.layout(v)
	}
	return nil
}

type captureHandler struct {
	errors []*errors.ViewError
	panics []*errors.PanicError
}

func (h *captureHandler) HandleError(err *errors.ViewError) { h.errors = append(h.errors, err) }
func (h *captureHandler) HandlePanic(err *errors.PanicError) { h.panics = append(h.panics, err) }

type fixture struct {
	doc  *dom.Document
	ctrl *view.Controller
	rec  *recorder
	errs *captureHandler
}

func newFixture(t *testing.T, markup string) *fixture {
	t.Helper()
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	h := &captureHandler{}
	errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(nil) })
	ctrl := view.NewController(doc, nil, view.Config{})
	t.Cleanup(ctrl.Close)
	return &fixture{doc: doc, ctrl: ctrl, rec: &recorder{}, errs: h}
}

// mount creates a boxView on the element matched by selector. The creation
// DoLayout is cleared from the recorder.
func (f *fixture) mount(t *testing.T, name, selector string) *boxView {
	t.Helper()
	nodes, err := f.doc.Select(selector)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	v := &boxView{name: name}
	require.NoError(t, f.ctrl.Create(v, view.Options{El: nodes[0]}))
	v.rec = f.rec
	return v
}

func (f *fixture) propagator() *Propagator {
	return NewPropagator(f.doc, f.ctrl.Registry(), Config{})
}

const nested = `<div class="root"><div class="mid"><div class="inner"></div></div></div>`

func TestPropagateLaysOutOutermostOnly(t *testing.T) {
	f := newFixture(t, nested)
	a := f.mount(t, "A", ".root")
	f.mount(t, "B", ".mid")
	f.mount(t, "C", ".inner")

	res := f.propagator().Propagate()

	assert.Equal(t, []string{"A"}, f.rec.calls)
	assert.Equal(t, []view.View{a}, res.Laid)
	assert.Empty(t, res.Failed)
	assert.Zero(t, res.Skipped)
}

func TestPropagateInnerRegisteredFirst(t *testing.T) {
	f := newFixture(t, `<div class="root"><div class="inner"></div></div>`)
	f.mount(t, "inner", ".inner")
	f.mount(t, "root", ".root")

	f.propagator().Propagate()

	assert.Equal(t, []string{"root"}, f.rec.calls)
}

func TestPropagateSiblingChains(t *testing.T) {
	f := newFixture(t, `<div class="a"><p class="a1"></p></div><div class="b"><p class="b1"></p></div>`)
	f.mount(t, "a", ".a")
	f.mount(t, "a1", ".a1")
	f.mount(t, "b1", ".b1")
	f.mount(t, "b", ".b")

	f.propagator().Propagate()

	assert.Equal(t, []string{"a", "b"}, f.rec.calls)
}

func TestPropagateSkipsDetachedViews(t *testing.T) {
	f := newFixture(t, `<div class="a"></div>`)
	f.mount(t, "a", ".a")
	detached := &boxView{name: "detached"}
	require.NoError(t, f.ctrl.Create(detached, view.Options{}))
	detached.rec = f.rec

	res := f.propagator().Propagate()

	assert.Equal(t, []string{"a"}, f.rec.calls)
	assert.Zero(t, res.Skipped)
}

func TestPropagateFailureIsolatedPerChain(t *testing.T) {
	f := newFixture(t, `<div class="a"></div><div class="b"></div><div class="c"></div>`)
	f.mount(t, "a", ".a")
	bad := f.mount(t, "b", ".b")
	bad.layout = func(*boxView) error { return fmt.Errorf("cannot measure") }
	f.mount(t, "c", ".c")

	res := f.propagator().Propagate()

	assert.Equal(t, []string{"a", "b", "c"}, f.rec.calls)
	assert.Len(t, res.Laid, 2)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, bad.ID(), res.Failed[0].View)
	assert.Equal(t, "DoLayout", res.Failed[0].Hook)
	assert.ErrorIs(t, res.Failed[0], errors.ErrLayoutHook)
	require.Len(t, f.errs.errors, 1)
	assert.Same(t, res.Failed[0], f.errs.errors[0])
}

func TestPropagateRecoversPanics(t *testing.T) {
	f := newFixture(t, `<div class="a"></div><div class="b"></div>`)
	bad := f.mount(t, "a", ".a")
	bad.layout = func(*boxView) error { panic("nil size") }
	f.mount(t, "b", ".b")

	res := f.propagator().Propagate()

	assert.Equal(t, []string{"a", "b"}, f.rec.calls)
	require.Len(t, res.Failed, 1)
	assert.Contains(t, res.Failed[0].Err.Error(), "nil size")
	assert.NotEmpty(t, res.Failed[0].StackTrace)
	assert.Equal(t, "nil size", res.Failed[0].Panic)
	// Reported once, as the layout error.
	assert.Empty(t, f.errs.panics)
	require.Len(t, f.errs.errors, 1)
	assert.Same(t, res.Failed[0], f.errs.errors[0])
}

func TestPropagateSkipsViewsRemovedMidPass(t *testing.T) {
	f := newFixture(t, `<div class="a"></div><div class="b"></div>`)
	a := f.mount(t, "a", ".a")
	b := f.mount(t, "b", ".b")
	a.layout = func(*boxView) error {
		b.Remove()
		return nil
	}

	res := f.propagator().Propagate()

	assert.Equal(t, []string{"a"}, f.rec.calls)
	assert.Equal(t, 1, res.Skipped)
}

func TestPropagateIsRepeatable(t *testing.T) {
	f := newFixture(t, nested)
	f.mount(t, "A", ".root")
	f.mount(t, "B", ".inner")
	p := f.propagator()

	p.Propagate()
	p.Propagate()

	assert.Equal(t, []string{"A", "A"}, f.rec.calls)
}

func TestPropagateEmptyDocument(t *testing.T) {
	f := newFixture(t, ``)

	res := f.propagator().Propagate()

	assert.Empty(t, res.Laid)
	assert.Empty(t, res.Failed)
}

func TestViewport(t *testing.T) {
	f := newFixture(t, ``)
	p := f.propagator()
	assert.Equal(t, Viewport{}, p.Viewport())

	p.SetViewport(Viewport{Width: 800, Height: 600})

	assert.Equal(t, Viewport{Width: 800, Height: 600}, p.Viewport())
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, `<div class="a"></div><div class="b"></div><div class="c"></div>`)
	a := f.mount(t, "a", ".a")
	f.mount(t, "b", ".b").layout = func(*boxView) error { return fmt.Errorf("boom") }
	c := f.mount(t, "c", ".c")
	a.layout = func(*boxView) error {
		c.Remove()
		return nil
	}

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "stickyview")
	p := NewPropagator(f.doc, f.ctrl.Registry(), Config{Metrics: m})
	p.Propagate()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Passes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Layouts.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Layouts.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Layouts.WithLabelValues(OutcomeSkipped)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PassDuration))
}
