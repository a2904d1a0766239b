// Package engine drives a document of views: it queues work for the UI
// goroutine, coalesces resize signals and runs at most one layout pass per
// frame.
package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"

	"github.com/go-drift/stickyview/pkg/binding"
	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/errors"
	"github.com/go-drift/stickyview/pkg/layout"
	"github.com/go-drift/stickyview/pkg/logging"
	"github.com/go-drift/stickyview/pkg/registry"
	"github.com/go-drift/stickyview/pkg/view"
)

// Config configures an Engine.
type Config struct {
	// MarkerClass is added to every view root. Defaults to
	// view.DefaultMarkerClass.
	MarkerClass string
	// Logger defaults to a no-op logger.
	Logger *slog.Logger
	// Binder builds model bindings. Defaults to binding.Factory.
	Binder view.BindingFactory
	// Metrics is passed to the layout propagator.
	Metrics *layout.Metrics
	// TraceCapacity is the number of pass samples kept. Defaults to 240.
	TraceCapacity int
	// SlowPassThreshold marks a pass as slow in the trace. Defaults to 16.667ms.
	SlowPassThreshold time.Duration
}

// Engine owns a document, its view registry, the controller that creates
// views and the propagator that lays them out.
//
// Views are created and removed on the UI goroutine: either the goroutine
// calling StepFrame, or inside a callback passed to Dispatch. Dispatch and
// HandleResize are safe from any goroutine.
type Engine struct {
	frameMu    sync.Mutex
	doc        *dom.Document
	registry   *registry.Registry[view.View]
	controller *view.Controller
	propagator *layout.Propagator
	logger     *slog.Logger
	trace      *PassTraceBuffer

	dispatchMu    sync.Mutex
	dispatchQueue []func()

	resizeMu      sync.Mutex
	nextViewport  layout.Viewport
	pendingResize atomic.Bool

	frameCounter atomic.Uint64
}

// New creates an engine for doc. A nil doc gets an empty document.
func New(doc *dom.Document, cfg Config) *Engine {
	if doc == nil {
		doc = dom.New()
	}
	if cfg.Binder == nil {
		cfg.Binder = binding.Factory
	}
	logger := logging.OrNop(cfg.Logger)
	reg := registry.New[view.View]()
	return &Engine{
		doc:      doc,
		registry: reg,
		controller: view.NewController(doc, reg, view.Config{
			MarkerClass: cfg.MarkerClass,
			Binder:      cfg.Binder,
			Logger:      logger,
		}),
		propagator: layout.NewPropagator(doc, reg, layout.Config{
			Logger:  logger,
			Metrics: cfg.Metrics,
		}),
		logger: logger,
		trace:  NewPassTraceBuffer(cfg.TraceCapacity, cfg.SlowPassThreshold),
	}
}

// Close detaches the engine from its document's removal notifications.
func (e *Engine) Close() {
	e.controller.Close()
}

// Document returns the engine's document.
func (e *Engine) Document() *dom.Document { return e.doc }

// Registry returns the node registry.
func (e *Engine) Registry() *registry.Registry[view.View] { return e.registry }

// Controller returns the view controller.
func (e *Engine) Controller() *view.Controller { return e.controller }

// Propagator returns the layout propagator.
func (e *Engine) Propagator() *layout.Propagator { return e.propagator }

// Trace returns the pass trace buffer.
func (e *Engine) Trace() *PassTraceBuffer { return e.trace }

// Create builds v with opts. Call it on the UI goroutine.
func (e *Engine) Create(v view.View, opts view.Options) error {
	return e.controller.Create(v, opts)
}

// Remove removes v and the views nested in it. Call it on the UI goroutine.
func (e *Engine) Remove(v view.View) {
	e.controller.Remove(v)
}

// ViewOf returns the view owning n or its nearest ancestor, or nil.
func (e *Engine) ViewOf(n *html.Node) view.View {
	return e.controller.ViewOf(n)
}

// Dispatch schedules a callback to run on the UI goroutine during the next
// frame. It is safe to call from any goroutine.
func (e *Engine) Dispatch(callback func()) {
	if callback == nil {
		return
	}
	e.dispatchMu.Lock()
	e.dispatchQueue = append(e.dispatchQueue, callback)
	e.dispatchMu.Unlock()
}

func (e *Engine) drainDispatchQueue() []func() {
	e.dispatchMu.Lock()
	callbacks := e.dispatchQueue
	e.dispatchQueue = nil
	e.dispatchMu.Unlock()
	return callbacks
}

// HandleResize records a resize signal. Signals arriving before the next
// StepFrame coalesce into a single pass using the latest viewport.
// It is safe to call from any goroutine.
func (e *Engine) HandleResize(vp layout.Viewport) {
	e.resizeMu.Lock()
	e.nextViewport = vp
	e.resizeMu.Unlock()
	e.pendingResize.Store(true)
}

// NeedsFrame reports whether StepFrame has work to do.
func (e *Engine) NeedsFrame() bool {
	if e.pendingResize.Load() {
		return true
	}
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()
	return len(e.dispatchQueue) > 0
}

// StepFrame drains the dispatch queue and then, if a resize was signalled,
// runs one layout pass. Panicking callbacks are reported and skipped.
func (e *Engine) StepFrame() *FrameSnapshot {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	snapshot := &FrameSnapshot{FrameID: e.frameCounter.Add(1)}
	var sample PassSample
	frameStart := time.Now()
	sample.Timestamp = frameStart.UnixMilli()

	callbacks := e.drainDispatchQueue()
	for _, cb := range callbacks {
		runCallback(cb)
	}
	sample.Counts.Callbacks = len(callbacks)
	sample.Phases.DispatchMs = durationToMillis(time.Since(frameStart))

	if e.pendingResize.Swap(false) {
		e.resizeMu.Lock()
		vp := e.nextViewport
		e.resizeMu.Unlock()

		layoutStart := time.Now()
		e.propagator.SetViewport(vp)
		res := e.propagator.Propagate()
		sample.Phases.LayoutMs = durationToMillis(time.Since(layoutStart))

		snapshot.fill(vp, res)
		sample.Flags.LaidOut = true
		sample.Viewport = vp
		sample.Counts.Laid = len(res.Laid)
		sample.Counts.Failed = len(res.Failed)
		sample.Counts.Skipped = res.Skipped
	}
	snapshot.Views = e.registry.Len()
	sample.Counts.Views = snapshot.Views

	frameDuration := time.Since(frameStart)
	sample.FrameMs = durationToMillis(frameDuration)
	e.trace.Add(sample, frameDuration)
	return snapshot
}

// Resize signals a resize and steps one frame.
func (e *Engine) Resize(vp layout.Viewport) *FrameSnapshot {
	e.HandleResize(vp)
	return e.StepFrame()
}

func runCallback(cb func()) {
	defer errors.Recover("engine.Dispatch")
	cb()
}
