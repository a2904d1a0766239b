package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-drift/stickyview/pkg/layout"
)

// DebugServer serves the engine's view tree, pass trace and metrics over
// HTTP.
type DebugServer struct {
	engine   *Engine
	gatherer prometheus.Gatherer
	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
}

// NewDebugServer creates a debug server for e. A nil gatherer disables the
// /metrics endpoint.
func NewDebugServer(e *Engine, gatherer prometheus.Gatherer) *DebugServer {
	return &DebugServer{engine: e, gatherer: gatherer}
}

// Handler returns the server's routes:
//
//	GET  /health     liveness
//	GET  /view-tree  attached views as JSON
//	GET  /passes     recent frame samples (?limit=N, ?min_ms=F, ?laid_out=true)
//	POST /resize     signal a resize (?width=W&height=H)
//	GET  /metrics    Prometheus exposition, when a gatherer is set
func (s *DebugServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/view-tree", s.handleViewTree)
	mux.HandleFunc("/passes", s.handlePasses)
	mux.HandleFunc("/resize", s.handleResize)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start listens on addr and serves in the background. It returns the bound
// address, which is useful with port 0. Starting a running server returns its
// current address.
func (s *DebugServer) Start(addr string) (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr(), nil
	}

	// Bind first to fail fast on port conflicts
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("debug server listen: %w", err)
	}

	server := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.mu.Lock()
			s.server = nil
			s.listener = nil
			s.mu.Unlock()
			s.engine.logger.Error("debug server failed", "err", err)
		}
	}()

	return listener.Addr(), nil
}

// Stop gracefully shuts the server down.
func (s *DebugServer) Stop() error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func (s *DebugServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleViewTree returns the view tree as JSON.
//
// The frame lock is held while the tree is serialized so no pass or
// dispatched callback mutates the document meanwhile.
func (s *DebugServer) handleViewTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			http.Error(w, fmt.Sprintf("panic: %v", rec), http.StatusInternalServerError)
		}
	}()

	s.engine.frameMu.Lock()
	tree := s.engine.ViewTree()
	s.engine.frameMu.Unlock()

	writeJSON(w, struct {
		Views []ViewTreeNode `json:"views"`
	}{tree})
}

// handlePasses returns recent frame samples as JSON.
func (s *DebugServer) handlePasses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := s.engine.trace.Snapshot()
	applyPassFilters(r, &resp)
	writeJSON(w, resp)
}

func (s *DebugServer) handleResize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	width, errW := strconv.Atoi(r.URL.Query().Get("width"))
	height, errH := strconv.Atoi(r.URL.Query().Get("height"))
	if errW != nil || errH != nil || width < 0 || height < 0 {
		http.Error(w, "width and height must be non-negative integers", http.StatusBadRequest)
		return
	}

	s.engine.HandleResize(layout.Viewport{Width: width, Height: height})
	w.WriteHeader(http.StatusAccepted)
}

func applyPassFilters(r *http.Request, resp *PassTimeline) {
	limit := 0
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var filters []func(PassSample) bool

	if v := parseFloatQuery(r, "min_ms"); v > 0 {
		filters = append(filters, func(s PassSample) bool { return s.FrameMs >= v })
	}
	if v := parseFloatQuery(r, "layout_ms"); v > 0 {
		filters = append(filters, func(s PassSample) bool { return s.Phases.LayoutMs >= v })
	}
	if value := r.URL.Query().Get("laid_out"); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil && parsed {
			filters = append(filters, func(s PassSample) bool { return s.Flags.LaidOut })
		}
	}

	if len(filters) > 0 {
		filtered := make([]PassSample, 0, len(resp.Samples))
	outer:
		for _, sample := range resp.Samples {
			for _, f := range filters {
				if !f(sample) {
					continue outer
				}
			}
			filtered = append(filtered, sample)
		}
		resp.Samples = filtered
	}

	if limit > 0 && len(resp.Samples) > limit {
		resp.Samples = resp.Samples[len(resp.Samples)-limit:]
	}
}

func parseFloatQuery(r *http.Request, key string) float64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return 0
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, v any) {
	// Encode to buffer first so we can catch errors
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
