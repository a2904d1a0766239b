package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/go-drift/stickyview/cmd/stickyview/internal/config"
	"github.com/go-drift/stickyview/cmd/stickyview/internal/mount"
	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/engine"
	"github.com/go-drift/stickyview/pkg/errors"
	"github.com/go-drift/stickyview/pkg/layout"
	"github.com/go-drift/stickyview/pkg/logging"
)

const metricsNamespace = "stickyview"

// session is a parsed document with its declared views mounted.
type session struct {
	cfg     *config.Resolved
	logger  *slog.Logger
	engine  *engine.Engine
	mounter *mount.Mounter
	views   []*mount.View
	// metrics is nil unless metrics are enabled.
	metrics *prometheus.Registry
}

type sessionOptions struct {
	docPath   string
	mountPath string
	metrics   bool
}

// openSession resolves configuration from the persistent flags, installs the
// error handler, parses the document and mounts the declared views.
func openSession(cmd *cobra.Command, opts sessionOptions) (*session, error) {
	dir, _ := cmd.Flags().GetString("dir")
	levelFlag, _ := cmd.Flags().GetString("log-level")

	cfg, err := config.Resolve(dir)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if levelFlag != "" {
		if level, err = logging.ParseLevel(levelFlag); err != nil {
			return nil, err
		}
	}
	logger := logging.NewWriter(cmd.ErrOrStderr(), level).With("app", cfg.AppName)
	errors.SetHandler(&errors.LogHandler{Logger: logger, Verbose: cfg.Verbose})

	if opts.docPath == "" {
		return nil, fmt.Errorf("--doc is required")
	}
	f, err := os.Open(opts.docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()
	doc, err := dom.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	s := &session{cfg: cfg, logger: logger}
	ecfg := engine.Config{MarkerClass: cfg.MarkerClass, Logger: logger}
	if opts.metrics || cfg.Metrics {
		s.metrics = prometheus.NewRegistry()
		ecfg.Metrics = layout.NewMetrics(s.metrics, metricsNamespace)
	}
	s.engine = engine.New(doc, ecfg)
	s.mounter = mount.NewMounter(s.engine.Controller(), s.engine.Propagator().Viewport)

	if opts.mountPath != "" {
		file, err := mount.Load(opts.mountPath)
		if err != nil {
			s.Close()
			return nil, err
		}
		if s.views, err = s.mounter.Mount(file); err != nil {
			s.Close()
			return nil, err
		}
	}
	logger.Debug("session opened", "doc", opts.docPath, "mount", opts.mountPath, "views", s.engine.Registry().Len())
	return s, nil
}

// name returns the declared name of the view with the given id, or "-".
func (s *session) name(id string) string {
	if v := s.mounter.ByID(id); v != nil {
		return v.Name()
	}
	return "-"
}

func (s *session) Close() {
	s.engine.Close()
}

// addDocFlags registers the flags shared by commands that open a session.
func addDocFlags(cmd *cobra.Command, opts *sessionOptions) {
	cmd.Flags().StringVar(&opts.docPath, "doc", "", "HTML document to mount views onto")
	cmd.Flags().StringVar(&opts.mountPath, "mount", "", "YAML file declaring the views to mount")
}
