package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-drift/stickyview/pkg/engine"
	"github.com/go-drift/stickyview/pkg/layout"
)

type serveOptions struct {
	sessionOptions
	addr          string
	width, height int
	interval      time.Duration
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Mount views and serve the debug API",
		Long: `Mounts the declared views and keeps the engine running, stepping a frame
whenever work is pending. The debug API exposes the view tree, recent passes
and Prometheus metrics, and accepts resize signals:

  GET  /health
  GET  /view-tree
  GET  /passes?limit=N&min_ms=F&laid_out=true
  POST /resize?width=W&height=H
  GET  /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	addDocFlags(cmd, &opts.sessionOptions)
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "127.0.0.1:9740", "Address for the debug API")
	cmd.Flags().IntVar(&opts.width, "width", 1024, "Initial viewport width")
	cmd.Flags().IntVar(&opts.height, "height", 768, "Initial viewport height")
	cmd.Flags().DurationVar(&opts.interval, "interval", 16*time.Millisecond, "Frame interval")
	return cmd
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	if opts.interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}
	opts.metrics = true
	s, err := openSession(cmd, opts.sessionOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	srv := engine.NewDebugServer(s.engine, s.metrics)
	addr, err := srv.Start(opts.addr)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "debug server listening on %s\n", addr)
	s.logger.Info("serving", "addr", addr.String(), "views", s.engine.Registry().Len())

	s.engine.HandleResize(layout.Viewport{Width: opts.width, Height: opts.height})

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	// Channel to listen for interrupt or terminate signals.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	ctx := cmd.Context()
	for {
		select {
		case <-ticker.C:
			if !s.engine.NeedsFrame() {
				continue
			}
			snap := s.engine.StepFrame()
			if snap.LaidOut {
				s.logger.Debug("frame", "frame", snap.FrameID, "laid", len(snap.Laid), "failed", len(snap.Failed), "skipped", snap.Skipped)
			}
		case sig := <-shutdown:
			s.logger.Info("shutting down", "signal", sig.String())
			return stopServer(srv, out)
		case <-ctx.Done():
			return stopServer(srv, out)
		}
	}
}

func stopServer(srv *engine.DebugServer, out io.Writer) error {
	if err := srv.Stop(); err != nil {
		return fmt.Errorf("debug server did not stop cleanly: %w", err)
	}
	fmt.Fprintln(out, "debug server stopped")
	return nil
}
