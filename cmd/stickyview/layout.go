package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/go-drift/stickyview/pkg/engine"
	"github.com/go-drift/stickyview/pkg/layout"
)

type layoutOptions struct {
	sessionOptions
	width, height int
	out           string
	json          bool
}

func newLayoutCmd() *cobra.Command {
	var opts layoutOptions
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Mount views and run one resize pass",
		Long: `Parses the document, mounts the views declared in the mount file, runs a
single resize pass and prints the views that were laid out. Only the outermost
view of each chain is laid out by the pass; nested views are laid out by
their parents. Exits non-zero when a layout hook failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(cmd, opts)
		},
	}
	addDocFlags(cmd, &opts.sessionOptions)
	cmd.Flags().IntVar(&opts.width, "width", 1024, "Viewport width")
	cmd.Flags().IntVar(&opts.height, "height", 768, "Viewport height")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the laid-out document to this file")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print layout metrics after the pass")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the frame as JSON")
	return cmd
}

func runLayout(cmd *cobra.Command, opts layoutOptions) error {
	if opts.width < 0 || opts.height < 0 {
		return fmt.Errorf("viewport must not be negative, got %dx%d", opts.width, opts.height)
	}
	s, err := openSession(cmd, opts.sessionOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	snap := s.engine.Resize(layout.Viewport{Width: opts.width, Height: opts.height})
	w := cmd.OutOrStdout()

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(namedFrame{FrameSnapshot: snap, Names: s.names(snap)}); err != nil {
			return err
		}
	} else {
		printFrame(w, s, snap)
	}

	if s.metrics != nil && opts.metrics {
		families, err := s.metrics.Gather()
		if err != nil {
			return fmt.Errorf("failed to gather metrics: %w", err)
		}
		fmt.Fprintln(w)
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
				return err
			}
		}
	}

	if opts.out != "" {
		if err := writeDocument(s, opts.out); err != nil {
			return err
		}
	}

	if n := len(snap.Failed); n > 0 {
		return fmt.Errorf("%d view(s) failed layout", n)
	}
	return nil
}

// namedFrame adds declared names to a frame snapshot, keyed by view id.
type namedFrame struct {
	*engine.FrameSnapshot
	Names map[string]string `json:"names,omitempty"`
}

func (s *session) names(snap *engine.FrameSnapshot) map[string]string {
	names := make(map[string]string)
	for _, v := range snap.Laid {
		names[v.ID] = s.name(v.ID)
	}
	for _, f := range snap.Failed {
		names[f.View] = s.name(f.View)
	}
	return names
}

func printFrame(w io.Writer, s *session, snap *engine.FrameSnapshot) {
	fmt.Fprintf(w, "laid out %d view(s) at %dx%d\n", len(snap.Laid), snap.Viewport.Width, snap.Viewport.Height)
	for _, v := range snap.Laid {
		fmt.Fprintf(w, "  %-16s %-8s %s\n", s.name(v.ID), v.ID, describe(v.Tag, v.Classes))
	}
	if len(snap.Failed) > 0 {
		fmt.Fprintf(w, "failed %d:\n", len(snap.Failed))
		for _, f := range snap.Failed {
			fmt.Fprintf(w, "  %-16s %-8s %s: %s\n", s.name(f.View), f.View, f.Hook, f.Error)
		}
	}
	if snap.Skipped > 0 {
		fmt.Fprintf(w, "skipped %d\n", snap.Skipped)
	}
}

// describe renders a node as tag.class1.class2.
func describe(tag string, classes []string) string {
	var b strings.Builder
	b.WriteString(tag)
	for _, c := range classes {
		b.WriteString("." + c)
	}
	return b.String()
}

func writeDocument(s *session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := s.engine.Document().Render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write document: %w", err)
	}
	return f.Close()
}
