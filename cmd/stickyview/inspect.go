package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-drift/stickyview/pkg/engine"
)

func newInspectCmd() *cobra.Command {
	var (
		opts   sessionOptions
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Mount views and print the view tree",
		Long:  `Mounts the declared views and prints each view under its nearest enclosing view.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			tree := s.engine.ViewTree()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tree)
			}
			printTree(cmd.OutOrStdout(), s, tree)
			return nil
		},
	}
	addDocFlags(cmd, &opts)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tree as JSON")
	return cmd
}

func printTree(w io.Writer, s *session, nodes []engine.ViewTreeNode) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s%s (%s) %s\n", strings.Repeat("  ", n.Depth), s.name(n.ID), n.ID, describe(n.Tag, n.Classes))
		printTree(w, s, n.Children)
	}
}
