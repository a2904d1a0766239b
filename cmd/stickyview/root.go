package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stickyview",
		Short: "StickyView mounts views onto HTML documents and lays them out",
		Long: `StickyView attaches views declared in a YAML mount file to an HTML document,
runs resize passes over them and reports which views were laid out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing stickyview.yaml")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides stickyview.yaml")

	rootCmd.AddCommand(newLayoutCmd(), newInspectCmd(), newServeCmd(), newVersionCmd())
	return rootCmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
