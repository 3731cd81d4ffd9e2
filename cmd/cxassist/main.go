// Package main is the entry point for the cxassist service CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Global flags.
var (
	configPath string
	logLevel   string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cxassist",
		Short: "Conversational customer-support assistant",
		Long: `cxassist runs a customer-support chat service: a tool-calling agent
loop over order lookup, refund processing and knowledge-base search,
with per-session conversational memory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
