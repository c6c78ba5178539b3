// Package main provides the entry point for the bibsift CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bibsift/bibsift/cmd/bibsift/commands"
	"github.com/bibsift/bibsift/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bibsift",
		Short: "bibsift - single-pass MARC record sifter",
		Long: `bibsift partitions one pass over a MARC record stream into multiple
named output data sets, each with its own filters, format, and limit.

Commands:
  run       Sift input files into the configured output sets
  validate  Check the configuration without running anything
  config    Write or inspect configuration files
  version   Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands.
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bibsift %s (%s)\n", version.Version, version.GitHash)
		},
	}
}
