// Package main provides the entry point for the paracord CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/paracord/cmd/paracord/commands"
	"github.com/Sumatoshi-tech/paracord/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "paracord",
		Short: "Paracord - concurrent string interner",
		Long: `Paracord deduplicates strings and hands out small, stable keys.

Commands:
  intern    Intern newline-separated values and print their keys
  stats     Print interner statistics for a set of inputs
  serve     Serve an interner over HTTP`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}
		},
	}

	rootCmd.PersistentFlags().StringP(commands.FlagConfig, "c", "", "config file (default .paracord.yaml in . or $HOME)")
	rootCmd.PersistentFlags().BoolP(commands.FlagVerbose, "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(commands.NewInternCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
