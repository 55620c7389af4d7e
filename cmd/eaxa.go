package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "eaxa",
	Short: "A simple EA-XA ADPCM utility.",
	Long:  "A CLI tool to decode and play EA-XA ADPCM audio streams.",
	Run: func(cmd *cobra.Command, args []string) {
		// Display help when no subcommand is provided
		fmt.Fprintln(cmd.OutOrStdout(), "Usage: eaxa [command]")
		fmt.Fprintln(cmd.OutOrStdout(), "Use 'eaxa help' for a list of commands.")
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger(cmd)
	},
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

var quiet bool
var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress command output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Increase command output")
}

func Execute() error {
	return rootCmd.Execute()
}
