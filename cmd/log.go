package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var logger *log.Logger

func setupLogger(cmd *cobra.Command) {
	// Stdout may carry PCM, so log lines go to stderr.
	logger = log.New(cmd.ErrOrStderr())
	logger.SetReportTimestamp(false)

	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else if quiet {
		logger.SetLevel(log.ErrorLevel)
	}
}
