package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/braheezy/goeaxa/pkg/eaxa"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <files...>",
	Short: "Show frame statistics of EA-XA streams",
	Long:  "Validate every frame header of one or more EA-XA streams and summarize them.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var failed []error
		for _, arg := range args {
			info, err := eaxa.ProbeFile(arg)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Render(fmt.Sprintf("%s: %v", arg, err)))
				failed = append(failed, fmt.Errorf("%s: %w", arg, err))
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderInfo(arg, info, infoRate))
		}
		return errors.Join(failed...)
	},
}

var infoRate int

func init() {
	infoCmd.Flags().IntVarP(&infoRate, "rate", "r", 22050, "Sample rate in Hz used to compute the duration")
	rootCmd.AddCommand(infoCmd)
}

func renderInfo(filename string, info eaxa.Info, rate int) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	predictors := make([]string, len(info.Predictors))
	for i, n := range info.Predictors {
		predictors[i] = fmt.Sprintf("%d:%d", i, n)
	}

	shifts := "-"
	if info.Frames > 0 {
		shifts = fmt.Sprintf("%d..%d", info.MinShift, info.MaxShift)
	}

	rows := []string{
		titleStyle.Render(filename),
		"",
		row("frames", fmt.Sprint(info.Frames)),
		row("samples", fmt.Sprint(info.Samples)),
		row("duration", formatDuration(sampleDuration(info.Samples, max(rate, 1)))),
		row("predictors", strings.Join(predictors, " ")),
		row("shift", shifts),
	}
	return infoStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
