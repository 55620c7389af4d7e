package cmd

import "github.com/charmbracelet/lipgloss"

const (
	padding  = 4
	maxWidth = 60
	eaRed    = "#a4262c"
	eaOrange = "#f28c38"

	greenLight = "#56949f"
	greenDark  = "#9ccfd8"
)

var (
	accent = lipgloss.AdaptiveColor{Dark: greenDark, Light: greenLight}
	main   = lipgloss.AdaptiveColor{Dark: eaOrange, Light: eaRed}

	infoStyle = lipgloss.NewStyle().
			Padding(0, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent)
	titleStyle = lipgloss.NewStyle().
			Foreground(main).
			Bold(true)
	labelStyle = lipgloss.NewStyle().
			Foreground(accent).
			Width(12)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(eaRed))
)
