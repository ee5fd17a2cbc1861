package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorDim    = lipgloss.Color("#6C7086")
	colorAccent = lipgloss.Color("#89B4FA")
	colorGreen  = lipgloss.Color("#A6E3A1")
	colorRed    = lipgloss.Color("#F38BA8")
	colorYellow = lipgloss.Color("#F9E2AF")

	styleCrumbs      = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleDim         = lipgloss.NewStyle().Foreground(colorDim)
	styleCurrent     = lipgloss.NewStyle().Reverse(true)
	styleSelected    = lipgloss.NewStyle().Foreground(colorAccent)
	styleComplete    = lipgloss.NewStyle().Foreground(colorGreen).Strikethrough(true)
	styleCancelled   = lipgloss.NewStyle().Foreground(colorDim).Strikethrough(true)
	stylePriority    = lipgloss.NewStyle().Foreground(colorYellow)
	styleError       = lipgloss.NewStyle().Foreground(colorRed)
	styleStatus      = lipgloss.NewStyle().Foreground(colorGreen)
	styleEditing     = lipgloss.NewStyle().Underline(true)
	stylePlaceholder = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
)
