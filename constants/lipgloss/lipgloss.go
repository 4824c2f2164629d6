package lipgloss

import (
	lipgloss_color "github.com/charmbracelet/lipgloss"
)

var (
	Red     = lipgloss_color.NewStyle().Foreground(lipgloss_color.Color("#FF5F5F"))
	Green   = lipgloss_color.NewStyle().Foreground(lipgloss_color.Color("#5FD787"))
	Yellow  = lipgloss_color.NewStyle().Foreground(lipgloss_color.Color("#FFD75F"))
	BlueSky = lipgloss_color.NewStyle().Foreground(lipgloss_color.Color("#5FAFFF")).Bold(true)
	Info    = lipgloss_color.NewStyle().Foreground(lipgloss_color.Color("#87AFFF")).Bold(true)
	Gray    = lipgloss_color.NewStyle().Foreground(lipgloss_color.Color("#8A8A8A"))

	// BoxStyle frames help text, token summaries and project banners.
	BoxStyle = lipgloss_color.NewStyle().
			Border(lipgloss_color.RoundedBorder()).
			BorderForeground(lipgloss_color.Color("#5FAFFF")).
			Padding(0, 1)
)
