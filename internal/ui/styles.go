package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#2E7D32")
	colorMuted   = lipgloss.Color("#8A8A8A")
	colorDanger  = lipgloss.Color("#C62828")
	colorWarn    = lipgloss.Color("#F9A825")
	colorText    = lipgloss.Color("#EDEDED")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Background(colorPrimary).
			Padding(0, 1)

	avatarStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Background(colorPrimary).
			Padding(0, 1)

	rowStyle         = lipgloss.NewStyle().PaddingLeft(1)
	selectedRowStyle = lipgloss.NewStyle().PaddingLeft(1).Foreground(colorPrimary).Bold(true)
	mutedStyle       = lipgloss.NewStyle().Foreground(colorMuted)
	badgeStyle       = lipgloss.NewStyle().Foreground(colorText).Background(colorDanger).Padding(0, 1)

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(colorWarn).
			Padding(0, 1)

	errorBannerStyle = bannerStyle.
				Foreground(colorText).
				Background(colorDanger)

	mineBubbleStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorPrimary).
			Padding(0, 1)

	theirBubbleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#000000")).
				Background(lipgloss.Color("#E0E0E0")).
				Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDanger).
			Padding(1, 2)

	helpStyle = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
)
