package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	cellStyle = lipgloss.NewStyle().
			Width(5).
			Align(lipgloss.Center).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262"))

	cursorCellStyle = cellStyle.
			BorderForeground(lipgloss.Color("#04B575"))

	winCellStyle = cellStyle.
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#FF6B6B"))

	xStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")).Bold(true)
	oStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true)

	pegStyle = lipgloss.NewStyle().
			Width(16).
			Align(lipgloss.Center).
			Border(lipgloss.NormalBorder(), false, false, true, false)

	selectedPegStyle = pegStyle.
				BorderForeground(lipgloss.Color("#04B575"))

	discStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
)
