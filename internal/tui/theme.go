package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, the subset the reader uses.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorBase     lipgloss.Color = "#1e1e2e"
	colorMantle   lipgloss.Color = "#181825"
	colorCrust    lipgloss.Color = "#11111b"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
)

var (
	tabActiveStyle   = lipgloss.NewStyle().Foreground(colorBase).Background(colorAccent).Bold(true).Padding(0, 1)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(colorSubtext0).Background(colorSurface0).Padding(0, 1)
	tabBarStyle      = lipgloss.NewStyle().Background(colorMantle)

	statusStyle     = lipgloss.NewStyle().Foreground(colorText).Background(colorSurface0)
	statusPageStyle = lipgloss.NewStyle().Foreground(colorBase).Background(colorFocus).Padding(0, 1)
	statusZoomStyle = lipgloss.NewStyle().Foreground(colorText).Background(colorSurface1).Padding(0, 1)
	warnStyle       = lipgloss.NewStyle().Foreground(colorWarning).Background(colorSurface0).Padding(0, 1)
	errStyle        = lipgloss.NewStyle().Foreground(colorError).Background(colorSurface0).Padding(0, 1)
	infoStyle       = lipgloss.NewStyle().Foreground(colorSuccess).Background(colorSurface0).Padding(0, 1)

	sliderFillStyle  = lipgloss.NewStyle().Foreground(colorAccent).Background(colorSurface1)
	sliderTrackStyle = lipgloss.NewStyle().Foreground(colorOverlay0).Background(colorSurface1)

	emptyStyle        = lipgloss.NewStyle().Foreground(colorOverlay0)
	pickerTitleStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	pickerCursorStyle = lipgloss.NewStyle().Foreground(colorBase).Background(colorFocus)
	pickerItemStyle   = lipgloss.NewStyle().Foreground(colorText)
	pickerBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSurface1).Padding(0, 1)
)
