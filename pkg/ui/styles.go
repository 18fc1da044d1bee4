package ui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// theme is the set of lipgloss styles for one color mode. The dark/light
// pair implements the persisted dark-mode flag of the original client.
type theme struct {
	sidebarTitle  lipgloss.Style
	categoryTitle lipgloss.Style
	item          lipgloss.Style
	itemCursor    lipgloss.Style
	itemSelected  lipgloss.Style
	itemMeta      lipgloss.Style
	sessionDot    lipgloss.Style
	userLabel     lipgloss.Style
	agentLabel    lipgloss.Style
	systemLabel   lipgloss.Style
	systemText    lipgloss.Style
	streamText    lipgloss.Style
	statusBar     lipgloss.Style
	statusError   lipgloss.Style
	help          lipgloss.Style
	overlayBox    lipgloss.Style
	inputPrompt   lipgloss.Style
}

func darkTheme() theme {
	return theme{
		sidebarTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		categoryTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244")),
		item:          lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		itemCursor:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		itemSelected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		itemMeta:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		sessionDot:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		userLabel:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		agentLabel:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		systemLabel:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("178")),
		systemText:    lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
		streamText:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		statusBar:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		help:          lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		overlayBox:    lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205")).Padding(1, 2),
		inputPrompt:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
	}
}

func lightTheme() theme {
	return theme{
		sidebarTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("161")),
		categoryTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("243")),
		item:          lipgloss.NewStyle().Foreground(lipgloss.Color("235")),
		itemCursor:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("161")),
		itemSelected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("26")),
		itemMeta:      lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		sessionDot:    lipgloss.NewStyle().Foreground(lipgloss.Color("26")),
		userLabel:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("26")),
		agentLabel:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("161")),
		systemLabel:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("130")),
		systemText:    lipgloss.NewStyle().Foreground(lipgloss.Color("130")),
		streamText:    lipgloss.NewStyle().Foreground(lipgloss.Color("235")),
		statusBar:     lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		statusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
		help:          lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		overlayBox:    lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("161")).Padding(1, 2),
		inputPrompt:   lipgloss.NewStyle().Foreground(lipgloss.Color("161")),
	}
}

// newMarkdownRenderer builds the glamour renderer for final agent messages,
// matching the active color mode and the chat pane width.
func newMarkdownRenderer(darkMode bool, width int) (*glamour.TermRenderer, error) {
	style := "light"
	if darkMode {
		style = "dark"
	}
	if width <= 0 {
		width = 80
	}
	return glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
}
