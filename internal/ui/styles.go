// Package ui holds the CLI's output styling: a small palette, status
// symbols, and glamour-rendered markdown for embedded docs.
package ui

import "github.com/charmbracelet/lipgloss"

// Palette: default text, one accent for paths and highlights, muted gray
// for secondary info. Success/error state is conveyed with symbols, not
// color floods.

var (
	// Accent styles file paths and highlights.
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))

	// Muted styles secondary info and line numbers.
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold is plain emphasis.
	Bold = lipgloss.NewStyle().Bold(true)

	// ErrorLabel and WarnLabel style severity tags in audit reports.
	ErrorLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Bold(true)
	WarnLabel  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")).Bold(true)
)

// SetAccent overrides the accent color, e.g. from config.
func SetAccent(color string) {
	if color == "" {
		return
	}
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
