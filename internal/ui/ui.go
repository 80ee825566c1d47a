// Package ui provides styled terminal output helpers for the CLI.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
)

// RenderPass renders s in the success color.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn renders s in the warning color.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderError renders s in the error color.
func RenderError(s string) string { return errorStyle.Render(s) }

// RenderAccent renders s in the accent color.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderMuted renders s dimmed.
func RenderMuted(s string) string { return mutedStyle.Render(s) }
