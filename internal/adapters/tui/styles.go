package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/tillsync/internal/ui/style"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Iris).
			Foreground(style.White)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(style.Iris)

	okStyle = lipgloss.NewStyle().
		Foreground(style.Green)

	staleStyle = lipgloss.NewStyle().
			Foreground(style.Yellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(style.Red)

	faintStyle = lipgloss.NewStyle().
			Foreground(style.Slate).
			Faint(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(style.Iris).
			Bold(true)
)
