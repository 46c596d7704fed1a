package main

import "github.com/charmbracelet/lipgloss"

var (
	owedColor    = lipgloss.Color("#4ECDC4")
	owesColor    = lipgloss.Color("#FF6B6B")
	subtleColor  = lipgloss.Color("#666666")
	warningColor = lipgloss.Color("#FFE66D")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(subtleColor)
	owedStyle    = lipgloss.NewStyle().Foreground(owedColor)
	owesStyle    = lipgloss.NewStyle().Foreground(owesColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	nameStyle    = lipgloss.NewStyle().PaddingRight(2)
)
