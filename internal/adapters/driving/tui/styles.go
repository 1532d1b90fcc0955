package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the chat view.
type Styles struct {
	Title      lipgloss.Style
	Question   lipgloss.Style
	Answer     lipgloss.Style
	Source     lipgloss.Style
	Status     lipgloss.Style
	Error      lipgloss.Style
	InputBox   lipgloss.Style
	Transcript lipgloss.Style
}

// DefaultStyles returns the default chat styling.
func DefaultStyles() *Styles {
	return &Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Question:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Answer:     lipgloss.NewStyle(),
		Source:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Status:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		InputBox:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		Transcript: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}
