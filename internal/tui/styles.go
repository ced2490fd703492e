package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all lipgloss styles for the chat screen.
type Styles struct {
	Header    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Sources   lipgloss.Style
	Status    lipgloss.Style
	Help      lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Sources:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}
