package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Header renders the jobhunt title bar.
type Header struct {
	width int
}

// NewHeader creates a new Header.
func NewHeader() *Header {
	return &Header{
		width: 60,
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// View renders the header.
func (h *Header) View() string {
	colors := []string{"#FF6B6B", "#FFC857", "#4ECDC4", "#45B7D1", "#96E6A1"}

	var letters []string
	for i, r := range "jobhunt" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i%len(colors)])).Bold(true)
		letters = append(letters, style.Render(string(r)))
	}
	title := lipgloss.JoinHorizontal(lipgloss.Top, letters...)

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Italic(true).
		Render("resume analysis, job search and optimisation")

	return lipgloss.NewStyle().
		Width(h.width).
		Align(lipgloss.Center).
		PaddingBottom(1).
		Render(lipgloss.JoinVertical(lipgloss.Center, title, subtitle))
}
