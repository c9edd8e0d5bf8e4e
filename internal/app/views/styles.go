package views

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	Primary     = lipgloss.Color("#1E40AF")
	Accent      = lipgloss.Color("#16A34A")
	Muted       = lipgloss.Color("#6B7280")
	Destructive = lipgloss.Color("#DC2626")
	Warning     = lipgloss.Color("#D97706")
	Info        = lipgloss.Color("#2563EB")
)

// Styles holds every style the pages use
type Styles struct {
	Brand   lipgloss.Style
	Nav     lipgloss.Style
	Title   lipgloss.Style
	Heading lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Label   lipgloss.Style
	Link    lipgloss.Style
	Card    lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
}

// NewStyles builds styles for output written to w. Colors are dropped
// when w is not a terminal.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Brand: r.NewStyle().
			Foreground(Primary).
			Bold(true),

		Nav: r.NewStyle().
			Foreground(Muted),

		Title: r.NewStyle().
			Foreground(Primary).
			Bold(true).
			MarginBottom(1),

		Heading: r.NewStyle().
			Bold(true),

		Body: r.NewStyle(),

		Muted: r.NewStyle().
			Foreground(Muted),

		Label: r.NewStyle().
			Foreground(Muted).
			Bold(true),

		Link: r.NewStyle().
			Foreground(Info).
			Underline(true),

		Card: r.NewStyle().
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(Muted),

		Success: r.NewStyle().
			Foreground(Accent).
			Bold(true),

		Error: r.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: r.NewStyle().
			Foreground(Warning),

		Info: r.NewStyle().
			Foreground(Info),
	}
}
