package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/reportweaver/internal/models"
)

var (
	lightPalette = NewPalette("#5A3FC0", "#047857", "#B91C1C", "#B45309", "#6B7280", "#111827")
	darkPalette  = NewPalette("#A78BFA", "#34D399", "#F87171", "#FBBF24", "#9CA3AF", "#F9FAFB")
)

var _ Painter = (*Palette)(nil)

// Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style
	text  lipgloss.Style
	modal lipgloss.Style
	fg    lipgloss.Color
	link  lipgloss.Color
}

// NewPalette builds a palette from title, success, error, warning, muted and body colors.
func NewPalette(t, s, e, w, h, fg string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		label: NewBold(fg),
		text:  NewStyle(fg),
		modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t)).
			Padding(1, 2).
			Width(60),
		fg:   lipgloss.Color(fg),
		link: lipgloss.Color(t),
	}
}

// PaletteFor returns the palette for a theme.
func PaletteFor(theme models.Theme) *Palette {
	if theme == models.ThemeDark {
		return darkPalette
	}
	return lightPalette
}

// On renders s with background c.
func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(p.fg).Background(c).Render(s)
}

// As renders s with foreground c.
func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
