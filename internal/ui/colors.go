package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/receipts/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		label: NewBold(h),
	}
}

// Status renders a warranty status label in its color.
func (p *Palette) Status(s models.WarrantyStatus) string {
	switch s {
	case models.StatusValid:
		return p.ok.Render(s.Label())
	case models.StatusExpiringSoon:
		return p.warn.Render(s.Label())
	case models.StatusExpired:
		return p.err.Render(s.Label())
	default:
		return p.help.Render(s.Label())
	}
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
