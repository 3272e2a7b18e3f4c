package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/t2048/internal/core"
)

// colorStyles maps palette slots to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:    lipgloss.NewStyle(),
	core.ColorFrame:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	core.ColorMuted:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	core.ColorAccent:     lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true),
	core.ColorAlert:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	core.ColorTileLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("230")),
	core.ColorTileMid:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorTileHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	core.ColorTileTop:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
	core.ColorNewTile:    lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")),
	core.ColorMergedTile: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")).Bold(true),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}
