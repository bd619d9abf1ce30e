package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FieldGrid renders label/value pairs side by side, wrapping to more rows
// when the width is too small for every column.
type FieldGrid struct {
	Labels []string
	Values []string
}

// NewFieldGrid creates an empty grid.
func NewFieldGrid() *FieldGrid {
	return &FieldGrid{}
}

// Add appends a field. Empty values are kept so the layout stays stable.
func (g *FieldGrid) Add(label, value string) *FieldGrid {
	g.Labels = append(g.Labels, label)
	g.Values = append(g.Values, value)
	return g
}

// View renders the grid within width.
func (g *FieldGrid) View(styles Styles, width int) string {
	if len(g.Labels) == 0 {
		return ""
	}

	colWidth := 0
	for i := range g.Labels {
		colWidth = max(colWidth, lipgloss.Width(g.Labels[i]), lipgloss.Width(g.Values[i]))
	}
	colWidth += 2

	perRow := max(width/colWidth, 1)
	perRow = min(perRow, len(g.Labels))
	if perRow > 0 {
		colWidth = max(width/perRow, colWidth)
	}

	var rows []string
	for start := 0; start < len(g.Labels); start += perRow {
		end := min(start+perRow, len(g.Labels))
		var cols []string
		for i := start; i < end; i++ {
			cell := lipgloss.JoinVertical(lipgloss.Left,
				styles.Label.Render(g.Labels[i]),
				styles.Bold.Render(g.Values[i]),
			)
			cols = append(cols, lipgloss.NewStyle().Width(colWidth).Render(cell))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	}
	return strings.Join(rows, "\n")
}
