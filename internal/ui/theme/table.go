package theme

import (
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

var (
	headerCell = lipgloss.NewStyle().Bold(true).Foreground(Secondary).Padding(0, 1)
	cell       = lipgloss.NewStyle().Padding(0, 1)
)

// Table renders rows under headers with rounded borders. style, when not
// nil, overrides the style of body cells.
func Table(headers []string, rows [][]string, style func(row, col int) lipgloss.Style) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			if style != nil {
				return style(row, col).Padding(0, 1)
			}
			return cell
		})
	return t.Render()
}
