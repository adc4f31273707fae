package report

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mwiater/modebench/internal/metrics"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	improvedStyle  = cellStyle.Foreground(lipgloss.Color("42"))
	regressedStyle = cellStyle.Foreground(lipgloss.Color("214"))
	naStyle        = cellStyle.Foreground(lipgloss.Color("244"))
	borderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderTable renders the comparison rows for the terminal. Improved rows
// are green, regressions amber and rows without a change grey.
func RenderTable(rows []metrics.ComparisonRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Metric", "Full", "Lite", "Change").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(rows) || col == 0 {
				return cellStyle
			}
			switch improved := rows[row].Improved; {
			case improved == nil:
				return naStyle
			case *improved:
				return improvedStyle
			default:
				return regressedStyle
			}
		})

	for _, r := range rows {
		t.Row(r.Name, r.Full, r.Lite, r.Improvement)
	}

	return titleStyle.Render("Performance Comparison: Full Mode vs Lite Mode") + "\n" + t.Render()
}
