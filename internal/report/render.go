package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iwvelando/paysplit/pkg/budget"
	"github.com/iwvelando/paysplit/pkg/constants"
	"github.com/iwvelando/paysplit/pkg/datetime"
	"github.com/iwvelando/paysplit/pkg/format"
	"github.com/shopspring/decimal"
)

var (
	colorText   = lipgloss.Color("#FFFCF0")
	colorDim    = lipgloss.Color("#575653")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorBlue   = lipgloss.Color("#4385BE")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle  = lipgloss.NewStyle().Foreground(colorText)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	valueStyle  = lipgloss.NewStyle().Foreground(colorText)
)

// IncomeChart writes the recent net pay bar chart.
func IncomeChart(w io.Writer, s Series, width int) error {
	return barChart(w, s, width, colorBlue)
}

// SavingsChart writes the cumulative savings bar chart.
func SavingsChart(w io.Writer, s Series, width int) error {
	return barChart(w, s, width, colorGreen)
}

func barChart(w io.Writer, s Series, width int, color lipgloss.Color) error {
	if width <= 0 {
		width = constants.DefaultChartWidth
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(s.Title))
	b.WriteString("\n")
	if len(s.Points) == 0 {
		b.WriteString(dimStyle.Render("no allocations recorded"))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	labelW := 0
	for _, p := range s.Points {
		if len(p.Label) > labelW {
			labelW = len(p.Label)
		}
	}

	peak := s.Max()
	barStyle := lipgloss.NewStyle().Foreground(color)
	for _, p := range s.Points {
		filled := barLength(p.Value, peak, width)
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelW, p.Label)))
		b.WriteString(dimStyle.Render(" │"))
		b.WriteString(barStyle.Render(strings.Repeat("█", filled)))
		b.WriteString(dimStyle.Render(strings.Repeat("░", width-filled)))
		b.WriteString(" ")
		b.WriteString(valueStyle.Render(format.Currency(p.Value)))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// barLength scales value against peak; negative values draw nothing.
func barLength(value, peak decimal.Decimal, width int) int {
	if !peak.IsPositive() || !value.IsPositive() {
		return 0
	}
	n := int(value.Div(peak).Mul(decimal.NewFromInt(int64(width))).Round(0).IntPart())
	if n > width {
		n = width
	}
	return n
}

// CategoryTable writes the per-date category comparison as a bordered table
// followed by one trend line per category.
func CategoryTable(w io.Writer, rows []CategoryRow) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Category allocation by deposit date"))
	b.WriteString("\n")

	categories := UsedCategories(rows)
	if len(rows) == 0 || len(categories) == 0 {
		b.WriteString(dimStyle.Render("no category allocations recorded"))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	headers := []string{"Date"}
	for _, c := range categories {
		headers = append(headers, string(c))
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = []string{datetime.FormatDepositDate(row.Date)}
		for _, c := range categories {
			cells[i] = append(cells[i], format.Percent(row.Percents[c]))
		}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range cells {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	border := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, cw := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", cw+2)))
			if i < len(widths)-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}

	border("╭", "┬", "╮")
	b.WriteString(dimStyle.Render("│"))
	for i, h := range headers {
		b.WriteString(headerStyle.Render(fmt.Sprintf(" %-*s ", widths[i], h)))
		b.WriteString(dimStyle.Render("│"))
	}
	b.WriteString("\n")
	border("├", "┼", "┤")
	for _, row := range cells {
		b.WriteString(dimStyle.Render("│"))
		for i, cell := range row {
			var padded string
			if i == 0 {
				padded = fmt.Sprintf(" %-*s ", widths[i], cell)
			} else {
				padded = fmt.Sprintf(" %*s ", widths[i], cell)
			}
			b.WriteString(valueStyle.Render(padded))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
	}
	border("╰", "┴", "╯")

	b.WriteString("\n")
	for _, c := range categories {
		b.WriteString(categoryTrend(c, rows))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// categoryTrend renders one sparkline of a category's percent across dates.
func categoryTrend(c budget.Category, rows []CategoryRow) string {
	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	peak := decimal.Zero
	for _, row := range rows {
		if row.Percents[c].GreaterThan(peak) {
			peak = row.Percents[c]
		}
	}

	var spark strings.Builder
	for _, row := range rows {
		idx := barLength(row.Percents[c], peak, len(blocks)-1)
		spark.WriteRune(blocks[idx])
	}
	return labelStyle.Render(fmt.Sprintf("%-14s ", c)) +
		lipgloss.NewStyle().Foreground(colorAccent).Render(spark.String())
}
