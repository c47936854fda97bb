// Package report derives chart series from the allocation history.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/paysplit/internal/history"
	"github.com/iwvelando/paysplit/pkg/budget"
	"github.com/iwvelando/paysplit/pkg/constants"
	"github.com/shopspring/decimal"
)

// Point is one labeled value of a series.
type Point struct {
	Label string
	Value decimal.Decimal
}

// Series is an ordered set of points rendered as one chart.
type Series struct {
	Title  string
	Points []Point
}

// Max returns the largest value in the series, or zero when it is empty.
func (s Series) Max() decimal.Decimal {
	peak := decimal.Zero
	for _, p := range s.Points {
		if p.Value.GreaterThan(peak) {
			peak = p.Value
		}
	}
	return peak
}

// RecentIncome returns the net pay of the last n entries, newest first.
// n <= 0 means constants.DefaultRecentRows.
func RecentIncome(entries []history.Entry, n int) Series {
	if n <= 0 {
		n = constants.DefaultRecentRows
	}
	start := len(entries) - n
	if start < 0 {
		start = 0
	}

	s := Series{Title: fmt.Sprintf("Net pay, last %d pay periods", len(entries)-start)}
	for i := len(entries) - 1; i >= start; i-- {
		s.Points = append(s.Points, Point{Label: label(entries[i], i), Value: entries[i].NetPay})
	}
	return s
}

// TotalSaved returns the running savings total after each entry, oldest
// first. The last point is the total saved.
func TotalSaved(entries []history.Entry) Series {
	s := Series{Title: "Total saved"}
	running := decimal.Zero
	for i, e := range entries {
		running = running.Add(e.Savings)
		s.Points = append(s.Points, Point{Label: label(e, i), Value: running})
	}
	return s
}

// CategoryRow is the mean category percents of every entry sharing a deposit
// date.
type CategoryRow struct {
	Date     time.Time
	Entries  int
	Percents map[budget.Category]decimal.Decimal
}

// CompareCategoryAllocations averages each category percent per deposit date,
// ordered by date. Entries without a date are skipped.
func CompareCategoryAllocations(entries []history.Entry) []CategoryRow {
	byDate := make(map[time.Time]*CategoryRow)
	for _, e := range entries {
		if e.Date.IsZero() {
			continue
		}
		row, ok := byDate[e.Date]
		if !ok {
			row = &CategoryRow{Date: e.Date, Percents: make(map[budget.Category]decimal.Decimal)}
			byDate[e.Date] = row
		}
		row.Entries++
		for _, c := range budget.Categories {
			row.Percents[c] = row.Percents[c].Add(e.CategoryPercent(c))
		}
	}

	rows := make([]CategoryRow, 0, len(byDate))
	for _, row := range byDate {
		count := decimal.NewFromInt(int64(row.Entries))
		for c, sum := range row.Percents {
			row.Percents[c] = sum.Div(count).Round(constants.DecimalPlaces)
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows
}

// UsedCategories returns the categories with a non-zero percent in any row,
// in display order.
func UsedCategories(rows []CategoryRow) []budget.Category {
	var used []budget.Category
	for _, c := range budget.Categories {
		for _, row := range rows {
			if !row.Percents[c].IsZero() {
				used = append(used, c)
				break
			}
		}
	}
	return used
}

func label(e history.Entry, i int) string {
	if date := e.DepositDate(); date != "" {
		return date
	}
	return fmt.Sprintf("#%d", i+1)
}
