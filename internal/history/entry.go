// Package history persists one row per allocation event and reads them back
// for reporting.
package history

import (
	"time"

	"github.com/iwvelando/paysplit/pkg/allocation"
	"github.com/iwvelando/paysplit/pkg/budget"
	"github.com/iwvelando/paysplit/pkg/datetime"
	"github.com/iwvelando/paysplit/pkg/format"
	"github.com/iwvelando/paysplit/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Column names of the tabular log.
const (
	ColumnDate               = "Date"
	ColumnEmployee           = "Employee"
	ColumnTemplate           = "Template"
	ColumnEarnings           = "Earnings"
	ColumnTaxes              = "Taxes"
	ColumnNetPay             = "Net Pay"
	ColumnCheckingPercent    = "Checking Percent"
	ColumnSavingsPercent     = "Savings Percent"
	ColumnCheckingAllocation = "Checking Allocation"
	ColumnSavingsAllocation  = "Savings Allocation"
	ColumnRecordedAt         = "Recorded At"
)

// Columns returns the log header: the fixed columns followed by one percent
// column per budget category.
func Columns() []string {
	cols := []string{
		ColumnDate,
		ColumnEmployee,
		ColumnTemplate,
		ColumnEarnings,
		ColumnTaxes,
		ColumnNetPay,
		ColumnCheckingPercent,
		ColumnSavingsPercent,
		ColumnCheckingAllocation,
		ColumnSavingsAllocation,
	}
	cols = append(cols, budget.Names()...)
	return append(cols, ColumnRecordedAt)
}

// Entry is one allocation event.
type Entry struct {
	Date            time.Time
	// DateRaw holds the deposit date as printed when it could not be parsed.
	DateRaw         string
	Employee        string
	Template        string
	Earnings        decimal.NullDecimal
	Taxes           decimal.NullDecimal
	NetPay          decimal.Decimal
	CheckingPercent decimal.Decimal
	SavingsPercent  decimal.Decimal
	Checking        decimal.Decimal
	Savings         decimal.Decimal
	Categories      []budget.Allocation
	RecordedAt      time.Time
}

// DepositDate renders the deposit date, falling back to the raw text when the
// date did not parse.
func (e Entry) DepositDate() string {
	if !e.Date.IsZero() {
		return datetime.FormatDepositDate(e.Date)
	}
	return e.DateRaw
}

// CategoryPercent returns the percent recorded for c, zero when unassigned.
func (e Entry) CategoryPercent(c budget.Category) decimal.Decimal {
	for _, a := range e.Categories {
		if a.Category == c {
			return a.Percent
		}
	}
	return decimal.Zero
}

// Row renders the entry keyed by column name. Percents are written on the
// 0-100 scale and absent values are empty strings.
func (e Entry) Row() map[string]string {
	row := map[string]string{
		ColumnDate:               e.DepositDate(),
		ColumnEmployee:           e.Employee,
		ColumnTemplate:           e.Template,
		ColumnEarnings:           nullString(e.Earnings),
		ColumnTaxes:              nullString(e.Taxes),
		ColumnNetPay:             format.Plain(e.NetPay),
		ColumnCheckingPercent:    mathutil.FractionToPercent(e.CheckingPercent).String(),
		ColumnSavingsPercent:     mathutil.FractionToPercent(e.SavingsPercent).String(),
		ColumnCheckingAllocation: format.Plain(e.Checking),
		ColumnSavingsAllocation:  format.Plain(e.Savings),
		ColumnRecordedAt:         "",
	}
	if !e.RecordedAt.IsZero() {
		row[ColumnRecordedAt] = e.RecordedAt.UTC().Format(time.RFC3339)
	}
	for _, c := range budget.Categories {
		row[string(c)] = e.CategoryPercent(c).String()
	}
	return row
}

func nullString(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return format.Plain(v.Decimal)
}

// Totals sums the checking and savings allocations of every entry.
func Totals(entries []Entry) allocation.Balances {
	checking := decimal.Zero
	savings := decimal.Zero
	for _, e := range entries {
		checking = checking.Add(e.Checking)
		savings = savings.Add(e.Savings)
	}
	return allocation.Split{Checking: checking, Savings: savings}.Balances()
}

// parseDate reads a stored deposit date. Text that is not a date is kept raw.
func parseDate(raw string) (time.Time, string) {
	date, err := datetime.ParseDepositDate(raw)
	if err != nil {
		return time.Time{}, raw
	}
	return date, ""
}
