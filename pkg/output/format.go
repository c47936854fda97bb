// Package output provides utilities for formatting and displaying allocation
// results and history.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/iwvelando/paysplit/internal/deposit"
	"github.com/iwvelando/paysplit/internal/history"
	"github.com/iwvelando/paysplit/pkg/constants"
	"github.com/iwvelando/paysplit/pkg/datetime"
	"github.com/iwvelando/paysplit/pkg/format"
	"github.com/iwvelando/paysplit/pkg/mathutil"
	"github.com/iwvelando/paysplit/pkg/validation"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders result in the named format.
func Write(w io.Writer, outputFormat string, result deposit.Result) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatCSV:
		return CsvFormat(w, []history.Entry{result.Entry()})
	case constants.OutputFormatJSON:
		return JSONFormat(w, result)
	default:
		PrettyFormat(w, result)
		return nil
	}
}

// WriteHistory renders history entries in the named format.
func WriteHistory(w io.Writer, outputFormat string, entries []history.Entry) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatCSV:
		return CsvFormat(w, entries)
	case constants.OutputFormatJSON:
		return JSONHistoryFormat(w, entries)
	default:
		PrettyHistoryFormat(w, entries)
		return nil
	}
}

// PrettyFormat outputs a human-readable summary of one allocation.
func PrettyFormat(w io.Writer, result deposit.Result) {
	p := message.NewPrinter(language.English)
	rec := result.Record

	title := "--- Allocation"
	if rec.EmployeeFullName != "" {
		title += " for " + rec.EmployeeFullName
	}
	if rec.HasDepositDate() {
		title += " (" + datetime.FormatDepositDate(rec.DirectDepositDate) + ")"
	}
	_, _ = fmt.Fprintf(w, "%s ---\n", title)

	_, _ = fmt.Fprintf(w, "Template    | %s\n", rec.Template)
	if rec.CurrentEarnings.Valid {
		_, _ = fmt.Fprintf(w, "Earnings    | %s\n", money(p, rec.CurrentEarnings.Decimal))
	}
	if rec.CurrentTaxes.Valid {
		_, _ = fmt.Fprintf(w, "Taxes       | %s\n", money(p, rec.CurrentTaxes.Decimal))
	}
	_, _ = fmt.Fprintf(w, "Net Pay     | %s\n", money(p, rec.NetPay))
	_, _ = fmt.Fprintf(w, "Checking    | %s (%s)\n", money(p, result.Split.Checking), fractionPercent(result.Split.CheckingPercent))
	_, _ = fmt.Fprintf(w, "Savings     | %s (%s)\n", money(p, result.Split.Savings), fractionPercent(result.Split.SavingsPercent))
	if unallocated := result.Split.Unallocated(); !unallocated.IsZero() {
		_, _ = fmt.Fprintf(w, "Unallocated | %s\n", money(p, unallocated))
	}

	if len(result.Balances) > 0 {
		_, _ = fmt.Fprintf(w, "\nBalance     | Amount\n")
		_, _ = fmt.Fprintf(w, "_______     | ______\n")
		for _, name := range sortedKeys(result.Balances) {
			_, _ = fmt.Fprintf(w, "%-11s | %s\n", name, money(p, result.Balances[name]))
		}
	}

	if len(result.Categories) > 0 {
		_, _ = fmt.Fprintf(w, "\nCategory       | Percent | Amount\n")
		_, _ = fmt.Fprintf(w, "________       | _______ | ______\n")
		for _, a := range result.Categories {
			_, _ = fmt.Fprintf(w, "%-14s | %7s | %s\n", a.Category, format.Percent(a.Percent), money(p, a.Amount))
		}
	}

	for _, failure := range rec.ParseFailures {
		_, _ = fmt.Fprintf(w, "note: could not parse %s %q\n", failure.Field, failure.Raw)
	}
}

// PrettyHistoryFormat outputs a human-readable table of history entries.
func PrettyHistoryFormat(w io.Writer, entries []history.Entry) {
	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintf(w, "Date       | Net Pay       | Checking      | Savings       | Employee\n")
	_, _ = fmt.Fprintf(w, "____       | _______       | ________      | _______       | ________\n")
	for _, e := range entries {
		date := e.DepositDate()
		if date == "" {
			date = "-"
		}
		_, _ = fmt.Fprintf(w, "%-10s | %-13s | %-13s | %-13s | %s\n",
			date, money(p, e.NetPay), money(p, e.Checking), money(p, e.Savings), e.Employee)
	}
	totals := history.Totals(entries)
	_, _ = fmt.Fprintf(w, "%-10s | %-13s | %-13s | %-13s |\n",
		"Total", "", money(p, totals.Checking()), money(p, totals.Savings()))
}

// CsvFormat outputs entries in comma-separated value format using the
// history log columns.
func CsvFormat(w io.Writer, entries []history.Entry) error {
	columns := history.Columns()
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, e := range entries {
		row := e.Row()
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonCategory struct {
	Category string `json:"category"`
	Percent  string `json:"percent"`
	Amount   string `json:"amount"`
}

type jsonEntry struct {
	Date            string         `json:"date,omitempty"`
	Employee        string         `json:"employee,omitempty"`
	Template        string         `json:"template,omitempty"`
	Earnings        string         `json:"earnings,omitempty"`
	Taxes           string         `json:"taxes,omitempty"`
	NetPay          string         `json:"netPay"`
	CheckingPercent string         `json:"checkingPercent"`
	SavingsPercent  string         `json:"savingsPercent"`
	Checking        string         `json:"checking"`
	Savings         string         `json:"savings"`
	Categories      []jsonCategory `json:"categories,omitempty"`
	RecordedAt      string         `json:"recordedAt,omitempty"`
}

type jsonParseFailure struct {
	Field string `json:"field"`
	Raw   string `json:"raw"`
	Error string `json:"error"`
}

type jsonResult struct {
	jsonEntry
	Unallocated   string             `json:"unallocated"`
	Balances      map[string]string  `json:"balances"`
	ParseFailures []jsonParseFailure `json:"parseFailures,omitempty"`
}

func toJSONEntry(e history.Entry) jsonEntry {
	out := jsonEntry{
		Date:            e.DepositDate(),
		Employee:        e.Employee,
		Template:        e.Template,
		NetPay:          format.Plain(e.NetPay),
		CheckingPercent: e.CheckingPercent.String(),
		SavingsPercent:  e.SavingsPercent.String(),
		Checking:        format.Plain(e.Checking),
		Savings:         format.Plain(e.Savings),
	}
	if e.Earnings.Valid {
		out.Earnings = format.Plain(e.Earnings.Decimal)
	}
	if e.Taxes.Valid {
		out.Taxes = format.Plain(e.Taxes.Decimal)
	}
	for _, a := range e.Categories {
		out.Categories = append(out.Categories, jsonCategory{
			Category: string(a.Category),
			Percent:  a.Percent.String(),
			Amount:   format.Plain(a.Amount),
		})
	}
	if !e.RecordedAt.IsZero() {
		out.RecordedAt = e.RecordedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// JSONFormat outputs one allocation as an indented JSON object.
func JSONFormat(w io.Writer, result deposit.Result) error {
	out := jsonResult{
		jsonEntry:   toJSONEntry(result.Entry()),
		Unallocated: format.Plain(result.Split.Unallocated()),
		Balances:    make(map[string]string, len(result.Balances)),
	}
	for name, v := range result.Balances {
		out.Balances[name] = format.Plain(v)
	}
	for _, f := range result.Record.ParseFailures {
		out.ParseFailures = append(out.ParseFailures, jsonParseFailure{
			Field: string(f.Field),
			Raw:   f.Raw,
			Error: f.Err.Error(),
		})
	}
	return encode(w, out)
}

// JSONHistoryFormat outputs history entries as an indented JSON array.
func JSONHistoryFormat(w io.Writer, entries []history.Entry) error {
	out := make([]jsonEntry, len(entries))
	for i, e := range entries {
		out[i] = toJSONEntry(e)
	}
	return encode(w, out)
}

func encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func money(p *message.Printer, amount decimal.Decimal) string {
	return p.Sprintf("$%.2f", amount.Round(constants.DecimalPlaces).InexactFloat64())
}

func fractionPercent(fraction decimal.Decimal) string {
	return format.Percent(mathutil.FractionToPercent(fraction))
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
