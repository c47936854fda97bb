// Package paystub turns raw extraction results into a typed pay stub record.
package paystub

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/paysplit/pkg/datetime"
	"github.com/iwvelando/paysplit/pkg/extract"
	"github.com/iwvelando/paysplit/pkg/format"
	"github.com/shopspring/decimal"
)

// ErrExtraction is returned when the net pay cannot be obtained from the
// document. It is the same sentinel as extract.ErrExtraction.
var ErrExtraction = extract.ErrExtraction

// ErrNegativeNetPay is returned when the stub reports a net pay below zero.
var ErrNegativeNetPay = errors.New("net pay must not be negative")

// ParseFailure records a field whose captured text could not be converted.
type ParseFailure struct {
	Field extract.FieldName
	Raw   string
	Err   error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("cannot parse %s %q: %v", e.Field, e.Raw, e.Err)
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}

// Record is the normalized view of a single pay stub.
type Record struct {
	Template          string
	DirectDepositDate time.Time
	DepositDateRaw    string
	EmployeeFullName  string
	CurrentEarnings   decimal.NullDecimal
	CurrentTaxes      decimal.NullDecimal
	NetPay            decimal.Decimal
	ParseFailures     []ParseFailure
}

var amountStripper = strings.NewReplacer("$", "", ",", "", " ", "")

// NormalizeAmount strips currency symbols, thousands separators and spaces
// from raw and parses the remainder as a decimal.
func NormalizeAmount(raw string) (decimal.Decimal, error) {
	cleaned := amountStripper.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(cleaned)
}

// New builds a record from an extraction result. Net pay is required; every
// other field is optional and a value that fails to parse is recorded in
// ParseFailures instead of failing the whole record.
func New(res extract.Result) (Record, error) {
	rec := Record{Template: res.Template}

	rawNet, err := res.Require(extract.FieldNetPay)
	if err != nil {
		return Record{}, err
	}
	net, err := NormalizeAmount(rawNet)
	if err != nil {
		return Record{}, &extract.ExtractionError{
			Field:    extract.FieldNetPay,
			Template: res.Template,
			Err:      &ParseFailure{Field: extract.FieldNetPay, Raw: rawNet, Err: err},
		}
	}
	if net.IsNegative() {
		return Record{}, fmt.Errorf("%w, got %s", ErrNegativeNetPay, net)
	}
	rec.NetPay = net

	if raw, ok := res.Get(extract.FieldDirectDepositDate); ok {
		rec.DepositDateRaw = raw
		date, err := datetime.ParseDepositDate(raw)
		if err != nil {
			rec.fail(extract.FieldDirectDepositDate, raw, err)
		} else {
			rec.DirectDepositDate = date
		}
	}

	if raw, ok := res.Get(extract.FieldEmployeeFullName); ok {
		rec.EmployeeFullName = strings.TrimSpace(raw)
	}

	rec.CurrentEarnings = rec.optionalAmount(res, extract.FieldCurrentEarnings)
	rec.CurrentTaxes = rec.optionalAmount(res, extract.FieldCurrentTaxes)

	return rec, nil
}

func (r *Record) optionalAmount(res extract.Result, field extract.FieldName) decimal.NullDecimal {
	raw, ok := res.Get(field)
	if !ok {
		return decimal.NullDecimal{}
	}
	v, err := NormalizeAmount(raw)
	if err != nil {
		r.fail(field, raw, err)
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v)
}

func (r *Record) fail(field extract.FieldName, raw string, err error) {
	r.ParseFailures = append(r.ParseFailures, ParseFailure{Field: field, Raw: raw, Err: err})
}

// HasDepositDate reports whether the deposit date was found and parsed.
func (r Record) HasDepositDate() bool {
	return !r.DirectDepositDate.IsZero()
}

// Fields returns the record keyed by field name with amounts formatted to two
// decimals. Absent values are omitted.
func (r Record) Fields() map[extract.FieldName]string {
	fields := map[extract.FieldName]string{
		extract.FieldNetPay: format.Plain(r.NetPay),
	}
	switch {
	case r.HasDepositDate():
		fields[extract.FieldDirectDepositDate] = datetime.FormatDepositDate(r.DirectDepositDate)
	case r.DepositDateRaw != "":
		fields[extract.FieldDirectDepositDate] = r.DepositDateRaw
	}
	if r.EmployeeFullName != "" {
		fields[extract.FieldEmployeeFullName] = r.EmployeeFullName
	}
	if r.CurrentEarnings.Valid {
		fields[extract.FieldCurrentEarnings] = format.Plain(r.CurrentEarnings.Decimal)
	}
	if r.CurrentTaxes.Valid {
		fields[extract.FieldCurrentTaxes] = format.Plain(r.CurrentTaxes.Decimal)
	}
	return fields
}
