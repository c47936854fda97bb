package paystub

import (
	"errors"
	"testing"
	"time"

	"github.com/iwvelando/paysplit/pkg/extract"
	"github.com/shopspring/decimal"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		expected  string
		expectErr bool
	}{
		{name: "Plain", raw: "1234.56", expected: "1234.56"},
		{name: "Thousands separator", raw: "1,234.56", expected: "1234.56"},
		{name: "Dollar sign and spaces", raw: " $ 12,345.00 ", expected: "12345"},
		{name: "Millions", raw: "1,000,000.01", expected: "1000000.01"},
		{name: "Empty", raw: "   ", expectErr: true},
		{name: "Garbage", raw: "N/A", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAmount(tt.raw)
			if tt.expectErr {
				if err == nil {
					t.Errorf("NormalizeAmount(%q) expected error, got %s", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeAmount(%q) unexpected error = %v", tt.raw, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("NormalizeAmount(%q) = %s, expected %s", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestNewCompleteRecord(t *testing.T) {
	res := extract.NewResult("current", map[extract.FieldName]string{
		extract.FieldDirectDepositDate: "04-01-2024",
		extract.FieldEmployeeFullName:  " Jane Q Doe ",
		extract.FieldCurrentEarnings:   "3,200.00",
		extract.FieldCurrentTaxes:      "612.40",
		extract.FieldNetPay:            "2,587.60",
	})

	rec, err := New(res)
	if err != nil {
		t.Fatalf("New() unexpected error = %v", err)
	}

	if rec.Template != "current" {
		t.Errorf("Template = %q, expected current", rec.Template)
	}
	if !rec.NetPay.Equal(decimal.RequireFromString("2587.60")) {
		t.Errorf("NetPay = %s, expected 2587.60", rec.NetPay)
	}
	expectedDate := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	if !rec.DirectDepositDate.Equal(expectedDate) {
		t.Errorf("DirectDepositDate = %v, expected %v", rec.DirectDepositDate, expectedDate)
	}
	if rec.DepositDateRaw != "04-01-2024" {
		t.Errorf("DepositDateRaw = %q", rec.DepositDateRaw)
	}
	if rec.EmployeeFullName != "Jane Q Doe" {
		t.Errorf("EmployeeFullName = %q, expected Jane Q Doe", rec.EmployeeFullName)
	}
	if !rec.CurrentEarnings.Valid || !rec.CurrentEarnings.Decimal.Equal(decimal.NewFromInt(3200)) {
		t.Errorf("CurrentEarnings = %+v, expected 3200", rec.CurrentEarnings)
	}
	if !rec.CurrentTaxes.Valid || !rec.CurrentTaxes.Decimal.Equal(decimal.RequireFromString("612.40")) {
		t.Errorf("CurrentTaxes = %+v, expected 612.40", rec.CurrentTaxes)
	}
	if len(rec.ParseFailures) != 0 {
		t.Errorf("ParseFailures = %v, expected none", rec.ParseFailures)
	}

	fields := rec.Fields()
	expected := map[extract.FieldName]string{
		extract.FieldDirectDepositDate: "04-01-2024",
		extract.FieldEmployeeFullName:  "Jane Q Doe",
		extract.FieldCurrentEarnings:   "3200.00",
		extract.FieldCurrentTaxes:      "612.40",
		extract.FieldNetPay:            "2587.60",
	}
	for field, want := range expected {
		if fields[field] != want {
			t.Errorf("Fields()[%s] = %q, expected %q", field, fields[field], want)
		}
	}
}

func TestNewMissingNetPay(t *testing.T) {
	res := extract.NewResult("legacy", map[extract.FieldName]string{
		extract.FieldDirectDepositDate: "03-15-2024",
	})

	_, err := New(res)
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("New() error = %v, expected ErrExtraction", err)
	}
	var extractionErr *extract.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("New() error is %T, expected *extract.ExtractionError", err)
	}
	if extractionErr.Field != extract.FieldNetPay {
		t.Errorf("ExtractionError.Field = %s, expected Net Pay", extractionErr.Field)
	}
}

func TestNewUnparsableNetPay(t *testing.T) {
	res := extract.NewResult("custom", map[extract.FieldName]string{
		extract.FieldNetPay: "12.3.4",
	})

	_, err := New(res)
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("New() error = %v, expected ErrExtraction", err)
	}
	var parseErr *ParseFailure
	if !errors.As(err, &parseErr) {
		t.Fatalf("New() error %v does not wrap *ParseFailure", err)
	}
	if parseErr.Raw != "12.3.4" {
		t.Errorf("ParseFailure.Raw = %q, expected 12.3.4", parseErr.Raw)
	}
}

func TestNewNegativeNetPay(t *testing.T) {
	res := extract.NewResult("custom", map[extract.FieldName]string{
		extract.FieldNetPay: "-5.00",
	})

	_, err := New(res)
	if !errors.Is(err, ErrNegativeNetPay) {
		t.Errorf("New() error = %v, expected ErrNegativeNetPay", err)
	}
}

func TestNewZeroNetPay(t *testing.T) {
	res := extract.NewResult("custom", map[extract.FieldName]string{
		extract.FieldNetPay: "0.00",
	})

	rec, err := New(res)
	if err != nil {
		t.Fatalf("New() unexpected error = %v", err)
	}
	if !rec.NetPay.IsZero() {
		t.Errorf("NetPay = %s, expected 0", rec.NetPay)
	}
}

func TestNewRecordsParseFailures(t *testing.T) {
	res := extract.NewResult("custom", map[extract.FieldName]string{
		extract.FieldDirectDepositDate: "13-45-2024",
		extract.FieldCurrentEarnings:   "lots",
		extract.FieldNetPay:            "100.00",
	})

	rec, err := New(res)
	if err != nil {
		t.Fatalf("New() unexpected error = %v", err)
	}

	if rec.HasDepositDate() {
		t.Errorf("HasDepositDate() = true for unparsable date")
	}
	if rec.DepositDateRaw != "13-45-2024" {
		t.Errorf("DepositDateRaw = %q, expected raw value kept", rec.DepositDateRaw)
	}
	if rec.CurrentEarnings.Valid {
		t.Errorf("CurrentEarnings should be absent, got %s", rec.CurrentEarnings.Decimal)
	}
	if rec.CurrentTaxes.Valid {
		t.Errorf("CurrentTaxes should be absent when not extracted")
	}

	if len(rec.ParseFailures) != 2 {
		t.Fatalf("ParseFailures = %v, expected 2 entries", rec.ParseFailures)
	}
	if rec.ParseFailures[0].Field != extract.FieldDirectDepositDate {
		t.Errorf("first ParseFailure field = %s, expected deposit date", rec.ParseFailures[0].Field)
	}
	if rec.ParseFailures[1].Field != extract.FieldCurrentEarnings {
		t.Errorf("second ParseFailure field = %s, expected earnings", rec.ParseFailures[1].Field)
	}

	fields := rec.Fields()
	if fields[extract.FieldDirectDepositDate] != "13-45-2024" {
		t.Errorf("Fields() date = %q, expected raw fallback", fields[extract.FieldDirectDepositDate])
	}
	if _, ok := fields[extract.FieldCurrentEarnings]; ok {
		t.Errorf("Fields() should omit absent earnings")
	}
}

func TestExtractThenRecord(t *testing.T) {
	ex, err := extract.New("auto")
	if err != nil {
		t.Fatalf("extract.New() unexpected error = %v", err)
	}

	rec, err := New(ex.Extract("Net Pay ... 1,234.56"))
	if err != nil {
		t.Fatalf("New() unexpected error = %v", err)
	}
	if !rec.NetPay.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("NetPay = %s, expected 1234.56", rec.NetPay)
	}
}
