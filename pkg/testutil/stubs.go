// Package testutil provides pay stub fixtures shared by tests.
package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
)

// LegacyStub is the text of a pay stub in the one-value-per-line layout.
const LegacyStub = "ACME CORP\n" +
	"Paid by DIRECT DEPOSIT on 03-15-2024\n" +
	"John Quincy Public  \n" +
	"Employee ID 4411\n" +
	"Earnings\n-\nTaxes\n-\nDeductions\n=\nNet Pay\nCurrent\n" +
	"    2,500.00\n" +
	"    400.00\n" +
	"    150.00\n" +
	"    1,950.00\n"

// CurrentStub is the text of a pay stub in the columnar CURRENT/YTD layout.
// Net pay is 2,587.60.
const CurrentStub = "ACME CORP\n" +
	"PAY STATEMENT\n" +
	"Jane Q Doe\n" +
	"Paid by DIRECT DEPOSIT on 04-01-2024\n" +
	"EARNINGS  HOURS  RATE  CURRENT  YTD\n" +
	"Regular  80.00  40.00  3,200.00  12,800.00\n" +
	"TAXES/DEDUCTIONS  CURRENT  YTD\n" +
	"Federal  612.40  2,449.60\n" +
	"Net Pay  2,587.60  10,350.40\n"

// Decimal parses s, failing the test when it is not a number.
func Decimal(t testing.TB, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return v
}
