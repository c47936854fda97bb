package testutil

import (
	"strings"
	"testing"
)

func TestStubsAreDistinctLayouts(t *testing.T) {
	if !strings.Contains(LegacyStub, "Earnings\n-\nTaxes") {
		t.Fatalf("legacy stub lost its summary header")
	}
	if !strings.Contains(CurrentStub, "TAXES/DEDUCTIONS  CURRENT  YTD") {
		t.Fatalf("current stub lost its column header")
	}
}

func TestDecimal(t *testing.T) {
	if got := Decimal(t, "2587.60"); got.String() != "2587.6" {
		t.Fatalf("Decimal() = %s, expected 2587.6", got)
	}
}
