// Package extract pulls labeled fields out of plain-text pay statements using
// fixed regular-expression templates.
package extract

import (
	"fmt"
	"strings"
)

// FieldName identifies a value extracted from a pay stub. Names are stable
// across every template.
type FieldName string

// Fields extracted from every pay stub.
const (
	FieldDirectDepositDate FieldName = "Direct Deposit Date"
	FieldEmployeeFullName  FieldName = "Employee Full Name"
	FieldCurrentEarnings   FieldName = "Current Earnings"
	FieldCurrentTaxes      FieldName = "Current Taxes"
	FieldNetPay            FieldName = "Net Pay"
)

// StandardFields lists the fields in presentation order.
var StandardFields = []FieldName{
	FieldDirectDepositDate,
	FieldEmployeeFullName,
	FieldCurrentEarnings,
	FieldCurrentTaxes,
	FieldNetPay,
}

var fieldAliases = map[string]FieldName{
	"directdepositdate": FieldDirectDepositDate,
	"depositdate":       FieldDirectDepositDate,
	"datepaid":          FieldDirectDepositDate,
	"date":              FieldDirectDepositDate,
	"employeefullname":  FieldEmployeeFullName,
	"employeename":      FieldEmployeeFullName,
	"name":              FieldEmployeeFullName,
	"currentearnings":   FieldCurrentEarnings,
	"earnings":          FieldCurrentEarnings,
	"grosspay":          FieldCurrentEarnings,
	"currenttaxes":      FieldCurrentTaxes,
	"taxes":             FieldCurrentTaxes,
	"deductions":        FieldCurrentTaxes,
	"netpay":            FieldNetPay,
}

// ParseFieldName resolves a field name case-insensitively, ignoring spaces,
// underscores and hyphens, so "net pay", "net_pay" and "NetPay" all resolve to
// FieldNetPay.
func ParseFieldName(name string) (FieldName, error) {
	key := strings.ToLower(name)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	if field, ok := fieldAliases[key]; ok {
		return field, nil
	}
	return "", fmt.Errorf("unknown pay stub field %q", name)
}
