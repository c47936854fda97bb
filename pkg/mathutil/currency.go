// Package mathutil provides common decimal currency helpers.
package mathutil

import (
	"github.com/iwvelando/paysplit/pkg/constants"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(constants.PercentageMultiplier)
	one     = decimal.NewFromInt(1)
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Midpoints round away from zero, which is half-up for non-negative amounts.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.DecimalPlaces)
}

// InUnitRange reports whether a fraction lies in [0,1].
func InUnitRange(val decimal.Decimal) bool {
	return !val.IsNegative() && val.LessThanOrEqual(one)
}

// InPercentRange reports whether a percentage lies in [0,100].
func InPercentRange(val decimal.Decimal) bool {
	return !val.IsNegative() && val.LessThanOrEqual(hundred)
}

// ApplyPercentage applies a percentage (0-100 scale) to a value and rounds to cents
func ApplyPercentage(value, percentage decimal.Decimal) decimal.Decimal {
	return Round(value.Mul(percentage).Div(hundred))
}

// ApplyFraction applies a fraction (0-1 scale) to a value and rounds to cents
func ApplyFraction(value, fraction decimal.Decimal) decimal.Decimal {
	return Round(value.Mul(fraction))
}

// FractionToPercent converts a 0-1 fraction to the 0-100 scale
func FractionToPercent(fraction decimal.Decimal) decimal.Decimal {
	return fraction.Mul(hundred)
}

// PercentToFraction converts a 0-100 percentage to the 0-1 scale
func PercentToFraction(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(hundred)
}
