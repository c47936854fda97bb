package validation

import (
	"errors"
	"fmt"

	"github.com/iwvelando/paysplit/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// ErrOutOfRange is matched by every RangeError.
var ErrOutOfRange = errors.New("value out of range")

// RangeError reports a numeric input outside its allowed closed interval.
type RangeError struct {
	Field string
	Value decimal.Decimal
	Min   decimal.Decimal
	Max   decimal.Decimal
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s must be within %s to %s, got %s", e.Field, e.Min, e.Max, e.Value)
}

// Is lets errors.Is(err, ErrOutOfRange) match any RangeError.
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// Fraction validates that value lies in [0,1].
func Fraction(field string, value decimal.Decimal) error {
	if !mathutil.InUnitRange(value) {
		return &RangeError{Field: field, Value: value, Min: decimal.Zero, Max: decimal.NewFromInt(1)}
	}
	return nil
}

// Percent validates that value lies in [0,100].
func Percent(field string, value decimal.Decimal) error {
	if !mathutil.InPercentRange(value) {
		return &RangeError{Field: field, Value: value, Min: decimal.Zero, Max: decimal.NewFromInt(100)}
	}
	return nil
}

// NonNegative validates that value is zero or greater.
func NonNegative(field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return fmt.Errorf("%s must not be negative, got %s: %w", field, value, ErrOutOfRange)
	}
	return nil
}
