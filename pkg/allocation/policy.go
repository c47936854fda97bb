package allocation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/paysplit/pkg/mathutil"
	"github.com/iwvelando/paysplit/pkg/validation"
	"github.com/shopspring/decimal"
)

// Policy decides whether the checking and savings percents are validated
// together.
type Policy int

const (
	// PolicyIndependent only bounds each percent to [0,1]. Over- or
	// under-allocating the total is the caller's concern.
	PolicyIndependent Policy = iota
	// PolicySumToOne additionally requires the percents to sum to exactly 1.
	PolicySumToOne
)

func (p Policy) String() string {
	switch p {
	case PolicyIndependent:
		return "independent"
	case PolicySumToOne:
		return "sum-to-one"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy resolves a policy name. An empty name is PolicyIndependent.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "independent":
		return PolicyIndependent, nil
	case "sum-to-one", "sumtoone", "strict":
		return PolicySumToOne, nil
	}
	return PolicyIndependent, fmt.Errorf("expected allocation policy of independent or sum-to-one, got %s", name)
}

// Scale is the range a percent was entered in.
type Scale int

const (
	// ScaleFraction is the [0,1] range the engine works in.
	ScaleFraction Scale = iota
	// ScalePercent is the [0,100] range used at interactive prompts.
	ScalePercent
)

func (s Scale) String() string {
	if s == ScalePercent {
		return "percent"
	}
	return "fraction"
}

// ParseScale resolves a scale name. An empty name is ScaleFraction.
func ParseScale(name string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fraction":
		return ScaleFraction, nil
	case "percent", "percentage":
		return ScalePercent, nil
	}
	return ScaleFraction, fmt.Errorf("expected percent scale of fraction or percent, got %s", name)
}

// NormalizePercent converts v from scale to the [0,1] range, rejecting values
// outside the range of the scale they were given in.
func NormalizePercent(v decimal.Decimal, scale Scale) (decimal.Decimal, error) {
	if scale == ScalePercent {
		if err := validation.Percent("percent", v); err != nil {
			return decimal.Zero, &ValidationError{Err: err}
		}
		return mathutil.PercentToFraction(v), nil
	}
	if err := validation.Fraction("percent", v); err != nil {
		return decimal.Zero, &ValidationError{Err: err}
	}
	return v, nil
}
