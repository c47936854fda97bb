package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/paysplit/pkg/allocation"
	"github.com/iwvelando/paysplit/pkg/budget"
	"github.com/iwvelando/paysplit/pkg/extract"
	"github.com/iwvelando/paysplit/pkg/validation"
	"github.com/shopspring/decimal"
)

// ParseDecimal parses a configured or user-entered number.
func ParseDecimal(field, raw string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return v, nil
}

// Extractor builds the field extractor from the selected template and any
// custom templates.
func (c *Configuration) Extractor() (*extract.Extractor, error) {
	custom := make([]extract.Template, 0, len(c.Templates))
	for _, tc := range c.Templates {
		tmpl, err := extract.NewTemplate(tc.Name, tc.Fields)
		if err != nil {
			return nil, err
		}
		custom = append(custom, tmpl)
	}
	return extract.New(c.Template, custom...)
}

// Engine builds an allocation engine using the configured policy.
func (a AllocationConfig) Engine() (*allocation.Engine, error) {
	policy, err := allocation.ParsePolicy(a.Policy)
	if err != nil {
		return nil, err
	}
	return allocation.NewEngine(allocation.WithPolicy(policy)), nil
}

// Scale returns the scale the configured percents are written in.
func (a AllocationConfig) Scale() (allocation.Scale, error) {
	return allocation.ParseScale(a.PercentScale)
}

// Fractions returns the configured checking and savings percents normalized
// to [0,1]. A percent left empty is returned invalid.
func (a AllocationConfig) Fractions() (checking, savings decimal.NullDecimal, err error) {
	scale, err := a.Scale()
	if err != nil {
		return checking, savings, err
	}
	checking, err = fraction("checking percent", a.CheckingPercent, scale)
	if err != nil {
		return checking, savings, err
	}
	savings, err = fraction("savings percent", a.SavingsPercent, scale)
	return checking, savings, err
}

// ErrMissingPercent is returned when a percent is neither given nor configured.
var ErrMissingPercent = errors.New("percent not given and not configured")

// Resolve returns the checking and savings fractions to use for one
// allocation. Non-empty checking and savings arguments override the
// configured percents and are read on scale, or on the configured scale when
// scale is empty.
func (a AllocationConfig) Resolve(checking, savings, scale string) (checkingPct, savingsPct decimal.Decimal, err error) {
	configured, err := a.Scale()
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	entryScale := configured
	if strings.TrimSpace(scale) != "" {
		if entryScale, err = allocation.ParseScale(scale); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
	}

	pick := func(field, override, fallback string) (decimal.Decimal, error) {
		v, err := fraction(field, override, entryScale)
		if err != nil {
			return decimal.Zero, err
		}
		if !v.Valid {
			if v, err = fraction(field, fallback, configured); err != nil {
				return decimal.Zero, err
			}
		}
		if !v.Valid {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingPercent, field)
		}
		return v.Decimal, nil
	}

	if checkingPct, err = pick("checking percent", checking, a.CheckingPercent); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if savingsPct, err = pick("savings percent", savings, a.SavingsPercent); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return checkingPct, savingsPct, nil
}

func fraction(field, raw string, scale allocation.Scale) (decimal.NullDecimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.NullDecimal{}, nil
	}
	v, err := ParseDecimal(field, raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	normalized, err := allocation.NormalizePercent(v, scale)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%s: %w", field, err)
	}
	return decimal.NewNullDecimal(normalized), nil
}

// Percents returns the configured category percents keyed by category.
func (b BudgetConfig) Percents() (map[budget.Category]decimal.Decimal, error) {
	return ParseCategoryPercents(b.Categories)
}

// ParseCategoryPercents converts name to percent strings into typed category
// percents on the 0-100 scale.
func ParseCategoryPercents(raw map[string]string) (map[budget.Category]decimal.Decimal, error) {
	out := make(map[budget.Category]decimal.Decimal, len(raw))
	for name, value := range raw {
		category, err := budget.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if _, dup := out[category]; dup {
			return nil, fmt.Errorf("category %s configured more than once", category)
		}
		pct, err := ParseDecimal(string(category)+" percent", value)
		if err != nil {
			return nil, err
		}
		if err := validation.Percent(string(category)+" percent", pct); err != nil {
			return nil, err
		}
		out[category] = pct
	}
	return out, nil
}
