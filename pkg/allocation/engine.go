// Package allocation splits net pay between checking and savings accounts.
package allocation

import (
	"errors"
	"fmt"

	"github.com/iwvelando/paysplit/pkg/constants"
	"github.com/iwvelando/paysplit/pkg/mathutil"
	"github.com/iwvelando/paysplit/pkg/validation"
	"github.com/shopspring/decimal"
)

// ErrInvalidAllocation is matched by every ValidationError.
var ErrInvalidAllocation = errors.New("invalid allocation")

// ValidationError reports allocation inputs rejected before any computation.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrInvalidAllocation, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidAllocation, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrInvalidAllocation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidAllocation
}

// Balances maps an account name to its accumulated amount.
type Balances map[string]decimal.Decimal

// Clone returns a copy of b. A nil map clones to an empty one.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b)+2)
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Checking returns the checking balance, zero when absent.
func (b Balances) Checking() decimal.Decimal {
	return b[constants.AccountChecking]
}

// Savings returns the savings balance, zero when absent.
func (b Balances) Savings() decimal.Decimal {
	return b[constants.AccountSavings]
}

// Totals returns the checking and savings balances.
func Totals(b Balances) (checking, savings decimal.Decimal) {
	return b.Checking(), b.Savings()
}

// Split is a one-shot allocation of a single total.
type Split struct {
	Total           decimal.Decimal
	CheckingPercent decimal.Decimal
	SavingsPercent  decimal.Decimal
	Checking        decimal.Decimal
	Savings         decimal.Decimal
}

// Unallocated is what remains of the total after both accounts. It is
// negative when the percentages add up to more than one.
func (s Split) Unallocated() decimal.Decimal {
	return s.Total.Sub(s.Checking).Sub(s.Savings)
}

// Balances returns the split as a fresh balances map.
func (s Split) Balances() Balances {
	return Balances{
		constants.AccountChecking: s.Checking,
		constants.AccountSavings:  s.Savings,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets how the two percentages are validated against each other.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// Engine validates percentages and computes account splits. It holds no
// balances; callers thread them through Calculate.
type Engine struct {
	policy Policy
}

// NewEngine returns an engine using PolicyIndependent unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{policy: PolicyIndependent}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the engine's percentage policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Validate checks both fractions against [0,1] and the engine's policy.
func (e *Engine) Validate(checkingPct, savingsPct decimal.Decimal) error {
	if err := validation.Fraction("checking percent", checkingPct); err != nil {
		return &ValidationError{Err: err}
	}
	if err := validation.Fraction("savings percent", savingsPct); err != nil {
		return &ValidationError{Err: err}
	}
	if e.policy == PolicySumToOne {
		if sum := checkingPct.Add(savingsPct); !sum.Equal(decimal.NewFromInt(1)) {
			return &ValidationError{
				Reason: fmt.Sprintf("checking and savings percents must sum to 1, got %s", sum),
			}
		}
	}
	return nil
}

// Split computes checking and savings amounts for total, each rounded to
// cents with midpoints away from zero.
func (e *Engine) Split(total, checkingPct, savingsPct decimal.Decimal) (Split, error) {
	if err := e.Validate(checkingPct, savingsPct); err != nil {
		return Split{}, err
	}
	if err := validation.NonNegative("total income", total); err != nil {
		return Split{}, &ValidationError{Err: err}
	}
	return Split{
		Total:           total,
		CheckingPercent: checkingPct,
		SavingsPercent:  savingsPct,
		Checking:        mathutil.ApplyFraction(total, checkingPct),
		Savings:         mathutil.ApplyFraction(total, savingsPct),
	}, nil
}

// Calculate splits total and adds the amounts to existing. The result is a new
// map holding every key of existing; existing itself is never modified.
func (e *Engine) Calculate(total, checkingPct, savingsPct decimal.Decimal, existing Balances) (Balances, error) {
	split, err := e.Split(total, checkingPct, savingsPct)
	if err != nil {
		return nil, err
	}
	return Accumulate(existing, split), nil
}

// Accumulate adds a split to a copy of existing.
func Accumulate(existing Balances, split Split) Balances {
	out := existing.Clone()
	out[constants.AccountChecking] = out.Checking().Add(split.Checking)
	out[constants.AccountSavings] = out.Savings().Add(split.Savings)
	return out
}
