package budget

import (
	"errors"
	"fmt"

	"github.com/iwvelando/paysplit/pkg/mathutil"
	"github.com/iwvelando/paysplit/pkg/validation"
	"github.com/shopspring/decimal"
)

var (
	// ErrOverAllocation is matched by every OverAllocationError.
	ErrOverAllocation = errors.New("category allocation exceeds ceiling")
	// ErrFinished is returned when assigning to a planner that was finished.
	ErrFinished = errors.New("budget planner is finished")
)

// OverAllocationError reports an assignment that would push the running
// total past the ceiling. The planner is left unchanged.
type OverAllocationError struct {
	Category  Category
	Requested decimal.Decimal
	Assigned  decimal.Decimal
	Ceiling   decimal.Decimal
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("%s: %s%% for %s would bring the total to %s%% of a %s%% ceiling, %s%% remaining",
		ErrOverAllocation, e.Requested, e.Category, e.Assigned.Add(e.Requested), e.Ceiling, e.Remaining())
}

// Is lets errors.Is(err, ErrOverAllocation) match any OverAllocationError.
func (e *OverAllocationError) Is(target error) bool {
	return target == ErrOverAllocation
}

// Remaining is the largest percent that could still be assigned.
func (e *OverAllocationError) Remaining() decimal.Decimal {
	return e.Ceiling.Sub(e.Assigned)
}

// Allocation is one category's share of the checking amount.
type Allocation struct {
	Category Category
	Percent  decimal.Decimal
	Amount   decimal.Decimal
}

// Planner records category percents against a checking amount. Percents are
// on the 0-100 scale and their sum never exceeds the ceiling.
type Planner struct {
	checking decimal.Decimal
	ceiling  decimal.Decimal
	percents map[Category]decimal.Decimal
	order    []Category
	finished bool
}

// NewPlanner creates a planner for checkingAmount. ceiling is the checking
// fraction in [0,1]; category percents may add up to ceiling*100.
func NewPlanner(checkingAmount, ceiling decimal.Decimal) (*Planner, error) {
	if err := validation.NonNegative("checking amount", checkingAmount); err != nil {
		return nil, err
	}
	if err := validation.Fraction("checking percent ceiling", ceiling); err != nil {
		return nil, err
	}
	return &Planner{
		checking: checkingAmount,
		ceiling:  mathutil.FractionToPercent(ceiling),
		percents: make(map[Category]decimal.Decimal),
	}, nil
}

// Assign records percent for category and returns its dollar amount.
// Assigning a category again replaces its previous percent.
func (p *Planner) Assign(category Category, percent decimal.Decimal) (decimal.Decimal, error) {
	if p.finished {
		return decimal.Zero, ErrFinished
	}
	category, err := ParseCategory(string(category))
	if err != nil {
		return decimal.Zero, err
	}
	if err := validation.Percent(string(category)+" percent", percent); err != nil {
		return decimal.Zero, err
	}

	previous, seen := p.percents[category]
	others := p.Total().Sub(previous)
	if others.Add(percent).GreaterThan(p.ceiling) {
		return decimal.Zero, &OverAllocationError{
			Category:  category,
			Requested: percent,
			Assigned:  others,
			Ceiling:   p.ceiling,
		}
	}

	if !seen {
		p.order = append(p.order, category)
	}
	p.percents[category] = percent
	return p.amount(percent), nil
}

func (p *Planner) amount(percent decimal.Decimal) decimal.Decimal {
	return mathutil.ApplyPercentage(p.checking, percent)
}

// Finish stops the planner from accepting further assignments.
func (p *Planner) Finish() {
	p.finished = true
}

// Done reports whether the planner was finished or the ceiling is reached.
func (p *Planner) Done() bool {
	return p.finished || p.Total().Equal(p.ceiling)
}

// Total is the sum of assigned percents.
func (p *Planner) Total() decimal.Decimal {
	total := decimal.Zero
	for _, pct := range p.percents {
		total = total.Add(pct)
	}
	return total
}

// Remaining is the percent still available under the ceiling.
func (p *Planner) Remaining() decimal.Decimal {
	return p.ceiling.Sub(p.Total())
}

// Ceiling is the maximum total percent on the 0-100 scale.
func (p *Planner) Ceiling() decimal.Decimal {
	return p.ceiling
}

// CheckingAmount is the amount category percents are applied to.
func (p *Planner) CheckingAmount() decimal.Decimal {
	return p.checking
}

// Allocations returns assignments in the order categories were first assigned.
func (p *Planner) Allocations() []Allocation {
	out := make([]Allocation, 0, len(p.order))
	for _, c := range p.order {
		pct := p.percents[c]
		out = append(out, Allocation{Category: c, Percent: pct, Amount: p.amount(pct)})
	}
	return out
}

// Amounts maps each assigned category to its dollar amount.
func (p *Planner) Amounts() map[Category]decimal.Decimal {
	out := make(map[Category]decimal.Decimal, len(p.percents))
	for c, pct := range p.percents {
		out[c] = p.amount(pct)
	}
	return out
}

// Percents maps each assigned category to its percent.
func (p *Planner) Percents() map[Category]decimal.Decimal {
	out := make(map[Category]decimal.Decimal, len(p.percents))
	for c, pct := range p.percents {
		out[c] = pct
	}
	return out
}

// Allocate assigns every percent in category display order and returns the
// dollar amounts. The first failing assignment aborts the whole allocation.
func Allocate(checkingAmount, ceiling decimal.Decimal, percents map[Category]decimal.Decimal) (map[Category]decimal.Decimal, error) {
	planner, err := Plan(checkingAmount, ceiling, percents)
	if err != nil {
		return nil, err
	}
	return planner.Amounts(), nil
}

// Plan is Allocate returning the finished planner, so callers can read the
// ordered allocations.
func Plan(checkingAmount, ceiling decimal.Decimal, percents map[Category]decimal.Decimal) (*Planner, error) {
	planner, err := NewPlanner(checkingAmount, ceiling)
	if err != nil {
		return nil, err
	}
	canonical := make(map[Category]decimal.Decimal, len(percents))
	for name, pct := range percents {
		c, err := ParseCategory(string(name))
		if err != nil {
			return nil, err
		}
		if _, dup := canonical[c]; dup {
			return nil, fmt.Errorf("category %s given more than once", c)
		}
		canonical[c] = pct
	}
	for _, c := range Categories {
		pct, ok := canonical[c]
		if !ok {
			continue
		}
		if _, err := planner.Assign(c, pct); err != nil {
			return nil, err
		}
	}
	planner.Finish()
	return planner, nil
}
