// Package deposit runs one pay statement through extraction, the checking and
// savings split and the optional category budget, producing the history entry
// that gets persisted.
package deposit

import (
	"context"
	"fmt"
	"time"

	"github.com/iwvelando/paysplit/internal/history"
	"github.com/iwvelando/paysplit/pkg/allocation"
	"github.com/iwvelando/paysplit/pkg/budget"
	"github.com/iwvelando/paysplit/pkg/constants"
	"github.com/iwvelando/paysplit/pkg/extract"
	"github.com/iwvelando/paysplit/pkg/paystub"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Request describes one allocation. Percents are fractions in [0,1].
type Request struct {
	Text            string
	CheckingPercent decimal.Decimal
	SavingsPercent  decimal.Decimal
	// Existing balances to accumulate onto; nil starts from zero.
	Existing allocation.Balances
	// Categories are percents of the checking amount on the 0-100 scale.
	Categories map[budget.Category]decimal.Decimal
}

// Result is the outcome of processing one statement.
type Result struct {
	Record     paystub.Record
	Split      allocation.Split
	Balances   allocation.Balances
	Categories []budget.Allocation
	RecordedAt time.Time
}

// Entry converts the result into a history row. A deposit date that did not
// parse is carried as its raw text.
func (r Result) Entry() history.Entry {
	entry := history.Entry{
		Date:            r.Record.DirectDepositDate,
		Employee:        r.Record.EmployeeFullName,
		Template:        r.Record.Template,
		Earnings:        r.Record.CurrentEarnings,
		Taxes:           r.Record.CurrentTaxes,
		NetPay:          r.Record.NetPay,
		CheckingPercent: r.Split.CheckingPercent,
		SavingsPercent:  r.Split.SavingsPercent,
		Checking:        r.Split.Checking,
		Savings:         r.Split.Savings,
		Categories:      append([]budget.Allocation(nil), r.Categories...),
		RecordedAt:      r.RecordedAt,
	}
	if !r.Record.HasDepositDate() {
		entry.DateRaw = r.Record.DepositDateRaw
	}
	return entry
}

// WithCategories returns a copy of r carrying the given category
// allocations, typically collected interactively from a planner.
func (r Result) WithCategories(allocs []budget.Allocation) Result {
	r.Categories = append([]budget.Allocation(nil), allocs...)
	return r
}

// Planner returns a budget planner over the result's checking amount, with
// the checking percent as the ceiling.
func (r Result) Planner() (*budget.Planner, error) {
	return budget.NewPlanner(r.Split.Checking, r.Split.CheckingPercent)
}

// Processor wires an extractor and an allocation engine together.
type Processor struct {
	extractor *extract.Extractor
	engine    *allocation.Engine
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock overrides the time source used for RecordedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

// NewProcessor creates a processor. A nil extractor or engine gets the
// defaults: auto template detection and the independent percent policy.
func NewProcessor(extractor *extract.Extractor, engine *allocation.Engine, logger *zap.Logger, opts ...Option) (*Processor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		var err error
		extractor, err = extract.New(constants.TemplateAuto)
		if err != nil {
			return nil, err
		}
	}
	if engine == nil {
		engine = allocation.NewEngine()
	}
	p := &Processor{
		extractor: extractor,
		engine:    engine,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process extracts the statement in req.Text, splits its net pay and, when
// categories are given, budgets the checking amount.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Reject bad percents before touching the statement.
	if err := p.engine.Validate(req.CheckingPercent, req.SavingsPercent); err != nil {
		return Result{}, err
	}

	extracted := p.extractor.Extract(req.Text)
	p.logger.Debug("extracted pay stub fields",
		zap.String("op", "deposit.Process"),
		zap.String("template", extracted.Template),
		zap.Int("matched", extracted.Matched()),
		zap.Strings("missing", fieldNames(extracted.Missing())),
	)

	record, err := paystub.New(extracted)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read pay stub: %w", err)
	}
	for _, failure := range record.ParseFailures {
		p.logger.Warn("ignoring unparsable pay stub field",
			zap.String("op", "deposit.Process"),
			zap.String("field", string(failure.Field)),
			zap.String("raw", failure.Raw),
			zap.Error(failure.Err),
		)
	}

	split, err := p.engine.Split(record.NetPay, req.CheckingPercent, req.SavingsPercent)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Record:     record,
		Split:      split,
		Balances:   allocation.Accumulate(req.Existing, split),
		RecordedAt: p.now().UTC(),
	}

	if len(req.Categories) > 0 {
		planner, err := budget.Plan(split.Checking, split.CheckingPercent, req.Categories)
		if err != nil {
			return Result{}, fmt.Errorf("failed to budget checking allocation: %w", err)
		}
		result.Categories = planner.Allocations()
	}

	p.logger.Info("allocated net pay",
		zap.String("op", "deposit.Process"),
		zap.String("net_pay", record.NetPay.StringFixed(2)),
		zap.String("checking", split.Checking.StringFixed(2)),
		zap.String("savings", split.Savings.StringFixed(2)),
		zap.Int("categories", len(result.Categories)),
	)
	return result, nil
}

// Record processes req and appends the resulting entry to store.
func (p *Processor) Record(ctx context.Context, store history.Store, req Request) (Result, error) {
	result, err := p.Process(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if err := store.Append(ctx, result.Entry()); err != nil {
		return Result{}, fmt.Errorf("failed to save allocation: %w", err)
	}
	return result, nil
}

// Seed returns the running balances recorded in store, for accumulating a
// new allocation onto previous pay periods.
func Seed(ctx context.Context, store history.Store) (allocation.Balances, error) {
	entries, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read allocation history: %w", err)
	}
	return history.Totals(entries), nil
}

func fieldNames(fields []extract.FieldName) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}
