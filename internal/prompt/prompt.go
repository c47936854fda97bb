// Package prompt collects allocation input interactively on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/paysplit/pkg/allocation"
	"github.com/iwvelando/paysplit/pkg/budget"
	"github.com/iwvelando/paysplit/pkg/format"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrInputClosed is returned when input ends before a required answer.
var ErrInputClosed = errors.New("input closed before an answer was given")

// Prompter asks questions on out and reads answers line by line from in.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	logger *zap.Logger
}

// New creates a prompter.
func New(in io.Reader, out io.Writer, logger *zap.Logger) *Prompter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prompter{in: bufio.NewReader(in), out: out, logger: logger}
}

// ask prints question and returns the trimmed answer. eof reports that input
// ended; an answer on the final unterminated line is still returned.
func (p *Prompter) ask(question string) (answer string, eof bool, err error) {
	_, _ = fmt.Fprintf(p.out, "%s", question)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			_, _ = fmt.Fprintln(p.out)
			return strings.TrimSpace(line), true, nil
		}
		return "", false, err
	}
	return strings.TrimSpace(line), false, nil
}

// Path asks for the pay statement location until a non-empty answer is given.
func (p *Prompter) Path() (string, error) {
	for {
		answer, eof, err := p.ask("Pay statement file: ")
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
		if eof {
			return "", ErrInputClosed
		}
	}
}

// Percent asks for a percentage on the 0-100 scale and returns it as a
// fraction, asking again until the answer is a number in range.
func (p *Prompter) Percent(label string) (decimal.Decimal, error) {
	for {
		answer, eof, err := p.ask(fmt.Sprintf("Percent of net pay to %s (0-100): ", label))
		if err != nil {
			return decimal.Zero, err
		}
		if answer == "" && eof {
			return decimal.Zero, ErrInputClosed
		}

		v, parseErr := decimal.NewFromString(strings.TrimSuffix(answer, "%"))
		if parseErr != nil {
			_, _ = fmt.Fprintf(p.out, "%q is not a number\n", answer)
		} else {
			fraction, rangeErr := allocation.NormalizePercent(v, allocation.ScalePercent)
			if rangeErr == nil {
				return fraction, nil
			}
			_, _ = fmt.Fprintf(p.out, "%v\n", rangeErr)
		}
		if eof {
			return decimal.Zero, ErrInputClosed
		}
	}
}

// Percents asks for the checking and savings percents, returned as fractions.
func (p *Prompter) Percents() (checking, savings decimal.Decimal, err error) {
	if checking, err = p.Percent("checking"); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if savings, err = p.Percent("savings"); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return checking, savings, nil
}

// Categories fills planner from category and percent answers. An empty
// category name or the end of input finishes the planner, as does reaching
// its ceiling. Invalid answers are reported and asked again.
func (p *Prompter) Categories(planner *budget.Planner) error {
	_, _ = fmt.Fprintf(p.out, "Budget %s of checking (%s of net pay) across: %s\n",
		format.Currency(planner.CheckingAmount()), format.Percent(planner.Ceiling()),
		strings.Join(budget.Names(), ", "))

	for !planner.Done() {
		answer, eof, err := p.ask(fmt.Sprintf("Category (%s remaining, blank to finish): ", format.Percent(planner.Remaining())))
		if err != nil {
			return err
		}
		if answer == "" {
			break
		}
		category, err := budget.ParseCategory(answer)
		if err != nil {
			_, _ = fmt.Fprintf(p.out, "%v\n", err)
			if eof {
				break
			}
			continue
		}

		pctAnswer, pctEOF, err := p.ask(fmt.Sprintf("Percent of checking for %s: ", category))
		if err != nil {
			return err
		}
		pct, parseErr := decimal.NewFromString(strings.TrimSuffix(pctAnswer, "%"))
		if parseErr != nil {
			_, _ = fmt.Fprintf(p.out, "%q is not a number\n", pctAnswer)
		} else if amount, assignErr := planner.Assign(category, pct); assignErr != nil {
			p.report(assignErr)
		} else {
			_, _ = fmt.Fprintf(p.out, "%s: %s\n", category, format.Currency(amount))
		}
		if eof || pctEOF {
			break
		}
	}

	planner.Finish()
	p.logger.Debug("category budget collected",
		zap.String("op", "prompt.Categories"),
		zap.Int("categories", len(planner.Allocations())),
		zap.String("total_percent", planner.Total().String()),
	)
	return nil
}

func (p *Prompter) report(err error) {
	var over *budget.OverAllocationError
	if errors.As(err, &over) {
		_, _ = fmt.Fprintf(p.out, "That would exceed the checking allocation; only %s remains\n", format.Percent(over.Remaining()))
		return
	}
	_, _ = fmt.Fprintf(p.out, "%v\n", err)
}
