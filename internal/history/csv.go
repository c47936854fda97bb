package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iwvelando/paysplit/pkg/budget"
	"github.com/iwvelando/paysplit/pkg/mathutil"
	"github.com/iwvelando/paysplit/pkg/paystub"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CSVStore appends entries to a CSV file, writing the header only when the
// file is new or empty.
type CSVStore struct {
	path   string
	logger *zap.Logger
}

// NewCSVStore returns a store backed by the CSV file at path. The file is
// created on the first append.
func NewCSVStore(path string, logger *zap.Logger) *CSVStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVStore{path: path, logger: logger}
}

// Path returns the file the store writes to.
func (s *CSVStore) Path() string {
	return s.path
}

// Append writes e as a new row.
func (s *CSVStore) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file %s: %w", s.path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			s.logger.Warn("failed to close history file",
				zap.String("op", "history.csv.Append"),
				zap.String("path", s.path),
				zap.Error(closeErr),
			)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat history file %s: %w", s.path, err)
	}

	columns := Columns()
	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(columns); err != nil {
			return fmt.Errorf("failed to write history header: %w", err)
		}
	}

	row := e.Row()
	record := make([]string, len(columns))
	for i, col := range columns {
		record[i] = row[col]
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("failed to write history row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush history file: %w", err)
	}

	s.logger.Debug("appended history row",
		zap.String("op", "history.csv.Append"),
		zap.String("path", s.path),
		zap.String("date", row[ColumnDate]),
	)
	return nil
}

// List reads every row. A missing file is an empty history. Columns are
// matched by header name so logs written by older versions still load.
func (s *CSVStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open history file %s: %w", s.path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	var entries []Entry
	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read history line %d: %w", line, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := parseRecord(index, record)
		if err != nil {
			return nil, fmt.Errorf("history line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close is a no-op; the file is opened per operation.
func (s *CSVStore) Close() error {
	return nil
}

func parseRecord(index map[string]int, record []string) (Entry, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var e Entry
	var err error

	if raw := get(ColumnDate); raw != "" {
		e.Date, e.DateRaw = parseDate(raw)
	}
	e.Employee = get(ColumnEmployee)
	e.Template = get(ColumnTemplate)

	if e.Earnings, err = parseNull(ColumnEarnings, get(ColumnEarnings)); err != nil {
		return Entry{}, err
	}
	if e.Taxes, err = parseNull(ColumnTaxes, get(ColumnTaxes)); err != nil {
		return Entry{}, err
	}
	if e.NetPay, err = parseAmount(ColumnNetPay, get(ColumnNetPay)); err != nil {
		return Entry{}, err
	}
	if e.Checking, err = parseAmount(ColumnCheckingAllocation, get(ColumnCheckingAllocation)); err != nil {
		return Entry{}, err
	}
	if e.Savings, err = parseAmount(ColumnSavingsAllocation, get(ColumnSavingsAllocation)); err != nil {
		return Entry{}, err
	}

	checkingPct, err := parseAmount(ColumnCheckingPercent, get(ColumnCheckingPercent))
	if err != nil {
		return Entry{}, err
	}
	e.CheckingPercent = mathutil.PercentToFraction(checkingPct)
	savingsPct, err := parseAmount(ColumnSavingsPercent, get(ColumnSavingsPercent))
	if err != nil {
		return Entry{}, err
	}
	e.SavingsPercent = mathutil.PercentToFraction(savingsPct)

	for _, c := range budget.Categories {
		pct, err := parseAmount(string(c), get(string(c)))
		if err != nil {
			return Entry{}, err
		}
		if pct.IsZero() {
			continue
		}
		e.Categories = append(e.Categories, budget.Allocation{
			Category: c,
			Percent:  pct,
			Amount:   mathutil.ApplyPercentage(e.Checking, pct),
		})
	}

	if raw := get(ColumnRecordedAt); raw != "" {
		if e.RecordedAt, err = time.Parse(time.RFC3339, raw); err != nil {
			return Entry{}, fmt.Errorf("invalid %s %q: %w", ColumnRecordedAt, raw, err)
		}
	}
	return e, nil
}

func parseAmount(col, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := paystub.NormalizeAmount(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", col, raw, err)
	}
	return v, nil
}

func parseNull(col, raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	v, err := parseAmount(col, raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(v), nil
}
