package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/iwvelando/paysplit/pkg/budget"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	_ "modernc.org/sqlite" // register sqlite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps entries in a SQLite database. Amounts are stored as
// decimal text.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// NewSQLiteStore opens the database at path, creating it and applying
// migrations as needed.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	if err := RunMigrations(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Debug("opened history database",
		zap.String("op", "history.sqlite.Open"),
		zap.String("path", path),
	)
	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

// RunMigrations applies the embedded schema migrations to the database at
// dbPath using a dedicated connection.
func RunMigrations(dbPath string) error {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer func() {
		_ = migrateDB.Close()
	}()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Append inserts e and its category allocations in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	recordedAt := ""
	if !e.RecordedAt.IsZero() {
		recordedAt = e.RecordedAt.UTC().Format(time.RFC3339)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO allocations (
			deposit_date, employee, template, earnings, taxes, net_pay,
			checking_percent, savings_percent, checking_amount, savings_amount, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.DepositDate(),
		e.Employee,
		e.Template,
		nullText(e.Earnings),
		nullText(e.Taxes),
		e.NetPay.String(),
		e.CheckingPercent.String(),
		e.SavingsPercent.String(),
		e.Checking.String(),
		e.Savings.String(),
		recordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read allocation id: %w", err)
	}

	for i, a := range e.Categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO category_allocations (allocation_id, position, category, percent, amount)
			VALUES (?, ?, ?, ?, ?)`,
			id, i, string(a.Category), a.Percent.String(), a.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("insert category allocation %s: %w", a.Category, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit allocation: %w", err)
	}

	s.logger.Debug("appended history row",
		zap.String("op", "history.sqlite.Append"),
		zap.Int64("id", id),
		zap.Int("categories", len(e.Categories)),
	)
	return nil
}

// List returns every entry in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, deposit_date, employee, template, earnings, taxes, net_pay,
			checking_percent, savings_percent, checking_amount, savings_amount, recorded_at
		FROM allocations
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query allocations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []Entry
	byID := make(map[int64]int)
	for rows.Next() {
		var (
			id                                   int64
			date, employee, template, recordedAt string
			earnings, taxes                      sql.NullString
			netPay, checkingPct, savingsPct      string
			checkingAmount, savingsAmount        string
		)
		if err := rows.Scan(&id, &date, &employee, &template, &earnings, &taxes, &netPay,
			&checkingPct, &savingsPct, &checkingAmount, &savingsAmount, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}

		e := Entry{Employee: employee, Template: template}
		if date != "" {
			e.Date, e.DateRaw = parseDate(date)
		}
		if recordedAt != "" {
			if e.RecordedAt, err = time.Parse(time.RFC3339, recordedAt); err != nil {
				return nil, fmt.Errorf("allocation %d: invalid recorded_at: %w", id, err)
			}
		}
		if e.Earnings, err = scanNull(earnings); err != nil {
			return nil, fmt.Errorf("allocation %d earnings: %w", id, err)
		}
		if e.Taxes, err = scanNull(taxes); err != nil {
			return nil, fmt.Errorf("allocation %d taxes: %w", id, err)
		}
		for _, f := range []struct {
			dst *decimal.Decimal
			raw string
		}{
			{&e.NetPay, netPay},
			{&e.CheckingPercent, checkingPct},
			{&e.SavingsPercent, savingsPct},
			{&e.Checking, checkingAmount},
			{&e.Savings, savingsAmount},
		} {
			if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
				return nil, fmt.Errorf("allocation %d: %w", id, err)
			}
		}

		byID[id] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allocations: %w", err)
	}

	if err := s.loadCategories(ctx, entries, byID); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *SQLiteStore) loadCategories(ctx context.Context, entries []Entry, byID map[int64]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT allocation_id, category, percent, amount
		FROM category_allocations
		ORDER BY allocation_id, position`)
	if err != nil {
		return fmt.Errorf("query category allocations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			id                    int64
			category, pct, amount string
		)
		if err := rows.Scan(&id, &category, &pct, &amount); err != nil {
			return fmt.Errorf("scan category allocation: %w", err)
		}
		idx, ok := byID[id]
		if !ok {
			continue
		}
		c, err := budget.ParseCategory(category)
		if err != nil {
			return fmt.Errorf("allocation %d: %w", id, err)
		}
		a := budget.Allocation{Category: c}
		if a.Percent, err = decimal.NewFromString(pct); err != nil {
			return fmt.Errorf("allocation %d %s percent: %w", id, c, err)
		}
		if a.Amount, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("allocation %d %s amount: %w", id, c, err)
		}
		entries[idx].Categories = append(entries[idx].Categories, a)
	}
	return rows.Err()
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullText(v decimal.NullDecimal) sql.NullString {
	if !v.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: v.Decimal.String(), Valid: true}
}

func scanNull(v sql.NullString) (decimal.NullDecimal, error) {
	if !v.Valid || v.String == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
