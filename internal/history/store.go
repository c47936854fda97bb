package history

import (
	"context"
	"fmt"

	"github.com/iwvelando/paysplit/pkg/constants"
	"go.uber.org/zap"
)

// Store appends allocation entries and lists them in insertion order.
type Store interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// Open returns the store for backend at path.
func Open(backend, path string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch backend {
	case "", constants.HistoryBackendCSV:
		return NewCSVStore(path, logger), nil
	case constants.HistoryBackendSQLite:
		return NewSQLiteStore(path, logger)
	}
	return nil, fmt.Errorf("expected history backend of %s or %s, got %s",
		constants.HistoryBackendCSV, constants.HistoryBackendSQLite, backend)
}
