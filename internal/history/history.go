package history

import (
	"context"
	"fmt"
	"time"

	"github.com/iishyfishyy/termbuddy/internal/config"
	"go.uber.org/zap"
)

// MaxEntries bounds the log; the oldest entries are evicted first
const MaxEntries = 500

// Entry represents a single generated command
type Entry struct {
	Path      string `json:"path" yaml:"path"`
	Request   string `json:"request" yaml:"request"`
	Command   string `json:"command" yaml:"command"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"` // unix milliseconds
}

// NewEntry creates an entry stamped with the current time
func NewEntry(path, request, command string) Entry {
	return Entry{
		Path:      path,
		Request:   request,
		Command:   command,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Store persists entries in append order
type Store interface {
	// Append adds entry and evicts anything beyond MaxEntries
	Append(ctx context.Context, entry Entry) error

	// All returns every stored entry, oldest first
	All(ctx context.Context) ([]Entry, error)

	// Close releases the store
	Close() error
}

// Open returns the store selected by cfg
func Open(cfg *config.Config, paths config.Paths) (Store, error) {
	switch cfg.HistoryBackend() {
	case config.HistorySQLite:
		return OpenSQLiteStore(paths.HistoryDB)
	case config.HistoryJSON:
		return NewJSONStore(paths.History), nil
	default:
		return nil, fmt.Errorf("unknown history backend: %s", cfg.HistoryBackend())
	}
}

// Record appends entry and swallows any failure. History never blocks output.
func Record(ctx context.Context, store Store, entry Entry, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		logger.Debug("no history store, skipping")
		return
	}
	if err := store.Append(ctx, entry); err != nil {
		logger.Debug("failed to record history", zap.Error(err))
	}
}
