package repo

import (
	"context"
	"time"

	"github.com/tsnotify/ts-notify-bridge/internal/biz/domain"
)

// HistoryRepo is the relayed event log (SQLite)
type HistoryRepo interface {
	// Record appends a relayed notification
	Record(ctx context.Context, entry *domain.HistoryEntry) error

	// Latest returns the most recent entry, nil if the log is empty
	Latest(ctx context.Context) (*domain.HistoryEntry, error)

	// CountSince counts entries that occurred at or after since
	CountSince(ctx context.Context, since time.Time) (int64, error)

	Close() error
}
