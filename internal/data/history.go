package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tsnotify/ts-notify-bridge/internal/biz/domain"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// historyRepo implements the relayed event log
type historyRepo struct {
	db *sql.DB
}

// NewHistoryRepo opens (creating if needed) the event log at dbPath
func NewHistoryRepo(dbPath string) (repo.HistoryRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			client_id INTEGER NOT NULL,
			nickname TEXT NOT NULL,
			unique_id TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			occurred_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events(occurred_at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &historyRepo{db: db}, nil
}

// Record appends an entry and fills in its ID
func (r *historyRepo) Record(ctx context.Context, entry *domain.HistoryEntry) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO events (kind, client_id, nickname, unique_id, country, reason, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		string(entry.Kind),
		entry.ClientID,
		entry.Nickname,
		entry.UniqueID,
		entry.Country,
		entry.Reason,
		entry.OccurredAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// Latest returns the most recent entry
func (r *historyRepo) Latest(ctx context.Context) (*domain.HistoryEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, client_id, nickname, unique_id, country, reason, occurred_at
		FROM events
		ORDER BY id DESC
		LIMIT 1
	`)

	var entry domain.HistoryEntry
	var kind string
	var occurredAt int64
	err := row.Scan(&entry.ID, &kind, &entry.ClientID, &entry.Nickname, &entry.UniqueID, &entry.Country, &entry.Reason, &occurredAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest event: %w", err)
	}

	entry.Kind = domain.HistoryKind(kind)
	entry.OccurredAt = time.Unix(occurredAt, 0)
	return &entry, nil
}

// CountSince counts entries at or after since
func (r *historyRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE occurred_at >= ?`, since.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (r *historyRepo) Close() error {
	return r.db.Close()
}
