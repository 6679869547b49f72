package repo

import (
	"context"

	"github.com/tsnotify/ts-notify-bridge/internal/biz/domain"
)

// QueryRepo is the ServerQuery session as seen by the relay.
// Calls must not overlap; the observer is the only caller once setup is done.
type QueryRepo interface {
	// ListClients lists connected clients
	ListClients(ctx context.Context) ([]domain.ClientRecord, error)

	// RegisterEvents subscribes to client enter/leave events
	RegisterEvents(ctx context.Context) error

	// Poll reads one frame; ok is false when nothing arrived in the read window
	Poll(ctx context.Context) (frame string, ok bool, err error)

	// Probe sends a no-op command to prove the connection is alive and returns the
	// raw response, which may carry interleaved event lines
	Probe(ctx context.Context) (string, error)

	// Logout ends the query session without waiting for a reply
	Logout(ctx context.Context) error

	Close() error
}
