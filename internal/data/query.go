package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jimsnab/go-lane"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/domain"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/repo"
	"github.com/tsnotify/ts-notify-bridge/internal/infra/serverquery"
)

// QueryOptions holds what is needed to open an authenticated query session
type QueryOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	ServerID int64

	ReadTimeout time.Duration // zero keeps the session default
}

// queryRepo implements the QueryRepo over a ServerQuery session
type queryRepo struct {
	session *serverquery.Session
}

// NewQueryRepo wraps an established session
func NewQueryRepo(session *serverquery.Session) repo.QueryRepo {
	return &queryRepo{session: session}
}

// OpenQueryRepo connects, logs in and selects the virtual server. Any failure
// closes the stream and aborts.
func OpenQueryRepo(ctx context.Context, l lane.Lane, opts QueryOptions) (repo.QueryRepo, error) {
	session, err := serverquery.Connect(ctx, l, opts.Host, opts.Port)
	if err != nil {
		return nil, err
	}
	if opts.ReadTimeout > 0 {
		session.SetReadTimeout(opts.ReadTimeout)
	}

	if err := session.Login(opts.User, opts.Password); err != nil {
		session.Close()
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if err := session.SelectServer(opts.ServerID); err != nil {
		session.Close()
		return nil, fmt.Errorf("select server id %d failed: %w", opts.ServerID, err)
	}

	return &queryRepo{session: session}, nil
}

// ListClients lists connected clients
func (r *queryRepo) ListClients(ctx context.Context) ([]domain.ClientRecord, error) {
	clients, err := r.session.ListClients()
	if err != nil {
		return nil, err
	}

	result := make([]domain.ClientRecord, 0, len(clients))
	for _, c := range clients {
		result = append(result, domain.ClientRecord{
			ClientID:         c.ClientID,
			ChannelID:        c.ChannelID,
			ClientDatabaseID: c.DatabaseID,
			ClientType:       c.Type,
			Nickname:         c.Nickname,
		})
	}
	return result, nil
}

// RegisterEvents subscribes to server events
func (r *queryRepo) RegisterEvents(ctx context.Context) error {
	return r.session.RegisterEvents()
}

// Poll reads one frame
func (r *queryRepo) Poll(ctx context.Context) (string, bool, error) {
	return r.session.ReadFrame()
}

// Probe issues whoami
func (r *queryRepo) Probe(ctx context.Context) (string, error) {
	return r.session.Whoami()
}

// Logout sends quit
func (r *queryRepo) Logout(ctx context.Context) error {
	return r.session.Logout()
}

// Close closes the stream
func (r *queryRepo) Close() error {
	return r.session.Close()
}
