package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tsnotify/ts-notify-bridge/internal/biz/domain"
)

// Mock implementations

type pollResult struct {
	frame string
	ok    bool
	err   error
}

type mockQueryRepo struct {
	mu sync.Mutex

	clients     []domain.ClientRecord
	listErr     error
	registerErr error
	polls       []pollResult
	exhausted   func() // called once when polls run out
	probeFrame  string
	probeErr    error
	logoutErr   error

	calls []string
}

func (m *mockQueryRepo) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockQueryRepo) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockQueryRepo) count(call string) int {
	n := 0
	for _, c := range m.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockQueryRepo) ListClients(ctx context.Context) ([]domain.ClientRecord, error) {
	m.record("list")
	return m.clients, m.listErr
}

func (m *mockQueryRepo) RegisterEvents(ctx context.Context) error {
	m.record("register")
	return m.registerErr
}

func (m *mockQueryRepo) Poll(ctx context.Context) (string, bool, error) {
	m.record("poll")

	m.mu.Lock()
	if len(m.polls) == 0 {
		fn := m.exhausted
		m.exhausted = nil
		m.mu.Unlock()
		if fn != nil {
			fn()
		}
		return "", false, nil
	}
	next := m.polls[0]
	m.polls = m.polls[1:]
	m.mu.Unlock()

	return next.frame, next.ok, next.err
}

func (m *mockQueryRepo) Probe(ctx context.Context) (string, error) {
	m.record("probe")
	return m.probeFrame, m.probeErr
}

func (m *mockQueryRepo) Logout(ctx context.Context) error {
	m.record("logout")
	return m.logoutErr
}

func (m *mockQueryRepo) Close() error {
	m.record("close")
	return nil
}

type mockNotifyRepo struct {
	mu    sync.Mutex
	texts []string
	fail  map[int]bool // zero-based call indexes that fail
	calls int
}

func (m *mockNotifyRepo) SendText(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.calls
	m.calls++
	if m.fail[idx] {
		return errors.New("sink unavailable")
	}
	m.texts = append(m.texts, text)
	return nil
}

func (m *mockNotifyRepo) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

type mockHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
	err     error
}

func (m *mockHistoryRepo) Record(ctx context.Context, entry *domain.HistoryEntry) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockHistoryRepo) Latest(ctx context.Context) (*domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil, nil
	}
	e := m.entries[len(m.entries)-1]
	return &e, nil
}

func (m *mockHistoryRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return int64(len(m.entries)), nil
}

func (m *mockHistoryRepo) Close() error {
	return nil
}
