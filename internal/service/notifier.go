package service

import (
	"context"
	"sync/atomic"

	"github.com/jimsnab/go-lane"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/domain"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/repo"
)

// NotifierService drains the notification queue into the sink
type NotifierService struct {
	l       lane.Lane
	notify  repo.NotifyRepo
	history repo.HistoryRepo // optional
	queue   <-chan domain.Notification

	sent   atomic.Int64
	failed atomic.Int64
}

// NewNotifierService creates a new notifier. history may be nil.
func NewNotifierService(l lane.Lane, notify repo.NotifyRepo, history repo.HistoryRepo, queue <-chan domain.Notification) *NotifierService {
	return &NotifierService{
		l:       l,
		notify:  notify,
		history: history,
		queue:   queue,
	}
}

// Run delivers queued notifications in order until Terminate arrives or the queue is
// closed. Sink and history failures are logged and never stop the loop.
func (s *NotifierService) Run(ctx context.Context) {
	for n := range s.queue {
		switch msg := n.(type) {
		case domain.Terminate:
			s.l.Infof("notifier done: %d sent, %d failed", s.sent.Load(), s.failed.Load())
			return
		case domain.EnterNotification:
			s.deliver(ctx, msg, msg.String())
		case domain.LeftNotification:
			s.deliver(ctx, msg, msg.String())
		}
	}
	s.l.Warn("notification queue closed without terminate")
}

func (s *NotifierService) deliver(ctx context.Context, n domain.Notification, text string) {
	s.l.Info(text)

	if err := s.notify.SendText(ctx, text); err != nil {
		s.failed.Add(1)
		s.l.Errorf("send notification failed: %v", err)
	} else {
		s.sent.Add(1)
	}

	if s.history == nil {
		return
	}
	entry, ok := domain.NewHistoryEntry(n)
	if !ok {
		return
	}
	if err := s.history.Record(ctx, &entry); err != nil {
		s.l.Errorf("record history failed: %v", err)
	}
}

// Sent returns how many notifications the sink accepted
func (s *NotifierService) Sent() int64 {
	return s.sent.Load()
}

// Failed returns how many notifications the sink rejected
func (s *NotifierService) Failed() int64 {
	return s.failed.Load()
}
