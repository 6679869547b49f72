package server

import (
	"context"
	"sync"
	"time"

	"github.com/jimsnab/go-lane"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/domain"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/repo"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/usecase"
	"github.com/tsnotify/ts-notify-bridge/internal/service"
)

// RelayOptions tunes the pipeline
type RelayOptions struct {
	Interval  time.Duration // sleep between polls
	QueueSize int           // notification queue capacity
	Keepalive time.Duration // liveness probe period
}

// Relay runs the observer and notifier tasks connected by a bounded queue,
// plus the keepalive runner
type Relay struct {
	l         lane.Lane
	observer  *service.ObserverService
	notifier  *service.NotifierService
	keepalive *service.KeepaliveRunner

	observerDone chan struct{}
	done         chan struct{}

	mu  sync.Mutex
	err error
}

// NewRelay creates a new relay. history may be nil.
func NewRelay(
	l lane.Lane,
	query repo.QueryRepo,
	notify repo.NotifyRepo,
	history repo.HistoryRepo,
	classifier *usecase.ClassifierUsecase,
	opts RelayOptions,
) *Relay {
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}
	queue := make(chan domain.Notification, queueSize)
	liveness := &service.Liveness{}

	return &Relay{
		l:            l,
		observer:     service.NewObserverService(l.Derive(), query, classifier, liveness, queue, opts.Interval),
		notifier:     service.NewNotifierService(l.Derive(), notify, history, queue),
		keepalive:    service.NewKeepaliveRunner(l.Derive(), liveness, opts.Keepalive),
		observerDone: make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the tasks. Cancelling ctx asks the observer to drain; the
// notifier keeps delivering until it receives Terminate.
func (r *Relay) Start(ctx context.Context) {
	notifierDone := make(chan struct{})

	r.keepalive.Start()

	go func() {
		defer close(notifierDone)
		r.notifier.Run(context.WithoutCancel(ctx))
	}()

	go func() {
		defer close(r.observerDone)
		if err := r.observer.Run(ctx); err != nil {
			r.l.Errorf("observer stopped: %v", err)
			r.setErr(err)
		}
		r.keepalive.Stop()
	}()

	go func() {
		<-r.observerDone
		<-notifierDone
		close(r.done)
	}()
}

// ObserverDone is closed once the observer has pushed Terminate
func (r *Relay) ObserverDone() <-chan struct{} {
	return r.observerDone
}

// Done is closed once both tasks have exited
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// Err returns the observer's fatal error, if any
func (r *Relay) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Relay) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// State returns the observer's lifecycle state
func (r *Relay) State() service.ObserverState {
	return r.observer.State()
}
