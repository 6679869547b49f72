package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jimsnab/go-lane"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/domain"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/repo"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/usecase"
)

// ObserverState is the observer task's position in its lifecycle
type ObserverState int32

const (
	StateIdle        ObserverState = iota // not started
	StateListing                          // reading the initial client list
	StateSubscribing                      // registering for server events
	StatePolling                          // reading and classifying frames
	StateDraining                         // logging out and pushing Terminate
	StateTerminated                       // Terminate has been pushed
)

func (s ObserverState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListing:
		return "listing"
	case StateSubscribing:
		return "subscribing"
	case StatePolling:
		return "polling"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// ObserverService drives the query session: it seeds the client cache, subscribes to
// events, then polls and classifies frames onto the notification queue until cancelled.
// It is the only user of the session once started.
type ObserverService struct {
	l          lane.Lane
	query      repo.QueryRepo
	classifier *usecase.ClassifierUsecase
	liveness   *Liveness
	queue      chan<- domain.Notification
	interval   time.Duration
	now        func() time.Time

	state atomic.Int32
}

// NewObserverService creates a new observer
func NewObserverService(
	l lane.Lane,
	query repo.QueryRepo,
	classifier *usecase.ClassifierUsecase,
	liveness *Liveness,
	queue chan<- domain.Notification,
	interval time.Duration,
) *ObserverService {
	return &ObserverService{
		l:          l,
		query:      query,
		classifier: classifier,
		liveness:   liveness,
		queue:      queue,
		interval:   interval,
		now:        time.Now,
	}
}

// State returns the current lifecycle state
func (s *ObserverService) State() ObserverState {
	return ObserverState(s.state.Load())
}

func (s *ObserverService) setState(state ObserverState) {
	s.state.Store(int32(state))
	s.l.Debugf("observer %s", state)
}

// Run executes the observer until ctx is cancelled or a fatal error occurs. Whatever
// the outcome, it logs out and pushes exactly one Terminate before returning.
func (s *ObserverService) Run(ctx context.Context) (err error) {
	defer s.drain(ctx)

	s.setState(StateListing)
	records, err := s.query.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	seeded := s.classifier.Seed(records)
	s.l.Infof("seeded %d of %d online clients", seeded, len(records))

	s.setState(StateSubscribing)
	if err := s.query.RegisterEvents(ctx); err != nil {
		return fmt.Errorf("register events: %w", err)
	}

	s.setState(StatePolling)
	s.l.Info("watching for client events")
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := s.pollOnce(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}
	}
}

// pollOnce reads one frame, or probes the server when the read window was idle and a
// keepalive is due, and classifies whatever came back
func (s *ObserverService) pollOnce(ctx context.Context) error {
	frame, ok, err := s.query.Poll(ctx)
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}

	if !ok {
		if !s.liveness.TakeIfDue() {
			return nil
		}
		s.l.Trace("keepalive probe")
		frame, err = s.query.Probe(ctx)
		if err != nil {
			return fmt.Errorf("keepalive probe: %w", err)
		}
	}

	return s.classifier.Classify(frame, s.now(), func(n domain.Notification) {
		s.queue <- n
	})
}

func (s *ObserverService) drain(ctx context.Context) {
	s.setState(StateDraining)

	if err := s.query.Logout(context.WithoutCancel(ctx)); err != nil {
		s.l.Warnf("logout failed: %v", err)
	}
	s.queue <- domain.Terminate{}

	s.setState(StateTerminated)
}
