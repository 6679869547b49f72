package service

import (
	"sync"
	"time"

	"github.com/jimsnab/go-lane"
)

// DefaultKeepalivePeriod is how often the observer is asked to prove the connection
const DefaultKeepalivePeriod = 30 * time.Second

// Liveness is the flag shared by the keepalive runner and the observer
type Liveness struct {
	mu  sync.Mutex
	due bool
}

// Mark requests a probe on the next idle poll
func (lv *Liveness) Mark() {
	lv.mu.Lock()
	lv.due = true
	lv.mu.Unlock()
}

// TakeIfDue reports whether a probe was requested and clears the request
func (lv *Liveness) TakeIfDue() bool {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	due := lv.due
	lv.due = false
	return due
}

// KeepaliveRunner marks the liveness flag on a fixed period
type KeepaliveRunner struct {
	l        lane.Lane
	liveness *Liveness
	period   time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewKeepaliveRunner creates a runner; period <= 0 uses DefaultKeepalivePeriod
func NewKeepaliveRunner(l lane.Lane, liveness *Liveness, period time.Duration) *KeepaliveRunner {
	if period <= 0 {
		period = DefaultKeepalivePeriod
	}
	return &KeepaliveRunner{
		l:        l,
		liveness: liveness,
		period:   period,
	}
}

// Start starts the runner
func (r *KeepaliveRunner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.wg.Add(1)
	go r.loop(r.stopCh)
	r.l.Debugf("keepalive started with period %v", r.period)
}

// Stop stops the runner and waits for it to exit
func (r *KeepaliveRunner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
	r.l.Debug("keepalive stopped")
}

func (r *KeepaliveRunner) loop(stopCh <-chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.liveness.Mark()
		case <-stopCh:
			return
		}
	}
}
