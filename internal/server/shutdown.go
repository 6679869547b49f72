package server

import (
	"context"
	"errors"
	"os"

	"github.com/jimsnab/go-lane"
)

// ForcedExitCode is the process status after a repeated interrupt
const ForcedExitCode = 137

// ErrForcedExit is returned when the exit function did not end the process
var ErrForcedExit = errors.New("forced exit")

// ShutdownCoordinator turns interrupts into an orderly relay shutdown. The first
// interrupt cancels the observer; another one before the relay is done exits the
// process immediately.
type ShutdownCoordinator struct {
	l       lane.Lane
	signals <-chan os.Signal
	cancel  context.CancelFunc
	exit    func(code int)
}

// NewShutdownCoordinator creates a coordinator. exit is normally os.Exit.
func NewShutdownCoordinator(l lane.Lane, signals <-chan os.Signal, cancel context.CancelFunc, exit func(code int)) *ShutdownCoordinator {
	return &ShutdownCoordinator{
		l:       l,
		signals: signals,
		cancel:  cancel,
		exit:    exit,
	}
}

// Wait blocks until the relay has fully stopped and returns the observer's error
func (c *ShutdownCoordinator) Wait(relay *Relay) error {
	select {
	case sig := <-c.signals:
		c.l.Infof("termination %s signaled, stopping", sig)
		c.cancel()
	case <-relay.ObserverDone():
		c.cancel()
	}

	select {
	case <-relay.ObserverDone():
	case sig := <-c.signals:
		return c.force(sig)
	}
	c.l.Debug("observer terminated, waiting for notifier")

	select {
	case <-relay.Done():
	case sig := <-c.signals:
		return c.force(sig)
	}

	c.l.Info("relay stopped")
	return relay.Err()
}

func (c *ShutdownCoordinator) force(sig os.Signal) error {
	c.l.Warnf("termination %s signaled again, exiting now", sig)
	c.exit(ForcedExitCode)
	return ErrForcedExit
}
