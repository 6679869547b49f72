package data

import (
	"context"
	"errors"

	"github.com/tsnotify/ts-notify-bridge/internal/biz/repo"
)

// fanoutRepo sends every message to each sink; one failing sink does not stop the others
type fanoutRepo struct {
	sinks []repo.NotifyRepo
}

// NewFanoutRepo combines several sinks
func NewFanoutRepo(sinks ...repo.NotifyRepo) repo.NotifyRepo {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &fanoutRepo{sinks: sinks}
}

// SendText returns the joined errors of all failed sinks
func (r *fanoutRepo) SendText(ctx context.Context, text string) error {
	var errs []error
	for _, s := range r.sinks {
		if err := s.SendText(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

