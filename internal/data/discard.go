package data

import (
	"context"
	"sync"

	"github.com/jimsnab/go-lane"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/repo"
)

// discardRepo drops every message. Used when no sink credentials are configured.
type discardRepo struct {
	l    lane.Lane
	once sync.Once
}

// NewDiscardRepo creates a sink that sends nothing
func NewDiscardRepo(l lane.Lane) repo.NotifyRepo {
	return &discardRepo{l: l}
}

func (r *discardRepo) SendText(ctx context.Context, text string) error {
	r.once.Do(func() {
		r.l.Warnf("no notification sink configured, dropping messages")
	})
	r.l.Debugf("dropped: %s", text)
	return nil
}
