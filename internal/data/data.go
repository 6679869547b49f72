package data

import (
	"context"

	"github.com/jimsnab/go-lane"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/repo"
	"github.com/tsnotify/ts-notify-bridge/internal/conf"
	"github.com/tsnotify/ts-notify-bridge/internal/infra/feishu"
	"github.com/tsnotify/ts-notify-bridge/internal/infra/telegram"
)

// Repositories contains all repositories
type Repositories struct {
	Query   repo.QueryRepo
	Notify  repo.NotifyRepo
	History repo.HistoryRepo // nil when the event log is disabled
}

// NewRepositories connects to the query server and builds the sinks and
// the optional event log. On error everything opened so far is closed.
func NewRepositories(ctx context.Context, l lane.Lane, cfg *conf.Config) (*Repositories, error) {
	notify := NewNotifyRepo(l, cfg)

	var history repo.HistoryRepo
	var err error
	if cfg.History.DBPath != "" {
		history, err = NewHistoryRepo(cfg.History.DBPath)
		if err != nil {
			return nil, err
		}
		l.Infof("event history: %s", cfg.History.DBPath)
	}

	query, err := OpenQueryRepo(ctx, l, QueryOptions{
		Host:     cfg.RawQuery.Server,
		Port:     cfg.RawQuery.Port,
		User:     cfg.RawQuery.User,
		Password: cfg.RawQuery.Password,
		ServerID: cfg.Server.ServerID,

		ReadTimeout: cfg.Misc.ReadTimeoutDuration(),
	})
	if err != nil {
		if history != nil {
			history.Close()
		}
		return nil, err
	}

	return &Repositories{
		Query:   query,
		Notify:  notify,
		History: history,
	}, nil
}

// NewNotifyRepo builds the notification sink from the configured
// credentials: Telegram, Feishu, both, or a discarding sink. An unreachable
// sink does not fail startup; its delivery errors are logged by the notifier.
func NewNotifyRepo(l lane.Lane, cfg *conf.Config) repo.NotifyRepo {
	var sinks []repo.NotifyRepo

	if cfg.Telegram.APIKey != "" {
		client := telegram.NewClient(cfg.Telegram.APIKey, cfg.Telegram.APIServer)
		if err := client.Verify(); err != nil {
			l.Warnf("telegram sink unverified, sending anyway: %v", err)
		} else {
			l.Infof("telegram sink: @%s -> %d", client.Username(), cfg.Telegram.Target)
		}
		sinks = append(sinks, NewTelegramRepo(client, cfg.Telegram.Target))
	}

	if cfg.Feishu.Enabled() {
		client := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
		l.Infof("feishu sink: chat %s", cfg.Feishu.ChatID)
		sinks = append(sinks, NewFeishuRepo(client, cfg.Feishu.ChatID))
	}

	if len(sinks) == 0 {
		return NewDiscardRepo(l)
	}
	return NewFanoutRepo(sinks...)
}
