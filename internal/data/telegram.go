package data

import (
	"context"

	"github.com/tsnotify/ts-notify-bridge/internal/biz/repo"
	"github.com/tsnotify/ts-notify-bridge/internal/infra/telegram"
)

// telegramRepo delivers notifications to a Telegram chat in HTML parse mode
type telegramRepo struct {
	client *telegram.Client
	target int64
}

// NewTelegramRepo creates a new Telegram notification repository
func NewTelegramRepo(client *telegram.Client, target int64) repo.NotifyRepo {
	return &telegramRepo{client: client, target: target}
}

// SendText sends the message to the configured chat
func (r *telegramRepo) SendText(ctx context.Context, text string) error {
	return r.client.SendHTML(r.target, text)
}
