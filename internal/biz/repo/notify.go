package repo

import "context"

// NotifyRepo delivers formatted notification text to a configured destination
type NotifyRepo interface {
	// SendText sends an HTML-formatted message
	SendText(ctx context.Context, text string) error
}
