package telegram

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultAPIServer is the public Bot API server
const DefaultAPIServer = "https://api.telegram.org/"

// RequestTimeout bounds every Bot API call
const RequestTimeout = 15 * time.Second

// Client sends messages through the Telegram Bot API
type Client struct {
	bot *tgbotapi.BotAPI
}

// NewClient creates a client for token against apiServer (a base URL such as
// DefaultAPIServer or a self-hosted Bot API server). No request is made; use
// Verify to check the token.
func NewClient(token, apiServer string) *Client {
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: RequestTimeout},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(Endpoint(apiServer))
	return &Client{bot: bot}
}

// Endpoint turns a base URL into the library's endpoint template
func Endpoint(apiServer string) string {
	if apiServer == "" {
		apiServer = DefaultAPIServer
	}
	return strings.TrimSuffix(apiServer, "/") + "/bot%s/%s"
}

// Verify calls getMe and remembers the bot account
func (c *Client) Verify() error {
	self, err := c.bot.GetMe()
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	c.bot.Self = self
	return nil
}

// Username returns the bot account name, empty until Verify succeeds
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// SendHTML sends text rendered in HTML parse mode
func (c *Client) SendHTML(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}
