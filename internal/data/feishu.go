package data

import (
	"context"
	"html"
	"strings"

	"github.com/tsnotify/ts-notify-bridge/internal/biz/repo"
	"github.com/tsnotify/ts-notify-bridge/internal/infra/feishu"
)

// feishuRepo delivers notifications to a Feishu chat as rich text
type feishuRepo struct {
	client *feishu.Client
	chatID string
}

// NewFeishuRepo creates a new Feishu notification repository
func NewFeishuRepo(client *feishu.Client, chatID string) repo.NotifyRepo {
	return &feishuRepo{client: client, chatID: chatID}
}

// SendText converts the HTML subset used by notifications into a post message
func (r *feishuRepo) SendText(ctx context.Context, text string) error {
	return r.client.SendRichText(ctx, r.chatID, "", [][]feishu.PostElement{htmlToPostLine(text)})
}

// htmlToPostLine renders <b> as bold and drops other tags, keeping their text
func htmlToPostLine(text string) []feishu.PostElement {
	var line []feishu.PostElement
	var run strings.Builder
	bold := false

	flush := func() {
		if run.Len() == 0 {
			return
		}
		s := html.UnescapeString(run.String())
		run.Reset()
		if bold {
			line = append(line, feishu.TextElement(s, "bold"))
		} else {
			line = append(line, feishu.TextElement(s))
		}
	}

	for text != "" {
		open := strings.IndexByte(text, '<')
		end := -1
		if open >= 0 {
			end = strings.IndexByte(text[open:], '>')
		}
		if open < 0 || end < 0 {
			run.WriteString(text)
			break
		}
		run.WriteString(text[:open])
		switch tag := text[open : open+end+1]; tag {
		case "<b>", "</b>":
			flush()
			bold = tag == "<b>"
		}
		text = text[open+end+1:]
	}
	flush()
	return line
}
