package domain

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/biter777/countries"
)

// TimeLayout renders notification timestamps (local time)
const TimeLayout = "2006-01-02 15:04:05"

// Notification is a message on the observer -> notifier queue. The set of
// implementations is closed: EnterNotification, LeftNotification and Terminate.
type Notification interface {
	notification()
}

// EnterNotification announces a client that joined
type EnterNotification struct {
	Time     time.Time
	ClientID int64
	UniqueID string
	Nickname string
	Country  string
}

// LeftNotification announces a client that left
type LeftNotification struct {
	Time     time.Time
	ClientID int64
	Nickname string
	Reason   string
}

// Terminate tells the notifier to stop. It is never formatted.
type Terminate struct{}

func (EnterNotification) notification() {}
func (LeftNotification) notification()  {}
func (Terminate) notification()          {}

// NewEnterNotification builds the notification for an enter event
func NewEnterNotification(at time.Time, ev EnterEvent) EnterNotification {
	return EnterNotification{
		Time:     at,
		ClientID: ev.ClientID,
		UniqueID: ev.UniqueIdentifier,
		Nickname: ev.Nickname,
		Country:  ev.Country,
	}
}

// NewLeftNotification builds the notification for a leave event using the cached nickname
func NewLeftNotification(at time.Time, ev LeftEvent, nickname string) LeftNotification {
	return LeftNotification{
		Time:     at,
		ClientID: ev.ClientID,
		Nickname: nickname,
		Reason:   ev.Reason,
	}
}

// String formats the message as sink HTML
func (n EnterNotification) String() string {
	return fmt.Sprintf("[%s] <b>%s</b>(<code>%s</code>:%d)[%s] joined",
		n.Time.Local().Format(TimeLayout),
		html.EscapeString(n.Nickname),
		html.EscapeString(n.UniqueID),
		n.ClientID,
		CountryFlag(n.Country),
	)
}

// String formats the message as sink HTML
func (n LeftNotification) String() string {
	prefix := fmt.Sprintf("[%s] <b>%s</b>(%d) left",
		n.Time.Local().Format(TimeLayout),
		html.EscapeString(n.Nickname),
		n.ClientID,
	)
	if n.Reason == "" {
		return prefix
	}
	return fmt.Sprintf("%s (%s)", prefix, html.EscapeString(n.Reason))
}

// CountryFlag renders a 2-letter country code as its flag glyph. Codes that do not
// name a known country are returned as-is.
func CountryFlag(code string) string {
	if len(code) != 2 {
		return code
	}
	upper := strings.ToUpper(code)
	for i := 0; i < 2; i++ {
		if upper[i] < 'A' || upper[i] > 'Z' {
			return code
		}
	}
	if countries.ByName(upper) == countries.Unknown {
		return code
	}

	const regionalIndicatorA = 0x1F1E6
	return string([]rune{
		rune(regionalIndicatorA + int(upper[0]-'A')),
		rune(regionalIndicatorA + int(upper[1]-'A')),
	})
}
