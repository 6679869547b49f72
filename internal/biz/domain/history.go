package domain

import "time"

// HistoryKind tags a recorded event
type HistoryKind string

const (
	HistoryKindEnter HistoryKind = "enter"
	HistoryKindLeft  HistoryKind = "left"
)

// HistoryEntry is one relayed notification as stored in the event log
type HistoryEntry struct {
	ID         int64
	Kind       HistoryKind
	ClientID   int64
	Nickname   string
	UniqueID   string
	Country    string
	Reason     string
	OccurredAt time.Time
}

// NewHistoryEntry converts a relayed notification. ok is false for Terminate.
func NewHistoryEntry(n Notification) (entry HistoryEntry, ok bool) {
	switch v := n.(type) {
	case EnterNotification:
		return HistoryEntry{
			Kind:       HistoryKindEnter,
			ClientID:   v.ClientID,
			Nickname:   v.Nickname,
			UniqueID:   v.UniqueID,
			Country:    v.Country,
			OccurredAt: v.Time,
		}, true
	case LeftNotification:
		return HistoryEntry{
			Kind:       HistoryKindLeft,
			ClientID:   v.ClientID,
			Nickname:   v.Nickname,
			Reason:     v.Reason,
			OccurredAt: v.Time,
		}, true
	}
	return HistoryEntry{}, false
}
