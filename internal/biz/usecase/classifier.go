package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/jimsnab/go-lane"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/domain"
	"github.com/tsnotify/ts-notify-bridge/internal/infra/serverquery"
)

const (
	enterEventKeyword = "notifycliententerview"
	leftEventKeyword  = "notifyclientleftview"
)

// ClassifierUsecase turns received frames into notifications and keeps the client
// cache in step with the server
type ClassifierUsecase struct {
	l      lane.Lane
	cache  *domain.ClientCache
	ignore map[string]struct{}
}

// NewClassifierUsecase creates a classifier over cache. ignoreList holds nicknames or
// unique identifiers whose joins and leaves are never relayed.
func NewClassifierUsecase(l lane.Lane, cache *domain.ClientCache, ignoreList []string) *ClassifierUsecase {
	ignore := make(map[string]struct{}, len(ignoreList))
	for _, name := range ignoreList {
		ignore[name] = struct{}{}
	}
	return &ClassifierUsecase{l: l, cache: cache, ignore: ignore}
}

// IsIgnored reports whether a client identity is excluded from notification
func (uc *ClassifierUsecase) IsIgnored(uniqueID, nickname string) bool {
	if uniqueID == domain.ServerQueryIdentifier {
		return true
	}
	if _, ok := uc.ignore[uniqueID]; ok {
		return true
	}
	_, ok := uc.ignore[nickname]
	return ok
}

// Seed fills the cache from the initial client listing
func (uc *ClassifierUsecase) Seed(records []domain.ClientRecord) int {
	return uc.cache.Seed(records, func(r domain.ClientRecord) bool {
		return uc.IsIgnored("", r.Nickname)
	})
}

// Classify processes every line of a frame in order, calling emit for each
// notification as soon as it is produced. A recognized event line that fails to
// decode aborts processing with an error.
func (uc *ClassifierUsecase) Classify(frame string, at time.Time, emit func(domain.Notification)) error {
	for _, line := range serverquery.Lines(frame) {
		uc.l.Tracef("%s", line)
		n, ok, err := uc.ClassifyLine(line, at)
		if err != nil {
			return err
		}
		if ok {
			emit(n)
		}
	}
	return nil
}

// ClassifyLine processes a single line. ok is false when the line produces no
// notification (unrecognized, ignored client, or unknown client on leave).
func (uc *ClassifierUsecase) ClassifyLine(line string, at time.Time) (n domain.Notification, ok bool, err error) {
	switch {
	case strings.HasPrefix(line, enterEventKeyword):
		return uc.onEnter(line, at)
	case strings.HasPrefix(line, leftEventKeyword):
		return uc.onLeft(line, at)
	}
	return nil, false, nil
}

func (uc *ClassifierUsecase) onEnter(line string, at time.Time) (domain.Notification, bool, error) {
	var ev domain.EnterEvent
	if err := serverquery.Unmarshal(line, &ev); err != nil {
		return nil, false, fmt.Errorf("decode enter event: %w", err)
	}

	ignored := uc.IsIgnored(ev.UniqueIdentifier, ev.Nickname)
	if prev, replaced := uc.cache.OnEnter(ev, ignored); replaced {
		uc.l.Debugf("client %d re-entered (was %q)", ev.ClientID, prev.Nickname)
	}
	if ignored {
		uc.l.Debugf("ignored client %d (%s) entered", ev.ClientID, ev.Nickname)
		return nil, false, nil
	}
	return domain.NewEnterNotification(at, ev), true, nil
}

func (uc *ClassifierUsecase) onLeft(line string, at time.Time) (domain.Notification, bool, error) {
	var ev domain.LeftEvent
	if err := serverquery.Unmarshal(line, &ev); err != nil {
		return nil, false, fmt.Errorf("decode left event: %w", err)
	}

	entry, ok := uc.cache.OnLeft(ev.ClientID)
	if !ok {
		uc.l.Warnf("can't find client: %d", ev.ClientID)
		return nil, false, nil
	}
	if entry.Ignored {
		return nil, false, nil
	}
	return domain.NewLeftNotification(at, ev, entry.Nickname), true, nil
}
