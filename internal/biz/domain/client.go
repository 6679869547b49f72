package domain

// ClientTypeQuery marks a privileged ServerQuery account in the client listing.
const ClientTypeQuery = 1

// ServerQueryIdentifier is the unique identifier every query login enters with.
const ServerQueryIdentifier = "ServerQuery"

// ClientRecord is one row of the connected-client listing
type ClientRecord struct {
	ClientID         int64
	ChannelID        int64
	ClientDatabaseID int64
	ClientType       int64
	Nickname         string
}

// IsQueryClient reports whether the record is a privileged/system account
func (r *ClientRecord) IsQueryClient() bool {
	return r.ClientType == ClientTypeQuery
}

// EnterEvent is a decoded notifycliententerview line
type EnterEvent struct {
	ClientID         int64  `query:"clid"`
	Nickname         string `query:"client_nickname"`
	UniqueIdentifier string `query:"client_unique_identifier"`
	Country          string `query:"client_country,optional"`
}

// LeftEvent is a decoded notifyclientleftview line
type LeftEvent struct {
	ClientID int64  `query:"clid"`
	Reason   string `query:"reasonmsg,optional"`
}

// ClientEntry is the cached state of a connected client
type ClientEntry struct {
	Nickname string
	Ignored  bool // excluded from notifications
}

// ClientCache maps session-assigned client ids to cached entries.
// It is not safe for concurrent use; the observer owns it.
type ClientCache struct {
	entries map[int64]ClientEntry
}

// NewClientCache creates an empty cache
func NewClientCache() *ClientCache {
	return &ClientCache{entries: make(map[int64]ClientEntry)}
}

// Seed bulk-populates the cache from a listing. Query accounts are skipped, as are
// repeated ids (first row wins). ignored decides the Ignored flag of each entry.
// Returns the number of entries inserted.
func (c *ClientCache) Seed(records []ClientRecord, ignored func(ClientRecord) bool) int {
	inserted := 0
	for _, r := range records {
		if r.IsQueryClient() {
			continue
		}
		if _, ok := c.entries[r.ClientID]; ok {
			continue
		}
		c.entries[r.ClientID] = ClientEntry{
			Nickname: r.Nickname,
			Ignored:  ignored != nil && ignored(r),
		}
		inserted++
	}
	return inserted
}

// OnEnter records a client and returns the entry it replaced, if any
func (c *ClientCache) OnEnter(ev EnterEvent, ignored bool) (ClientEntry, bool) {
	prev, ok := c.entries[ev.ClientID]
	c.entries[ev.ClientID] = ClientEntry{Nickname: ev.Nickname, Ignored: ignored}
	return prev, ok
}

// OnLeft removes a client and returns the removed entry. Unknown ids leave the
// cache untouched.
func (c *ClientCache) OnLeft(clientID int64) (ClientEntry, bool) {
	entry, ok := c.entries[clientID]
	if ok {
		delete(c.entries, clientID)
	}
	return entry, ok
}

// Lookup returns the entry for a client id
func (c *ClientCache) Lookup(clientID int64) (ClientEntry, bool) {
	entry, ok := c.entries[clientID]
	return entry, ok
}

// Len returns the number of cached clients
func (c *ClientCache) Len() int {
	return len(c.entries)
}
