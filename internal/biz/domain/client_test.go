package domain

import "testing"

func TestClientCache_EnterThenLeftEmptiesCache(t *testing.T) {
	cache := NewClientCache()

	if _, replaced := cache.OnEnter(EnterEvent{ClientID: 5, Nickname: "Foo"}, false); replaced {
		t.Error("Expected no previous entry")
	}
	entry, ok := cache.OnLeft(5)
	if !ok {
		t.Fatal("Expected entry to be removed")
	}
	if entry.Nickname != "Foo" {
		t.Errorf("Expected nickname 'Foo', got '%s'", entry.Nickname)
	}
	if cache.Len() != 0 {
		t.Errorf("Expected empty cache, got %d entries", cache.Len())
	}
}

func TestClientCache_LeftUnknownDoesNotMutate(t *testing.T) {
	cache := NewClientCache()
	cache.OnEnter(EnterEvent{ClientID: 1, Nickname: "Alice"}, false)

	if _, ok := cache.OnLeft(42); ok {
		t.Error("Expected unknown id to be reported as not found")
	}
	if cache.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", cache.Len())
	}
	if entry, ok := cache.Lookup(1); !ok || entry.Nickname != "Alice" {
		t.Errorf("Existing entry changed: %+v", entry)
	}
}

func TestClientCache_OnEnterReturnsPrevious(t *testing.T) {
	cache := NewClientCache()
	cache.OnEnter(EnterEvent{ClientID: 3, Nickname: "Old"}, false)

	prev, replaced := cache.OnEnter(EnterEvent{ClientID: 3, Nickname: "New"}, true)
	if !replaced || prev.Nickname != "Old" {
		t.Errorf("Expected previous 'Old', got %+v (replaced=%v)", prev, replaced)
	}
	if entry, _ := cache.Lookup(3); entry.Nickname != "New" || !entry.Ignored {
		t.Errorf("Unexpected entry %+v", entry)
	}
}

func TestClientCache_Seed(t *testing.T) {
	cache := NewClientCache()
	records := []ClientRecord{
		{ClientID: 1, Nickname: "Alice"},
		{ClientID: 2, Nickname: "serveradmin", ClientType: ClientTypeQuery},
		{ClientID: 3, Nickname: "MusicBot"},
		{ClientID: 1, Nickname: "Duplicate"},
	}

	inserted := cache.Seed(records, func(r ClientRecord) bool {
		return r.Nickname == "MusicBot"
	})

	if inserted != 2 {
		t.Fatalf("Expected 2 inserted, got %d", inserted)
	}
	if _, ok := cache.Lookup(2); ok {
		t.Error("Query client must not be cached")
	}
	if entry, _ := cache.Lookup(1); entry.Nickname != "Alice" {
		t.Errorf("Expected first row to win, got '%s'", entry.Nickname)
	}
	if entry, _ := cache.Lookup(3); !entry.Ignored {
		t.Error("Expected MusicBot to be marked ignored")
	}
}

func TestClientCache_SeedNilPredicate(t *testing.T) {
	cache := NewClientCache()
	cache.Seed([]ClientRecord{{ClientID: 9, Nickname: "Bob"}}, nil)

	if entry, ok := cache.Lookup(9); !ok || entry.Ignored {
		t.Errorf("Unexpected entry %+v (ok=%v)", entry, ok)
	}
}
