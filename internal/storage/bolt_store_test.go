package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/marketplace-items/internal/domain"
	"github.com/samvad-hq/marketplace-items/pkg/items"
	bolt "go.etcd.io/bbolt"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "journal.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreRecordsChangesNewestFirst(t *testing.T) {
	store := openTestStore(t, Options{})

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	item := &items.Item{ID: "a", Product: "Cans", Quantity: 50}
	changes := []domain.Change{
		{Action: domain.ActionCreated, ItemID: "a", Item: item, OccurredAt: base},
		{Action: domain.ActionUpdated, ItemID: "a", Item: item, OccurredAt: base.Add(time.Second)},
		{Action: domain.ActionDeleted, ItemID: "a", OccurredAt: base.Add(2 * time.Second)},
	}
	for _, c := range changes {
		if err := store.Record(c); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := store.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(got))
	}
	if got[0].Action != domain.ActionDeleted || got[2].Action != domain.ActionCreated {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[2].Item == nil || got[2].Item.Product != "Cans" || got[2].Item.Quantity != 50 {
		t.Fatalf("item not round-tripped: %+v", got[2].Item)
	}
	if !got[0].OccurredAt.Equal(base.Add(2 * time.Second)) {
		t.Fatalf("unexpected timestamp %v", got[0].OccurredAt)
	}

	limited, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent(2): %v", err)
	}
	if len(limited) != 2 || limited[1].Action != domain.ActionUpdated {
		t.Fatalf("unexpected limited result %+v", limited)
	}
}

func TestBoltStoreKeepsChangesWithSameTimestamp(t *testing.T) {
	store := openTestStore(t, Options{})

	at := time.Now().UTC()
	for _, id := range []string{"a", "b"} {
		if err := store.Record(domain.Change{Action: domain.ActionCreated, ItemID: id, OccurredAt: at}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	got, err := store.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both changes kept, got %d", len(got))
	}
}

func TestBoltStoreExpiresEntries(t *testing.T) {
	store := openTestStore(t, Options{EntryTTL: time.Hour, CleanupInterval: time.Minute})

	now := time.Now()
	store.now = func() time.Time { return now }
	if err := store.Record(domain.Change{Action: domain.ActionCreated, ItemID: "old"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Past the TTL the entry is hidden from reads even before cleanup runs.
	now = now.Add(2 * time.Hour)
	got, err := store.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected expired entry to be hidden, got %+v", got)
	}

	// The next write triggers cleanup and physically removes it.
	if err := store.Record(domain.Change{Action: domain.ActionCreated, ItemID: "new"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	var keys int
	if err := store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(changeBucket)).ForEach(func(_, _ []byte) error {
			keys++
			return nil
		})
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if keys != 1 {
		t.Fatalf("expected expired entry removed, %d keys remain", keys)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Record(domain.Change{ItemID: "x"}); err != nil {
		t.Fatalf("noop store Record: %v", err)
	}
	got, err := store.Recent(10)
	if err != nil || len(got) != 0 {
		t.Fatalf("noop store Recent = %v, %v", got, err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
