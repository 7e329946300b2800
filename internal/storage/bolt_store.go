package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/marketplace-items/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	changeBucket     = "changes"
	expiryValueBytes = 8
	keyBytes         = 16
)

// boltStore implements a Store backed by BoltDB.
//
// Keys are the change timestamp (unix nanos) followed by a bucket sequence,
// both big endian, so cursor order is chronological. Values are an 8 byte
// expiry (unix seconds) followed by the JSON encoded change.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	entryTTL        time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(changeBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		entryTTL:        opts.EntryTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Record appends change to the journal.
func (b *boltStore) Record(change domain.Change) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}
	if change.OccurredAt.IsZero() {
		change.OccurredAt = now.UTC()
	}

	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(changeBucket))
		if bucket == nil {
			return fmt.Errorf("change bucket missing")
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}

		key := make([]byte, keyBytes)
		binary.BigEndian.PutUint64(key[:8], uint64(change.OccurredAt.UnixNano()))
		binary.BigEndian.PutUint64(key[8:], seq)

		value := make([]byte, expiryValueBytes, expiryValueBytes+len(payload))
		binary.BigEndian.PutUint64(value, uint64(now.Add(b.entryTTL).Unix()))
		value = append(value, payload...)
		return bucket.Put(key, value)
	})
}

// Recent returns up to limit unexpired changes, newest first. A non-positive
// limit returns all of them.
func (b *boltStore) Recent(limit int) ([]domain.Change, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := b.now()
	var out []domain.Change
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(changeBucket))
		if bucket == nil {
			return fmt.Errorf("change bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				continue
			}
			var change domain.Change
			if err := json.Unmarshal(v[expiryValueBytes:], &change); err != nil {
				return fmt.Errorf("decode change %x: %w", k, err)
			}
			out = append(out, change)
			if limit > 0 && len(out) >= limit {
				return nil
			}
		}
		return nil
	})
	return out, err
}

// maybeCleanupExpired removes expired entries on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(changeBucket))
		if bucket == nil {
			return fmt.Errorf("change bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				deleted := append([]byte(nil), k...)
				if err := cursor.Delete(); err != nil {
					return err
				}
				// Next after Delete can skip an entry; reposition instead.
				k, v = cursor.Seek(deleted)
				continue
			}
			k, v = cursor.Next()
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeExpiry decodes the expiry time from the stored value prefix.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
