package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/marketplace-items/internal/domain"
)

// Store keeps a local journal of item changes made through this client.
// It is an audit trail only and is never consulted to answer reads.
type Store interface {
	Close() error
	Record(change domain.Change) error
	Recent(limit int) ([]domain.Change, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                        { return nil }
func (noopStore) Record(domain.Change) error          { return nil }
func (noopStore) Recent(int) ([]domain.Change, error) { return nil, nil }
