package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/marketplace-items/internal/config"
	"github.com/samvad-hq/marketplace-items/internal/domain"
	"github.com/samvad-hq/marketplace-items/internal/logger"
	"github.com/samvad-hq/marketplace-items/internal/seed"
	"github.com/samvad-hq/marketplace-items/internal/storage"
	"github.com/samvad-hq/marketplace-items/pkg/items"
	"github.com/samvad-hq/marketplace-items/pkg/publishers"
)

// EventPublisher publishes item change events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
	Size() int
	Close() error
}

// Marketplace is the runtime behind the command line. It forwards item
// operations to the remote API and, after every successful mutation, records
// the change in the local journal and publishes it.
type Marketplace struct {
	cfg    *config.Config
	client *items.Client
	store  storage.Store
	fanout EventPublisher
	log    logger.Logger
}

// NewMarketplace builds the runtime from config.
func NewMarketplace(ctx context.Context, cfg *config.Config, log logger.Logger) (*Marketplace, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := items.NewClient(cfg.BaseURL,
		items.WithTimeout(cfg.RequestTimeout),
		items.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("init items client: %w", err)
	}

	fanout, err := loadPublishers(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.DebugObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return New(cfg, client, store, fanout, log), nil
}

// New assembles a Marketplace from already built parts. store and fanout may
// be nil.
func New(cfg *config.Config, client *items.Client, store storage.Store, fanout EventPublisher, log logger.Logger) *Marketplace {
	if log == nil {
		log = logger.NopLogger{}
	}
	if store == nil {
		store, _ = storage.NewStore("none", "", storage.Options{})
	}
	if fanout == nil {
		fanout = publishers.NewFanout(nil)
	}
	return &Marketplace{cfg: cfg, client: client, store: store, fanout: fanout, log: log}
}

// loadPublishers builds the enabled publishers. An empty path means none.
func loadPublishers(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.DebugObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Client exposes the underlying items client.
func (m *Marketplace) Client() *items.Client { return m.client }

// ListItems returns every item.
func (m *Marketplace) ListItems(ctx context.Context) ([]items.Item, error) {
	return m.client.ListItems(ctx)
}

// GetItem returns the item with id.
func (m *Marketplace) GetItem(ctx context.Context, id string) (items.Item, error) {
	return m.client.GetItem(ctx, id)
}

// CreateItem creates item and records the change.
func (m *Marketplace) CreateItem(ctx context.Context, item items.Item) (items.Item, error) {
	created, err := m.client.CreateItem(ctx, item)
	if err != nil {
		return items.Item{}, err
	}
	m.afterChange(ctx, domain.NewChange(domain.ActionCreated, created.ID, &created))
	return created, nil
}

// UpdateItem replaces the item with id and records the change.
func (m *Marketplace) UpdateItem(ctx context.Context, id string, item items.Item) (items.Item, error) {
	updated, err := m.client.UpdateItem(ctx, id, item)
	if err != nil {
		return items.Item{}, err
	}
	m.afterChange(ctx, domain.NewChange(domain.ActionUpdated, id, &updated))
	return updated, nil
}

// DeleteItem removes the item with id and records the change.
func (m *Marketplace) DeleteItem(ctx context.Context, id string) error {
	if err := m.client.DeleteItem(ctx, id); err != nil {
		return err
	}
	m.afterChange(ctx, domain.NewChange(domain.ActionDeleted, id, nil))
	return nil
}

// History returns the most recent journaled changes, newest first.
func (m *Marketplace) History(limit int) ([]domain.Change, error) {
	return m.store.Recent(limit)
}

// Seed creates the entries that are missing remotely. Created items go
// through the same journal and publish path as CreateItem.
func (m *Marketplace) Seed(ctx context.Context, entries []seed.Entry) (seed.Report, error) {
	var delay time.Duration
	if m.cfg != nil {
		delay = m.cfg.SeedDelay
	}
	return seed.NewSeeder(m, delay, m.log).Run(ctx, entries)
}

// afterChange journals and publishes a change. Failures are logged only: the
// remote mutation already succeeded.
func (m *Marketplace) afterChange(ctx context.Context, change domain.Change) {
	if err := m.store.Record(change); err != nil {
		m.log.ErrorObj("journal record failed", "journal_error", map[string]any{
			"action":  change.Action,
			"item_id": change.ItemID,
			"error":   err.Error(),
		})
	}

	if m.fanout.Size() == 0 {
		return
	}
	evt := publishers.NewEvent(m.client.BaseURL(), change)
	delivered, err := m.fanout.Publish(ctx, evt)
	if err != nil {
		m.log.ErrorObj("publish change failed", "publish_error", map[string]any{
			"action":    change.Action,
			"item_id":   change.ItemID,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	m.log.DebugObj("change published", "publish_result", map[string]any{
		"action":    change.Action,
		"item_id":   change.ItemID,
		"delivered": delivered,
	})
}

// Close releases publishers and the journal.
func (m *Marketplace) Close() error {
	if m == nil {
		return nil
	}
	var errs []error
	if err := m.fanout.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publishers: %w", err))
	}
	if err := m.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}
