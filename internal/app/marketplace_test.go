package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/marketplace-items/internal/config"
	"github.com/samvad-hq/marketplace-items/internal/domain"
	"github.com/samvad-hq/marketplace-items/internal/seed"
	"github.com/samvad-hq/marketplace-items/internal/storage"
	"github.com/samvad-hq/marketplace-items/pkg/items"
	"github.com/samvad-hq/marketplace-items/pkg/itemstest"
	"github.com/samvad-hq/marketplace-items/pkg/publishers"
)

type recordingFanout struct {
	mu     sync.Mutex
	events []publishers.Event
	err    error
	closed bool
}

func (r *recordingFanout) Publish(_ context.Context, evt publishers.Event) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	if r.err != nil {
		return 0, r.err
	}
	return 1, nil
}

func (r *recordingFanout) Size() int { return 1 }

func (r *recordingFanout) Close() error {
	r.closed = true
	return nil
}

func newTestMarketplace(t *testing.T, srv *itemstest.Server, fanout EventPublisher) *Marketplace {
	t.Helper()
	client, err := items.NewClient(srv.BaseURL(), items.WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	store, err := storage.NewStore("bbolt", filepath.Join(t.TempDir(), "journal.db"), storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	m := New(&config.Config{}, client, store, fanout, nil)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestMarketplaceJournalsAndPublishesMutations(t *testing.T) {
	srv := itemstest.NewServer()
	defer srv.Close()
	fanout := &recordingFanout{}
	m := newTestMarketplace(t, srv, fanout)
	ctx := context.Background()

	created, err := m.CreateItem(ctx, items.Item{Product: "Aluminum Cans", Quantity: 50})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	created.Quantity = 40
	if _, err := m.UpdateItem(ctx, created.ID, created); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if err := m.DeleteItem(ctx, created.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	history, err := m.History(0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	want := []domain.Action{domain.ActionDeleted, domain.ActionUpdated, domain.ActionCreated}
	if len(history) != len(want) {
		t.Fatalf("expected %d changes, got %d", len(want), len(history))
	}
	for i, action := range want {
		if history[i].Action != action || history[i].ItemID != created.ID {
			t.Fatalf("history[%d] = %+v", i, history[i])
		}
	}
	if history[1].Item == nil || history[1].Item.Quantity != 40 {
		t.Fatalf("update change missing item: %+v", history[1])
	}

	if len(fanout.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(fanout.events))
	}
	if fanout.events[0].Source != srv.BaseURL() || fanout.events[0].Action != domain.ActionCreated {
		t.Fatalf("unexpected first event %+v", fanout.events[0])
	}
}

func TestMarketplaceReadsAndFailuresAreNotJournaled(t *testing.T) {
	srv := itemstest.NewServer()
	defer srv.Close()
	fanout := &recordingFanout{}
	m := newTestMarketplace(t, srv, fanout)
	ctx := context.Background()

	seeded := srv.Seed(items.Item{Product: "Energizer Battery"})
	if _, err := m.ListItems(ctx); err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if _, err := m.GetItem(ctx, seeded[0].ID); err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if err := m.DeleteItem(ctx, "missing"); !errors.Is(err, items.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	srv.FailWith(http.StatusInternalServerError, "boom")
	if _, err := m.CreateItem(ctx, items.Item{Product: "x"}); err == nil {
		t.Fatalf("expected create failure")
	}

	history, err := m.History(0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 || len(fanout.events) != 0 {
		t.Fatalf("expected no changes, got history=%d events=%d", len(history), len(fanout.events))
	}
}

func TestMarketplacePublishFailureDoesNotFailOperation(t *testing.T) {
	srv := itemstest.NewServer()
	defer srv.Close()
	m := newTestMarketplace(t, srv, &recordingFanout{err: errors.New("broker down")})

	if _, err := m.CreateItem(context.Background(), items.Item{Product: "x"}); err != nil {
		t.Fatalf("CreateItem should succeed despite publish failure: %v", err)
	}
	if history, _ := m.History(0); len(history) != 1 {
		t.Fatalf("expected change journaled, got %d", len(history))
	}
}

func TestMarketplaceSeedJournalsCreates(t *testing.T) {
	srv := itemstest.NewServer()
	defer srv.Close()
	m := newTestMarketplace(t, srv, nil)

	report, err := m.Seed(context.Background(), []seed.Entry{
		{FirstName: "Jane", LastName: "Doe", Product: "Aluminum Cans", Quantity: 50},
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(report.Created) != 1 {
		t.Fatalf("expected 1 created, got %+v", report)
	}
	if history, _ := m.History(0); len(history) != 1 || history[0].Action != domain.ActionCreated {
		t.Fatalf("expected seeded create journaled, got %+v", history)
	}
}

func TestMarketplaceCloseClosesFanout(t *testing.T) {
	srv := itemstest.NewServer()
	defer srv.Close()
	fanout := &recordingFanout{}
	m := newTestMarketplace(t, srv, fanout)

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fanout.closed {
		t.Fatalf("expected fanout closed")
	}
}

func TestNewMarketplaceFromConfig(t *testing.T) {
	srv := itemstest.NewServer()
	defer srv.Close()

	dir := t.TempDir()
	pubFile := filepath.Join(dir, "publishers.yaml")
	raw := "publishers:\n  - id: hook\n    type: http\n    enabled: false\n    http:\n      url: http://localhost:1\n"
	if err := os.WriteFile(pubFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write publishers: %v", err)
	}

	cfg := &config.Config{
		BaseURL:               srv.BaseURL(),
		RequestTimeoutSeconds: 5,
		PublishersFile:        pubFile,
		StorageType:           "bbolt",
		BBoltPath:             filepath.Join(dir, "journal.db"),
		StorageTTLSeconds:     60,
		StorageCleanupSeconds: 60,
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	m, err := NewMarketplace(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewMarketplace: %v", err)
	}
	defer m.Close()

	if m.Client().BaseURL() != srv.BaseURL() {
		t.Fatalf("unexpected base url %s", m.Client().BaseURL())
	}
	if _, err := m.CreateItem(context.Background(), items.Item{Product: "x"}); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if history, _ := m.History(1); len(history) != 1 {
		t.Fatalf("expected journaled change, got %d", len(history))
	}
}

func TestNewMarketplaceRejectsBadConfig(t *testing.T) {
	if _, err := NewMarketplace(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	cfg := &config.Config{BaseURL: "ftp://example.com", StorageTTLSeconds: 1, StorageCleanupSeconds: 1}
	if _, err := NewMarketplace(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}
