package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/marketplace-items/internal/logger"
	"github.com/samvad-hq/marketplace-items/pkg/items"
)

// ItemAPI is the subset of item operations the seeder needs.
type ItemAPI interface {
	ListItems(ctx context.Context) ([]items.Item, error)
	CreateItem(ctx context.Context, item items.Item) (items.Item, error)
}

// Report summarizes a seeding pass.
type Report struct {
	Created []items.Item
	Skipped int
}

// Seeder creates seed entries that are missing remotely.
type Seeder struct {
	api   ItemAPI
	delay time.Duration
	log   logger.Logger
}

// NewSeeder builds a seeder. delay is waited between two creates.
func NewSeeder(api ItemAPI, delay time.Duration, log logger.Logger) *Seeder {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Seeder{api: api, delay: delay, log: log}
}

// Run creates every entry whose fingerprint is not already present. Individual
// create failures are collected and do not stop the pass; a failed listing or
// a cancelled context does.
func (s *Seeder) Run(ctx context.Context, entries []Entry) (Report, error) {
	var report Report
	if s == nil || s.api == nil {
		return report, fmt.Errorf("seeder is not initialized")
	}
	if len(entries) == 0 {
		return report, nil
	}

	existing, err := s.api.ListItems(ctx)
	if err != nil {
		return report, fmt.Errorf("list existing items: %w", err)
	}
	seen := make(map[string]struct{}, len(existing)+len(entries))
	for _, it := range existing {
		seen[fingerprint(it)] = struct{}{}
	}

	var errs []error
	for i, e := range entries {
		it := e.Item()
		key := fingerprint(it)
		if _, ok := seen[key]; ok {
			report.Skipped++
			s.log.DebugObj("seed item already present", "seed_skip", map[string]any{
				"product": it.Product,
			})
			continue
		}

		if len(report.Created) > 0 || len(errs) > 0 {
			if err := s.wait(ctx); err != nil {
				return report, errors.Join(append(errs, err)...)
			}
		}

		created, err := s.api.CreateItem(ctx, it)
		if err != nil {
			errs = append(errs, fmt.Errorf("seed item %d (%s): %w", i, it.Product, err))
			s.log.ErrorObj("seed item failed", "seed_error", map[string]any{
				"product": it.Product,
				"error":   err.Error(),
			})
			if ctx.Err() != nil {
				return report, errors.Join(errs...)
			}
			continue
		}
		seen[key] = struct{}{}
		report.Created = append(report.Created, created)
	}

	s.log.InfoObj("seeding completed", "seed_result", map[string]any{
		"created": len(report.Created),
		"skipped": report.Skipped,
		"failed":  len(errs),
	})
	return report, errors.Join(errs...)
}

func (s *Seeder) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
