package tagging

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/store"
)

// scanner periodically sweeps the store for untagged items whose creation
// events were missed, typically ones stranded by a crash or a shutdown, and
// feeds them back into the collector.
type scanner struct {
	items  store.ItemRepository
	feed   func(tenantID core.TenantID, itemID core.ItemID) error
	cfg    *Config
	logger *slog.Logger
}

func newScanner(items store.ItemRepository, feed func(core.TenantID, core.ItemID) error, cfg *Config, logger *slog.Logger) *scanner {
	return &scanner{
		items:  items,
		feed:   feed,
		cfg:    cfg,
		logger: logger.With("component", "scanner"),
	}
}

// run sweeps at the configured interval until the context is cancelled.
// A zero interval disables scanning entirely.
func (s *scanner) run(ctx context.Context) {
	if s.cfg.ScanInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Error("scan sweep failed", "error", err)
			}
		}
	}
}

// sweep feeds every tenant's untagged backlog into the collector. The
// collector's dedup makes re-offering already buffered items harmless. A
// failed offer is logged and skipped; the item stays untagged for the next
// sweep.
func (s *scanner) sweep(ctx context.Context) error {
	tenants, err := s.items.ListTenants(ctx)
	if err != nil {
		return err
	}

	found := 0
	for _, tenant := range tenants {
		items, err := s.items.ListItemsByStatus(ctx, tenant, core.TagStatusUntagged, s.cfg.MaxCohortSize)
		if err != nil {
			s.logger.Error("failed to list untagged items", "tenantId", tenant, "error", err)
			continue
		}
		for _, item := range items {
			if err := s.feed(tenant, item.Id); err != nil {
				s.logger.Warn("failed to re-offer untagged item", "tenantId", tenant, "itemId", item.Id, "error", err)
				continue
			}
			found++
		}
	}
	if found > 0 {
		s.logger.Info("scan recovered untagged items", "items", found)
	}
	return nil
}
