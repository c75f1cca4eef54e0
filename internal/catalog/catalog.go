// Package catalog is the query façade over the blueprint reference data.
// It decides between serving the local cache file, refreshing from the
// bulk SDE, or falling back to a live catalog crawl.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"eve-neic/internal/config"
	"eve-neic/internal/esi"
	"eve-neic/internal/logger"
	"eve-neic/internal/sde"
)

// BulkLoader ensures the SDE reference store exists locally.
type BulkLoader interface {
	EnsureAvailable(ctx context.Context, progress sde.ProgressFunc) error
}

// Crawler assembles the blueprint list from the live catalog API.
type Crawler interface {
	Refresh(ctx context.Context, progress func(esi.CrawlProgress)) ([]sde.BlueprintRecord, error)
}

// ReferenceStore answers structured queries against the local SDE.
type ReferenceStore interface {
	Blueprints(ctx context.Context) ([]sde.BlueprintRecord, error)
	MaterialsFor(ctx context.Context, blueprintID int32) ([]sde.MaterialRequirement, error)
}

// ProgressFunc receives human-readable status lines for long refreshes.
// Failures are narrated through the same channel in place of progress.
type ProgressFunc func(status string)

// Catalog serves blueprint queries, refreshing the local cache on demand.
// The cache file is single-writer: only the refresh path currently running
// replaces it, atomically.
type Catalog struct {
	cfg     *config.Config
	loader  BulkLoader
	crawler Crawler

	mu        sync.Mutex
	store     ReferenceStore
	openStore func() (ReferenceStore, error)
}

// New creates a Catalog wired to the given refresh paths.
func New(cfg *config.Config, loader BulkLoader, crawler Crawler) *Catalog {
	return &Catalog{
		cfg:     cfg,
		loader:  loader,
		crawler: crawler,
		openStore: func() (ReferenceStore, error) {
			return sde.Open(cfg.DBPath())
		},
	}
}

// ListBlueprints returns the blueprint list. With forceRefresh false and a
// readable cache file present, the cached list is returned without any
// network traffic. Otherwise the SDE path is refreshed (crawler fallback)
// and the cache file replaced with the fresh list.
func (c *Catalog) ListBlueprints(ctx context.Context, forceRefresh bool, progress ProgressFunc) ([]sde.BlueprintRecord, error) {
	if !forceRefresh {
		if list, ok := c.readCache(); ok {
			return list, nil
		}
	}

	list, err := c.refresh(ctx, progress)
	if err != nil {
		return nil, err
	}
	if err := c.writeCache(list); err != nil {
		return nil, err
	}
	return list, nil
}

// refresh prefers the bulk SDE; when it cannot be obtained or queried the
// crawler takes over as the legacy path.
func (c *Catalog) refresh(ctx context.Context, progress ProgressFunc) ([]sde.BlueprintRecord, error) {
	report := func(status string) {
		if progress != nil {
			progress(status)
		}
	}

	list, err := c.refreshFromSDE(ctx, report)
	if err == nil {
		return list, nil
	}
	logger.Warn("Catalog", fmt.Sprintf("SDE path unavailable (%v), crawling ESI catalog", err))
	report("Refreshing blueprints from ESI (this may take a while)...")

	list, err = c.crawler.Refresh(ctx, func(p esi.CrawlProgress) {
		report(fmt.Sprintf("Fetched %d blueprints (%s)", p.Added, p.Name))
	})
	if err != nil {
		report(fmt.Sprintf("Catalog crawl failed: %v", err))
		return nil, fmt.Errorf("crawl catalog: %w", err)
	}
	report(fmt.Sprintf("Refreshed %d blueprints.", len(list)))
	return list, nil
}

func (c *Catalog) refreshFromSDE(ctx context.Context, report ProgressFunc) ([]sde.BlueprintRecord, error) {
	err := c.loader.EnsureAvailable(ctx, func(p sde.Progress) {
		switch p.Stage {
		case "download":
			if p.TotalBytes > 0 {
				report(fmt.Sprintf("Downloading SDE: %.1f%% (%dMB / %dMB)",
					float64(p.BytesRead)/float64(p.TotalBytes)*100,
					p.BytesRead>>20, p.TotalBytes>>20))
			} else {
				report(fmt.Sprintf("Downloading SDE: %dMB", p.BytesRead>>20))
			}
		case "extract":
			report("Extracting the database...")
		case "ready":
			report("SDE Database Ready!")
		}
	})
	if err != nil {
		return nil, err
	}

	store, err := c.ensureStore()
	if err != nil {
		return nil, err
	}
	list, err := store.Blueprints(ctx)
	if err != nil {
		return nil, err
	}
	report(fmt.Sprintf("Loaded %d blueprints.", len(list)))
	return list, nil
}

// MaterialsFor returns the manufacturing material list of one blueprint.
// Store and query failures degrade to an empty list (logged); callers
// treating "unknown" differently from "no materials" must check the store
// themselves.
func (c *Catalog) MaterialsFor(ctx context.Context, blueprintID int32) []sde.MaterialRequirement {
	store, err := c.ensureStore()
	if err != nil {
		logger.Warn("Catalog", fmt.Sprintf("Reference store unavailable: %v", err))
		return nil
	}
	mats, err := store.MaterialsFor(ctx, blueprintID)
	if err != nil {
		logger.Warn("Catalog", fmt.Sprintf("Materials query for %d failed: %v", blueprintID, err))
		return nil
	}
	return mats
}

// ensureStore lazily opens the SDE store, reusing one handle.
func (c *Catalog) ensureStore() (ReferenceStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil {
		return c.store, nil
	}
	store, err := c.openStore()
	if err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}

func (c *Catalog) readCache() ([]sde.BlueprintRecord, bool) {
	data, err := os.ReadFile(c.cfg.CacheFilePath())
	if err != nil {
		return nil, false
	}
	var list []sde.BlueprintRecord
	if err := json.Unmarshal(data, &list); err != nil {
		// A corrupt cache is treated as absent and rebuilt on refresh.
		logger.Warn("Catalog", fmt.Sprintf("Unreadable cache file, ignoring: %v", err))
		return nil, false
	}
	return list, true
}

// writeCache replaces the cache file atomically so a concurrent reader
// never observes a partially written list.
func (c *Catalog) writeCache(list []sde.BlueprintRecord) error {
	path := c.cfg.CacheFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish cache: %w", err)
	}
	return nil
}

// Group is a display grouping of blueprints sharing a group name.
type Group struct {
	Name       string                `json:"name"`
	Blueprints []sde.BlueprintRecord `json:"blueprints"`
}

// GroupBlueprints buckets a blueprint list by group name, sorted by name.
func GroupBlueprints(list []sde.BlueprintRecord) []Group {
	byName := make(map[string][]sde.BlueprintRecord)
	for _, bp := range list {
		byName[bp.GroupName] = append(byName[bp.GroupName], bp)
	}
	groups := make([]Group, 0, len(byName))
	for name, bps := range byName {
		groups = append(groups, Group{Name: name, Blueprints: bps})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups
}
