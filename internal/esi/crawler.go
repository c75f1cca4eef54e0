package esi

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"eve-neic/internal/config"
	"eve-neic/internal/logger"
	"eve-neic/internal/sde"
)

// CrawlProgress is emitted once per blueprint materialized during a
// catalog crawl. Added counts monotonically upward.
type CrawlProgress struct {
	Added int
	Name  string
}

// Crawler walks the paginated ESI catalog (category -> groups -> types)
// to assemble the blueprint list when no bulk dataset is available. A
// crawl touches a few thousand type endpoints, so calls are rate limited.
type Crawler struct {
	client  *Client
	limiter *rate.Limiter
}

// NewCrawler creates a Crawler sharing the given ESI client.
func NewCrawler(client *Client, cfg *config.Config) *Crawler {
	perSec := cfg.CrawlRatePerSec
	if perSec <= 0 {
		perSec = 10
	}
	return &Crawler{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

type categoryResponse struct {
	Name   string  `json:"name"`
	Groups []int32 `json:"groups"`
}

type groupResponse struct {
	Name  string  `json:"name"`
	Types []int32 `json:"types"`
}

type typeResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Published   bool   `json:"published"`
}

// Refresh crawls the blueprint category and returns every published
// blueprint found. A failed group or type fetch is logged and skipped;
// only a failure on the root category aborts the crawl. The returned
// records carry no product or time data — the catalog endpoints do not
// expose manufacturing activities.
func (cr *Crawler) Refresh(ctx context.Context, progress func(CrawlProgress)) ([]sde.BlueprintRecord, error) {
	if err := cr.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var cat categoryResponse
	catPath := fmt.Sprintf("/universe/categories/%d/", cr.client.cfg.BlueprintCategoryID)
	if err := cr.client.GetJSON(ctx, catPath, &cat); err != nil {
		return nil, fmt.Errorf("fetch blueprint category: %w", err)
	}

	var list []sde.BlueprintRecord
	visited := make(map[int32]bool, len(cat.Groups))

	for _, groupID := range cat.Groups {
		if visited[groupID] {
			continue
		}
		visited[groupID] = true

		if err := cr.limiter.Wait(ctx); err != nil {
			return list, err
		}
		var group groupResponse
		if err := cr.client.GetJSON(ctx, fmt.Sprintf("/universe/groups/%d/", groupID), &group); err != nil {
			logger.Warn("Crawl", fmt.Sprintf("Group %d failed, skipping: %v", groupID, err))
			continue
		}

		for _, typeID := range group.Types {
			if err := cr.limiter.Wait(ctx); err != nil {
				return list, err
			}
			var t typeResponse
			if err := cr.client.GetJSON(ctx, fmt.Sprintf("/universe/types/%d/", typeID), &t); err != nil {
				logger.Warn("Crawl", fmt.Sprintf("Type %d failed, skipping: %v", typeID, err))
				continue
			}
			if !t.Published {
				continue
			}
			list = append(list, sde.BlueprintRecord{
				TypeID:          typeID,
				Name:            t.Name,
				GroupID:         groupID,
				GroupName:       group.Name,
				Description:     t.Description,
				ProductQuantity: 1,
			})
			if progress != nil {
				progress(CrawlProgress{Added: len(list), Name: t.Name})
			}
		}
	}

	logger.Success("Crawl", fmt.Sprintf("Crawled %d blueprints across %d groups", len(list), len(visited)))
	return list, nil
}
