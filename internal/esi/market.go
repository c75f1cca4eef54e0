package esi

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"eve-neic/internal/logger"
)

// marketOrder mirrors the ESI market order response; only the price field
// matters for the lowest-sell lookup.
type marketOrder struct {
	Price decimal.Decimal `json:"price"`
}

// SellPrice returns the lowest currently listed sell price for a type in
// the configured market region. Any failure, and an empty order book,
// resolve to zero: price lookups are best-effort enrichment and never
// abort an analysis. Concurrent lookups for the same type are coalesced.
func (c *Client) SellPrice(ctx context.Context, typeID int32) decimal.Decimal {
	key := fmt.Sprintf("sell:%d", typeID)
	v, _, _ := c.prices.Do(key, func() (interface{}, error) {
		return c.fetchSellPrice(ctx, typeID), nil
	})
	return v.(decimal.Decimal)
}

func (c *Client) fetchSellPrice(ctx context.Context, typeID int32) decimal.Decimal {
	path := fmt.Sprintf("/markets/%d/orders/?order_type=sell&type_id=%d",
		c.cfg.MarketRegionID, typeID)

	var orders []marketOrder
	if err := c.GetJSON(ctx, path, &orders); err != nil {
		logger.Warn("Market", fmt.Sprintf("Price lookup for type %d failed: %v", typeID, err))
		return decimal.Zero
	}
	if len(orders) == 0 {
		return decimal.Zero
	}

	lowest := orders[0].Price
	for _, o := range orders[1:] {
		if o.Price.LessThan(lowest) {
			lowest = o.Price
		}
	}
	return lowest
}

// SellPrices resolves sell prices for a batch of types with bounded
// parallelism. Each lookup is independent and idempotent, so ordering
// does not affect the result; every requested type gets an entry.
func (c *Client) SellPrices(ctx context.Context, typeIDs []int32) map[int32]decimal.Decimal {
	prices := make(map[int32]decimal.Decimal, len(typeIDs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, id := range typeIDs {
		g.Go(func() error {
			p := c.SellPrice(ctx, id)
			mu.Lock()
			prices[id] = p
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return prices
}
