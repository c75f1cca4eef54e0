// Package esi talks to the EVE Swagger Interface: the paginated universe
// catalog endpoints and the regional market order endpoint.
package esi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"eve-neic/internal/config"
)

// Client is a concurrency-bounded ESI HTTP client. ESI tolerates bursts
// but penalizes error floods, so all requests share one semaphore.
type Client struct {
	cfg     *config.Config
	http    *http.Client
	sem     chan struct{}
	workers int
	prices  singleflight.Group
}

// NewClient creates an ESI client from the given config.
func NewClient(cfg *config.Config) *Client {
	workers := cfg.PriceFetchWorkers
	if workers < 1 {
		workers = 1
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 30 * time.Second},
		sem:     make(chan struct{}, workers),
		workers: workers,
	}
}

// GetJSON fetches an ESI path (relative to the configured base URL) and
// decodes the JSON response into dst.
func (c *Client) GetJSON(ctx context.Context, path string, dst interface{}) error {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.sem }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ESIBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", c.cfg.Language)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ESI %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}
