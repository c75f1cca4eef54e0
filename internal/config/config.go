// Package config holds application settings for the industry calculator.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds all tunable settings. HTTP endpoints, fee rates, and
// transfer behavior are explicit here rather than scattered as package
// globals so components can be constructed against test servers.
type Config struct {
	// Remote endpoints.
	ESIBaseURL string `json:"esi_base_url"`
	SDEURL     string `json:"sde_url"`

	// ESI request headers.
	UserAgent string `json:"user_agent"`
	Language  string `json:"language"`

	// Market lookups run against a single reference region.
	// 10000002 is The Forge (Jita).
	MarketRegionID int32 `json:"market_region_id"`

	// The ESI category that contains every blueprint group.
	BlueprintCategoryID int32 `json:"blueprint_category_id"`

	// Default fee rates applied to a new analysis session.
	SalesTaxPercent  float64 `json:"sales_tax_percent"`
	BrokerFeePercent float64 `json:"broker_fee_percent"`

	// Local data layout.
	DataDir string `json:"data_dir"`

	// Transfer tuning.
	DownloadTimeout  time.Duration `json:"download_timeout"`
	DownloadChunkKiB int           `json:"download_chunk_kib"`

	// Remote-API citizenship.
	CrawlRatePerSec   float64 `json:"crawl_rate_per_sec"`
	PriceFetchWorkers int     `json:"price_fetch_workers"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		ESIBaseURL:          "https://esi.evetech.net/latest",
		SDEURL:              "https://www.fuzzwork.co.uk/dump/latest/eve.db.bz2",
		UserAgent:           "eve-neic/1.0 (github.com)",
		Language:            "en",
		MarketRegionID:      10000002,
		BlueprintCategoryID: 9,
		SalesTaxPercent:     7.5,
		BrokerFeePercent:    3.0,
		DataDir:             defaultDataDir(),
		DownloadTimeout:     5 * time.Minute,
		DownloadChunkKiB:    80,
		CrawlRatePerSec:     20,
		PriceFetchWorkers:   8,
	}
}

// DBPath is the reference store location under the data dir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "eve.db")
}

// CacheFilePath is the serialized blueprint list location under the data dir.
func (c *Config) CacheFilePath() string {
	return filepath.Join(c.DataDir, "blueprints.json")
}

// defaultDataDir resolves the per-user application data directory.
// Falls back to the working directory when the OS dir is unavailable.
func defaultDataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "eve-neic")
	}
	wd, _ := os.Getwd()
	return filepath.Join(wd, "data")
}
