package config

import (
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.SalesTaxPercent != 7.5 {
		t.Errorf("SalesTaxPercent = %v, want 7.5", cfg.SalesTaxPercent)
	}
	if cfg.BrokerFeePercent != 3.0 {
		t.Errorf("BrokerFeePercent = %v, want 3.0", cfg.BrokerFeePercent)
	}
	if cfg.MarketRegionID != 10000002 {
		t.Errorf("MarketRegionID = %d, want The Forge", cfg.MarketRegionID)
	}
	if cfg.BlueprintCategoryID != 9 {
		t.Errorf("BlueprintCategoryID = %d, want 9", cfg.BlueprintCategoryID)
	}
	if cfg.DownloadChunkKiB != 80 {
		t.Errorf("DownloadChunkKiB = %d, want 80", cfg.DownloadChunkKiB)
	}
	if cfg.DataDir == "" {
		t.Error("DataDir is empty")
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/tmp/neic-test"

	if got := cfg.DBPath(); !strings.HasSuffix(got, "eve.db") {
		t.Errorf("DBPath = %q, want .../eve.db", got)
	}
	if got := cfg.CacheFilePath(); !strings.HasSuffix(got, "blueprints.json") {
		t.Errorf("CacheFilePath = %q, want .../blueprints.json", got)
	}
	if !strings.HasPrefix(cfg.DBPath(), cfg.DataDir) {
		t.Error("DBPath not under DataDir")
	}
}
