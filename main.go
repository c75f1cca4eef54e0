package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"eve-neic/internal/api"
	"eve-neic/internal/catalog"
	"eve-neic/internal/config"
	"eve-neic/internal/esi"
	"eve-neic/internal/logger"
	"eve-neic/internal/sde"
)

var version = "dev"

func main() {
	port := flag.Int("port", 13380, "HTTP server port")
	dataDir := flag.String("data-dir", "", "override data directory")
	warm := flag.Bool("warm", true, "prepare the reference data in the background on startup")
	flag.Parse()

	logger.Banner(version)

	cfg := config.Default()
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error("Init", fmt.Sprintf("Failed to create data dir: %v", err))
		os.Exit(1)
	}

	esiClient := esi.NewClient(cfg)
	loader := sde.NewLoader(cfg)
	crawler := esi.NewCrawler(esiClient, cfg)
	cat := catalog.New(cfg, loader, crawler)

	srv := api.NewServer(cfg, cat, esiClient)

	// Prepare the blueprint list in the background so the first query is
	// instant when the cache or SDE is already on disk.
	if *warm {
		go func() {
			list, err := cat.ListBlueprints(context.Background(), false, func(status string) {
				srv.SetStatus(status)
				logger.Info("Catalog", status)
			})
			if err != nil {
				srv.SetStatus(fmt.Sprintf("Blueprint load failed: %v", err))
				logger.Error("Catalog", fmt.Sprintf("Load failed: %v", err))
				return
			}
			srv.SetStatus(fmt.Sprintf("Loaded %d blueprints.", len(list)))
			logger.Section("Catalog Statistics")
			logger.Stats("Blueprints", len(list))
			logger.Stats("Groups", len(catalog.GroupBlueprints(list)))
		}()
	}

	addr := fmt.Sprintf("127.0.0.1:%d", *port)
	logger.Server(addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}
