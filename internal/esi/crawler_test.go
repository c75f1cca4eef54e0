package esi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"eve-neic/internal/config"
)

// newCatalogServer serves a tiny blueprint category: group 10 with two
// types (one unpublished), group 11 permanently failing, group 12 with one
// type.
func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/universe/categories/9/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Blueprint","groups":[10,11,12]}`)
	})
	mux.HandleFunc("/universe/groups/10/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Frigate Blueprints","types":[1,2]}`)
	})
	mux.HandleFunc("/universe/groups/11/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/universe/groups/12/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Cruiser Blueprints","types":[3]}`)
	})
	mux.HandleFunc("/universe/types/1/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Rifter Blueprint","description":"makes a Rifter","published":true}`)
	})
	mux.HandleFunc("/universe/types/2/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Secret Blueprint","description":"","published":false}`)
	})
	mux.HandleFunc("/universe/types/3/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Stabber Blueprint","description":"makes a Stabber","published":true}`)
	})
	return httptest.NewServer(mux)
}

func crawlerConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.ESIBaseURL = baseURL
	cfg.CrawlRatePerSec = 10000 // no throttling in tests
	return cfg
}

func TestCrawler_Refresh(t *testing.T) {
	srv := newCatalogServer(t)
	defer srv.Close()

	cfg := crawlerConfig(srv.URL)
	cr := NewCrawler(NewClient(cfg), cfg)

	var progress []CrawlProgress
	list, err := cr.Refresh(context.Background(), func(p CrawlProgress) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// Group 11 failed and was skipped; type 2 is unpublished.
	if len(list) != 2 {
		t.Fatalf("Refresh len = %d, want 2", len(list))
	}
	if list[0].TypeID != 1 || list[0].Name != "Rifter Blueprint" || list[0].GroupName != "Frigate Blueprints" {
		t.Errorf("list[0] = %+v", list[0])
	}
	if list[1].TypeID != 3 || list[1].GroupName != "Cruiser Blueprints" {
		t.Errorf("list[1] = %+v", list[1])
	}
	for _, bp := range list {
		if bp.ProductQuantity != 1 {
			t.Errorf("blueprint %d ProductQuantity = %d, want 1", bp.TypeID, bp.ProductQuantity)
		}
	}

	if len(progress) != 2 {
		t.Fatalf("progress events = %d, want 2", len(progress))
	}
	for i, p := range progress {
		if p.Added != i+1 {
			t.Errorf("progress[%d].Added = %d, want %d", i, p.Added, i+1)
		}
	}
}

func TestCrawler_CategoryFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := crawlerConfig(srv.URL)
	cr := NewCrawler(NewClient(cfg), cfg)

	if _, err := cr.Refresh(context.Background(), nil); err == nil {
		t.Fatal("Refresh should fail when the category fetch fails")
	}
}

func TestCrawler_ContextCancel(t *testing.T) {
	srv := newCatalogServer(t)
	defer srv.Close()

	cfg := crawlerConfig(srv.URL)
	cr := NewCrawler(NewClient(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := cr.Refresh(ctx, nil); err == nil {
		t.Fatal("Refresh should fail with a canceled context")
	}
}
