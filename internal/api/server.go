// Package api exposes the calculator's query surface over HTTP JSON:
// blueprint listing, per-blueprint materials, price lookup, and the
// economics analysis entry point.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"eve-neic/internal/catalog"
	"eve-neic/internal/config"
	"eve-neic/internal/engine"
	"eve-neic/internal/esi"
	"eve-neic/internal/logger"
	"eve-neic/internal/sde"
)

// Server wires the catalog, price oracle and economics engine behind the
// four collaborator-facing calls.
type Server struct {
	cfg *config.Config
	cat *catalog.Catalog
	esi *esi.Client

	mu     sync.RWMutex
	status string
}

// NewServer creates a Server.
func NewServer(cfg *config.Config, cat *catalog.Catalog, esiClient *esi.Client) *Server {
	return &Server{
		cfg:    cfg,
		cat:    cat,
		esi:    esiClient,
		status: "Ready",
	}
}

// SetStatus records the latest progress/status line (also used by refresh
// paths to narrate failures).
func (s *Server) SetStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Handler returns the HTTP handler with all API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/blueprints", s.handleBlueprints)
	mux.HandleFunc("GET /api/blueprints/{typeID}/materials", s.handleMaterials)
	mux.HandleFunc("GET /api/price/{typeID}", s.handlePrice)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()
	writeJSON(w, map[string]string{"status": status})
}

func (s *Server) handleBlueprints(w http.ResponseWriter, r *http.Request) {
	forceRefresh := r.URL.Query().Get("refresh") == "true"
	grouped := r.URL.Query().Get("grouped") == "true"

	list, err := s.cat.ListBlueprints(r.Context(), forceRefresh, s.SetStatus)
	if err != nil {
		s.SetStatus(fmt.Sprintf("Blueprint refresh failed: %v", err))
		httpError(w, http.StatusBadGateway, err)
		return
	}
	s.SetStatus(fmt.Sprintf("Loaded %d blueprints.", len(list)))

	if grouped {
		writeJSON(w, catalog.GroupBlueprints(list))
		return
	}
	writeJSON(w, list)
}

func (s *Server) handleMaterials(w http.ResponseWriter, r *http.Request) {
	typeID, err := pathInt32(r, "typeID")
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	mats := s.cat.MaterialsFor(r.Context(), typeID)
	if mats == nil {
		mats = []sde.MaterialRequirement{}
	}
	writeJSON(w, mats)
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	typeID, err := pathInt32(r, "typeID")
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	price := s.esi.SellPrice(r.Context(), typeID)
	writeJSON(w, map[string]decimal.Decimal{"price": price})
}

// analyzeRequest carries the session inputs for one analysis. Omitted fee
// rates fall back to the configured defaults.
type analyzeRequest struct {
	BlueprintID        int32    `json:"blueprint_id"`
	MaterialEfficiency int      `json:"material_efficiency"`
	TimeEfficiency     int      `json:"time_efficiency"`
	SalesTaxPercent    *float64 `json:"sales_tax_percent"`
	BrokerFeePercent   *float64 `json:"broker_fee_percent"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	list, err := s.cat.ListBlueprints(r.Context(), false, s.SetStatus)
	if err != nil {
		httpError(w, http.StatusBadGateway, err)
		return
	}
	var bp *sde.BlueprintRecord
	for i := range list {
		if list[i].TypeID == req.BlueprintID {
			bp = &list[i]
			break
		}
	}
	if bp == nil {
		httpError(w, http.StatusNotFound, fmt.Errorf("blueprint %d not found", req.BlueprintID))
		return
	}

	mats := s.cat.MaterialsFor(r.Context(), req.BlueprintID)

	// One price per distinct material plus the product, fetched with
	// bounded parallelism.
	ids := make([]int32, 0, len(mats)+1)
	for _, m := range mats {
		ids = append(ids, m.TypeID)
	}
	if bp.ProductTypeID != 0 {
		ids = append(ids, bp.ProductTypeID)
	}
	prices := s.esi.SellPrices(r.Context(), ids)

	priced := make([]engine.PricedMaterial, 0, len(mats))
	for _, m := range mats {
		priced = append(priced, engine.PricedMaterial{
			TypeID:       m.TypeID,
			Name:         m.Name,
			BaseQuantity: m.Quantity,
			UnitPrice:    prices[m.TypeID],
		})
	}

	in := engine.Inputs{
		MaterialEfficiency: req.MaterialEfficiency,
		TimeEfficiency:     req.TimeEfficiency,
		SalesTaxPercent:    s.cfg.SalesTaxPercent,
		BrokerFeePercent:   s.cfg.BrokerFeePercent,
		ProductUnitPrice:   prices[bp.ProductTypeID],
	}
	if req.SalesTaxPercent != nil {
		in.SalesTaxPercent = *req.SalesTaxPercent
	}
	if req.BrokerFeePercent != nil {
		in.BrokerFeePercent = *req.BrokerFeePercent
	}

	report := engine.Compute(*bp, priced, in)
	writeJSON(w, struct {
		Blueprint sde.BlueprintRecord `json:"blueprint"`
		engine.Report
	}{Blueprint: *bp, Report: report})
}

func pathInt32(r *http.Request, name string) (int32, error) {
	v, err := strconv.ParseInt(r.PathValue(name), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return int32(v), nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("API", fmt.Sprintf("Encode response: %v", err))
	}
}

func httpError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
