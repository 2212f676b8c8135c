// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/encore/internal/domain/model"
	"github.com/okian/encore/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ingest runs a raw upload through every staging layer.
	Ingest(ctx context.Context, data []byte, sourceName string) (model.AggregatedBatch, int, error)

	// Recommend returns a ranked, budget-filtered view of a staged batch.
	Recommend(ctx context.Context, batchID string, budget float64, topN int) ([]Recommendation, error)
}

// Recommendation mirrors the read shape returned by the scoring layer.
type Recommendation = types.Recommendation

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler          *HealthHandler
	statsHandler           *StatsHandler
	batchesHandler         *BatchesHandler
	recommendationsHandler *RecommendationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:          NewHealthHandler(),
		statsHandler:           NewStatsHandler(statsProvider),
		batchesHandler:         NewBatchesHandler(deps),
		recommendationsHandler: NewRecommendationsHandler(deps, maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/batches", MetricsMiddleware(s.batchesHandler.HandlePostBatch, "batches"))
	mux.HandleFunc("/batches/", MetricsMiddleware(s.recommendationsHandler.HandleGetRecommendations, "recommendations"))
}

// batchResponse mirrors the schema for POST /batches.
type batchResponse struct {
	BatchID       string `json:"batch_id"`
	Records       int    `json:"records"`
	RejectedCount int    `json:"rejected_count"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
