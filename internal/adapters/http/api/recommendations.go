// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/encore/internal/adapters/blobstore"
	"github.com/okian/encore/internal/domain/scoring"
)

// RecommendationDependencies defines the interface for recommendation queries.
type RecommendationDependencies interface {
	Recommend(ctx context.Context, batchID string, budget float64, topN int) ([]Recommendation, error)
}

// RecommendationsHandler handles recommendation requests.
type RecommendationsHandler struct {
	deps     RecommendationDependencies
	maxLimit int
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(deps RecommendationDependencies, maxLimit int) *RecommendationsHandler {
	return &RecommendationsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetRecommendations handles
// GET /batches/{id}/recommendations?budget=N&limit=K requests. An empty
// array is a valid answer; it means no staged concert fits the budget.
func (h *RecommendationsHandler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_recommendations"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	// Extract path parameters after /batches/
	rest := strings.TrimPrefix(r.URL.Path, "/batches/")
	batchID, tail, ok := strings.Cut(rest, "/")
	if !ok || batchID == "" || tail != "recommendations" {
		http.NotFound(w, r)
		return
	}

	budgetStr := r.URL.Query().Get("budget")
	budget, err := strconv.ParseFloat(budgetStr, 64)
	if err != nil || budget < 0 {
		writeError(w, http.StatusBadRequest, "bad_budget", NewKind(op, ErrBadRequest))
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "bad_limit", NewKind(op, ErrBadRequest))
			return
		}
	}
	if limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	recs, err := h.deps.Recommend(r.Context(), batchID, budget, limit)
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		case errors.Is(err, scoring.ErrInvalidBudget):
			writeError(w, http.StatusBadRequest, "bad_budget", Wrap(op, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}

	if recs == nil {
		recs = []Recommendation{}
	}
	writeJSON(w, http.StatusOK, recs)
}
