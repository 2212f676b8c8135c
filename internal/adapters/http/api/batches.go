// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/okian/encore/internal/adapters/blobstore"
	"github.com/okian/encore/internal/domain/model"
	"github.com/okian/encore/internal/domain/validate"
)

// maxUploadBytes caps the accepted CSV body size.
const maxUploadBytes = 32 << 20

// BatchDependencies defines the interface for batch ingestion.
type BatchDependencies interface {
	Ingest(ctx context.Context, data []byte, sourceName string) (model.AggregatedBatch, int, error)
}

// BatchesHandler handles batch upload requests.
type BatchesHandler struct {
	deps BatchDependencies
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(deps BatchDependencies) *BatchesHandler {
	return &BatchesHandler{deps: deps}
}

// HandlePostBatch handles POST /batches requests. The body is the CSV
// upload verbatim; an optional X-Source-Name header names the file.
func (h *BatchesHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty_body", NewKind(op, ErrEmptyBody))
		return
	}

	sourceName := r.Header.Get("X-Source-Name")
	if sourceName == "" {
		sourceName = "upload.csv"
	}

	batch, rejected, err := h.deps.Ingest(r.Context(), data, sourceName)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrEmptyBatch):
			writeError(w, http.StatusUnprocessableEntity, "empty_batch", Wrap(op, err))
		case errors.Is(err, blobstore.ErrStorage):
			writeError(w, http.StatusBadGateway, "storage_error", Wrap(op, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}

	writeJSON(w, http.StatusCreated, batchResponse{
		BatchID:       batch.Handle.BatchID,
		Records:       len(batch.Entries),
		RejectedCount: rejected,
	})
}
