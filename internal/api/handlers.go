package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tmoore-prog/stock-market-pipeline/internal/models"
)

const defaultCheckpointLimit = 50

// CheckpointReader is the read-only view of the checkpoint store exposed
// over HTTP.
type CheckpointReader interface {
	IngestionStats(ctx context.Context) (*models.IngestionStats, error)
	RecentCheckpoints(ctx context.Context, limit int) ([]*models.Checkpoint, error)
}

// ProgressReader returns the live position of a backfill run.
type ProgressReader interface {
	Get(ctx context.Context, runID string) (*models.RunProgress, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	checkpoints CheckpointReader
	progress    ProgressReader // nil when run-progress tracking is disabled
}

// NewHandler creates a new Handler. progress may be nil.
func NewHandler(checkpoints CheckpointReader, progress ProgressReader) *Handler {
	return &Handler{
		checkpoints: checkpoints,
		progress:    progress,
	}
}

// GetStats handles GET /api/v1/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.checkpoints.IngestionStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if stats == nil {
		http.Error(w, "no completed ingestion runs yet", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GetCheckpoints handles GET /api/v1/checkpoints
func (h *Handler) GetCheckpoints(w http.ResponseWriter, r *http.Request) {
	limit := defaultCheckpointLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	checkpoints, err := h.checkpoints.RecentCheckpoints(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if checkpoints == nil {
		checkpoints = []*models.Checkpoint{}
	}

	respondJSON(w, http.StatusOK, checkpoints)
}

// GetProgress handles GET /api/v1/progress/{run_id}
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	if h.progress == nil {
		http.Error(w, "progress tracking is not enabled", http.StatusNotFound)
		return
	}

	vars := mux.Vars(r)
	runID := vars["run_id"]

	progress, err := h.progress.Get(r.Context(), runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if progress == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, progress)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
