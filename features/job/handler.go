package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"autotag/internal/middleware"
)

type Handler struct {
	service *Service
}

// NewHandler returns the journal handler. A nil service means the journal is
// disabled and every route answers 503.
func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.writeError(ctx, w, "UNAVAILABLE", "failure journal is disabled", http.StatusServiceUnavailable)
		return
	}

	slog.InfoContext(ctx, "listing tagging failures")

	failures, err := h.service.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list tagging failures", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	if failures == nil {
		failures = []Failure{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": failures,
		"meta": map[string]int{"count": len(failures)},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) Dismiss(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.writeError(ctx, w, "UNAVAILABLE", "failure journal is disabled", http.StatusServiceUnavailable)
		return
	}
	hash := r.PathValue("hash")

	if err := h.service.Dismiss(ctx, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(ctx, w, "NOT_FOUND", "Failure not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to dismiss tagging failure", "hash", hash, "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": "failure dismissed"}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
