package diskusage

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"autotag/internal/middleware"
)

type Handler struct {
	stater Stater
	path   string
}

// NewHandler reports usage of the filesystem holding path.
func NewHandler(s Stater, path string) *Handler {
	return &Handler{stater: s, path: path}
}

// DiskUsage writes {"total","used","free"} unwrapped; the web app proxies it as is.
func (h *Handler) DiskUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	usage, ok := h.usage(ctx, w)
	if !ok {
		return
	}
	h.writeJSON(ctx, w, usage)
}

func (h *Handler) RemainingStorage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	usage, ok := h.usage(ctx, w)
	if !ok {
		return
	}
	h.writeJSON(ctx, w, map[string]float64{"remaining_storage_gb": usage.RemainingGB()})
}

func (h *Handler) usage(ctx context.Context, w http.ResponseWriter) (Usage, bool) {
	usage, err := h.stater.Usage(h.path)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read disk usage", "path", h.path, "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return Usage{}, false
	}
	slog.DebugContext(ctx, "disk usage", "path", h.path, "total", usage.Total, "used", usage.Used, "free", usage.Free)
	return usage, true
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
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
