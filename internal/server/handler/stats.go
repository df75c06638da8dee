package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quantfloor/deskd/internal/domain"
)

// StatsService defines the methods the stats handler requires.
type StatsService interface {
	Stats(ctx context.Context) (domain.DeskStats, error)
}

// StatsHandler serves blotter summary statistics.
type StatsHandler struct {
	desk   StatsService
	logger *slog.Logger
}

// NewStatsHandler creates a StatsHandler with the given service and logger.
func NewStatsHandler(desk StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		desk:   desk,
		logger: logger,
	}
}

// GetStats returns a point-in-time summary of the blotter.
// GET /api/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.desk.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: stats failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
