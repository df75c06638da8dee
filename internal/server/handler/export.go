package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quantfloor/deskd/internal/domain"
)

// ExportService defines the methods the export handler requires.
type ExportService interface {
	ExportBlotter(ctx context.Context) (string, error)
}

// ExportHandler triggers blotter exports to object storage.
type ExportHandler struct {
	desk   ExportService
	logger *slog.Logger
}

// NewExportHandler creates an ExportHandler with the given service and logger.
func NewExportHandler(desk ExportService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		desk:   desk,
		logger: logger,
	}
}

// ExportBlotter uploads a JSON snapshot of the blotter and returns the
// object key it was stored under.
// POST /api/blotter/export
func (h *ExportHandler) ExportBlotter(w http.ResponseWriter, r *http.Request) {
	key, err := h.desk.ExportBlotter(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "blob storage not configured")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: blotter export failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to export blotter")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "exported",
		"key":    key,
	})
}
