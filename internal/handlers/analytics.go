package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"echelon-backend/internal/middleware"
	"echelon-backend/internal/models"
)

type analyticsService interface {
	Summary(ctx context.Context, ownerID uuid.UUID, rangeLabel string) (*models.Analytics, error)
}

type AnalyticsHandler struct {
	analytics analyticsService
}

func NewAnalyticsHandler(analytics analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary(r.Context(), middleware.GetUserID(r.Context()), r.URL.Query().Get("range"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
