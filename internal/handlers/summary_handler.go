package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jphacks/tk-b-2510/internal/models"
	"github.com/jphacks/tk-b-2510/internal/services"
)

// SummaryHandler handles the day summary endpoint
type SummaryHandler struct {
	analysisService *services.AnalysisService
}

// NewSummaryHandler creates a new SummaryHandler
func NewSummaryHandler(analysisService *services.AnalysisService) *SummaryHandler {
	return &SummaryHandler{analysisService: analysisService}
}

// Summarize produces a one-line summary for a day's diary comments
// @Summary Summarize a day
// @Description Produce a one-line summary of the day's diary comments. Falls back to a locally built summary when the AI service is unavailable.
// @Tags summary
// @Accept json
// @Produce json
// @Param request body models.SummaryRequest true "Date and comments to summarize"
// @Success 200 {object} models.SummaryResponse "Summary"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /api/ai-summary [post]
func (h *SummaryHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req models.SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.Date != "" {
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			h.respondError(w, http.StatusBadRequest, "Date must be in YYYY-MM-DD format.")
			return
		}
	}

	summary, _ := h.analysisService.Summarize(r.Context(), req.Date, req.Comments)

	h.respondJSON(w, http.StatusOK, models.SummaryResponse{Summary: summary})
}

func (h *SummaryHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *SummaryHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
