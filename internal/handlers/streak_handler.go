package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jphacks/tk-b-2510/internal/middleware"
	"github.com/jphacks/tk-b-2510/internal/models"
	"github.com/jphacks/tk-b-2510/internal/observability"
	"github.com/jphacks/tk-b-2510/internal/services"
)

// StreakHandler handles the posting streak endpoint
type StreakHandler struct {
	streakService *services.StreakService
}

// NewStreakHandler creates a new StreakHandler
func NewStreakHandler(streakService *services.StreakService) *StreakHandler {
	return &StreakHandler{streakService: streakService}
}

// Current returns the user's consecutive posting streak
// @Summary Posting streak
// @Description Returns the number of consecutive days the user has posted, ending today. A day without a post resets the streak to zero.
// @Tags streak
// @Produce json
// @Success 200 {object} models.StreakResponse "Streak"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 500 {object} models.ErrorResponse "Server error"
// @Router /api/streak [get]
func (h *StreakHandler) Current(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	resp, err := h.streakService.Current(r.Context(), user.ID)
	if err != nil {
		observability.Errorf("Failed to compute streak: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Database error.")
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *StreakHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *StreakHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
