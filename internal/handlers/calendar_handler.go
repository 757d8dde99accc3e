package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jphacks/tk-b-2510/internal/middleware"
	"github.com/jphacks/tk-b-2510/internal/models"
	"github.com/jphacks/tk-b-2510/internal/observability"
	"github.com/jphacks/tk-b-2510/internal/services"
)

// CalendarHandler handles the month calendar endpoint
type CalendarHandler struct {
	calendarService *services.CalendarService
}

// NewCalendarHandler creates a new CalendarHandler
func NewCalendarHandler(calendarService *services.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

// Month returns the calendar grid for one month
// @Summary Month calendar
// @Description Returns the month as rows of seven day cells with photos grouped per day. Cells outside the month are null.
// @Tags calendar
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} models.CalendarResponse "Month grid"
// @Failure 400 {object} models.ErrorResponse "Invalid year or month"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 500 {object} models.ErrorResponse "Server error"
// @Router /api/calendar/{year}/{month} [get]
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 {
		h.respondError(w, http.StatusBadRequest, "Invalid year.")
		return
	}

	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		h.respondError(w, http.StatusBadRequest, "Month must be between 1 and 12.")
		return
	}

	resp, err := h.calendarService.BuildMonth(r.Context(), user.ID, year, time.Month(month))
	if err != nil {
		observability.Errorf("Failed to build calendar: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Database error.")
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *CalendarHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *CalendarHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
