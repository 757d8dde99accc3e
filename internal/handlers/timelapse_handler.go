package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jphacks/tk-b-2510/internal/middleware"
	"github.com/jphacks/tk-b-2510/internal/models"
	"github.com/jphacks/tk-b-2510/internal/observability"
	"github.com/jphacks/tk-b-2510/internal/services"
)

// TimelapseHandler handles monthly timelapse endpoints
type TimelapseHandler struct {
	timelapseService *services.TimelapseService
}

// NewTimelapseHandler creates a new TimelapseHandler
func NewTimelapseHandler(timelapseService *services.TimelapseService) *TimelapseHandler {
	return &TimelapseHandler{timelapseService: timelapseService}
}

// Start launches timelapse generation for one month
// @Summary Start a timelapse
// @Description Start compiling the month's photos into a video. Only one job per user runs at a time. Progress is reported over the WebSocket.
// @Tags timelapse
// @Accept json
// @Produce json
// @Param request body models.TimelapseRequest true "Year and month to compile"
// @Success 202 {object} models.TimelapseStatusResponse "Job started"
// @Failure 400 {object} models.ErrorResponse "Invalid month or no photos in the month"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 409 {object} models.ErrorResponse "A job is already running"
// @Failure 422 {object} models.ErrorResponse "No video encoder available on this host"
// @Router /api/timelapse [post]
func (h *TimelapseHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req models.TimelapseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	status, err := h.timelapseService.StartCompile(r.Context(), user.ID, req.Year, req.Month, req.FrameRate)
	if err != nil {
		switch err {
		case models.ErrTimelapseBusy:
			h.respondError(w, http.StatusConflict, err.Error())
		case models.ErrUnsupportedPlatform:
			h.respondError(w, http.StatusUnprocessableEntity, err.Error())
		case models.ErrInvalidMonth, models.ErrNoPhotosForMonth:
			h.respondError(w, http.StatusBadRequest, err.Error())
		default:
			observability.Errorf("Failed to start timelapse: %v", err)
			h.respondError(w, http.StatusInternalServerError, "Failed to start timelapse.")
		}
		return
	}

	h.respondJSON(w, http.StatusAccepted, status)
}

// Status reports the user's current timelapse job
// @Summary Timelapse status
// @Description Returns the state and progress of the user's current or last timelapse job.
// @Tags timelapse
// @Produce json
// @Success 200 {object} models.TimelapseStatusResponse "Job status"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /api/timelapse/status [get]
func (h *TimelapseHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	h.respondJSON(w, http.StatusOK, h.timelapseService.Status(user.ID))
}

// Download serves a finished timelapse video
// @Summary Download a timelapse
// @Description Download the compiled video for a month.
// @Tags timelapse
// @Produce video/webm
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Success 200 "Video file"
// @Failure 400 {object} models.ErrorResponse "Invalid year or month"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 404 {object} models.ErrorResponse "No video for this month"
// @Router /api/timelapse/{year}/{month}/download [get]
func (h *TimelapseHandler) Download(w http.ResponseWriter, r *http.Request) {
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

	outputPath := h.timelapseService.OutputPath(user.ID, year, month)
	if _, err := os.Stat(outputPath); err != nil {
		h.respondError(w, http.StatusNotFound, models.ErrTimelapseNotFound.Error())
		return
	}

	filename := models.TimelapseOutputName(year, month)
	w.Header().Set("Content-Type", "video/webm")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, outputPath)
}

func (h *TimelapseHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *TimelapseHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
