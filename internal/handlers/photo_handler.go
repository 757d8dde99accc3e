package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jphacks/tk-b-2510/internal/middleware"
	"github.com/jphacks/tk-b-2510/internal/models"
	"github.com/jphacks/tk-b-2510/internal/observability"
	"github.com/jphacks/tk-b-2510/internal/repository"
	"github.com/jphacks/tk-b-2510/internal/services"
)

// PhotoHandler handles photo posting and retrieval endpoints
type PhotoHandler struct {
	repo             repository.PhotoRepo
	storageService   *services.StorageService
	hashService      *services.HashService
	exifService      *services.EXIFService
	thumbnailService *services.ThumbnailService
	analysisService  *services.AnalysisService
	location         *time.Location
	hub              *services.WebSocketHub
	metrics          *observability.BusinessMetrics
}

// NewPhotoHandler creates a new PhotoHandler
func NewPhotoHandler(
	repo repository.PhotoRepo,
	storageService *services.StorageService,
	hashService *services.HashService,
	exifService *services.EXIFService,
	thumbnailService *services.ThumbnailService,
	analysisService *services.AnalysisService,
	location *time.Location,
) *PhotoHandler {
	return &PhotoHandler{
		repo:             repo,
		storageService:   storageService,
		hashService:      hashService,
		exifService:      exifService,
		thumbnailService: thumbnailService,
		analysisService:  analysisService,
		location:         location,
	}
}

// SetWebSocketHub sets the hub for post notifications
func (h *PhotoHandler) SetWebSocketHub(hub *services.WebSocketHub) {
	h.hub = hub
}

// SetMetrics sets the business metrics recorder
func (h *PhotoHandler) SetMetrics(metrics *observability.BusinessMetrics) {
	h.metrics = metrics
}

// List returns all of the user's photos, newest first
// @Summary List photos
// @Description Returns every photo of the authenticated user as diary records, newest first.
// @Tags photos
// @Produce json
// @Success 200 {array} models.PhotoRecord "Photo records"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 500 {object} models.ErrorResponse "Server error"
// @Router /api/photos [get]
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	photos, err := h.repo.GetAllForUser(r.Context(), user.ID)
	if err != nil {
		observability.Errorf("Failed to list photos: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Database error.")
		return
	}

	records := make([]models.PhotoRecord, 0, len(photos))
	for _, p := range photos {
		records = append(records, models.PhotoRecord{
			ID:      p.ID,
			URL:     h.storageService.PublicURL(p.DisplayPath()),
			Date:    p.LocalDate(h.location),
			Caption: p.Caption,
		})
	}

	h.respondJSON(w, http.StatusOK, records)
}

// Post handles a new diary photo
// @Summary Post a photo
// @Description Post a photo for today's diary entry. Duplicate content is detected via SHA256 hash. The photo is analyzed for emotion and a diary comment is generated.
// @Tags photos
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Photo file to post"
// @Param caption formData string false "Optional caption for the photo"
// @Success 201 {object} models.PostResult "Photo posted"
// @Success 200 {object} models.PostResult "Duplicate photo, existing record returned"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 500 {object} models.ErrorResponse "Server error"
// @Router /api/photos [post]
func (h *PhotoHandler) Post(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	if err := r.ParseMultipartForm(50 << 20); err != nil {
		h.respondError(w, http.StatusBadRequest, "Request must be multipart/form-data.")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		// Older clients send the file under "photo"
		file, header, err = r.FormFile("photo")
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "No image provided or image is empty.")
			return
		}
	}
	defer file.Close()

	caption := strings.TrimSpace(r.FormValue("caption"))

	content, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to read image.")
		return
	}

	if err := h.storageService.ValidateUpload(header.Filename, int64(len(content))); err != nil {
		h.recordPost(r, user.ID, int64(len(content)), false)
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fileHash := h.hashService.ComputeHashBytes(content)

	existing, err := h.repo.GetByHash(r.Context(), user.ID, fileHash)
	if err != nil {
		observability.Errorf("Failed to check photo hash: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Database error.")
		return
	}
	if existing != nil {
		observability.Infof("Duplicate photo detected for user %s: %s", user.ID, fileHash)
		h.respondJSON(w, http.StatusOK, h.duplicateResult(existing))
		return
	}

	exifData := h.exifService.ExtractFromBytes(content)
	takenAt := exifData.TakenAtOrNow()

	storedPath, err := h.storageService.Store(
		bytes.NewReader(content),
		user.ID,
		header.Filename,
		takenAt,
		int64(len(content)),
	)
	if err != nil {
		observability.Errorf("Failed to store photo: %v", err)
		switch err {
		case models.ErrFileTooLarge, models.ErrInvalidExtension, models.ErrPathTraversal:
			h.respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.respondError(w, http.StatusInternalServerError, "Failed to store image.")
		}
		return
	}

	photo, err := models.NewPhoto(user.ID, header.Filename, storedPath, fileHash, int64(len(content)), takenAt)
	if err != nil {
		h.storageService.Delete(storedPath)
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	photo.Caption = caption

	if services.IsSupportedFormat(header.Filename) {
		thumbPath, err := h.thumbnailService.Generate(content, photo.ID, storedPath, exifData.Orientation)
		if err != nil {
			observability.Warnf("Thumbnail generation failed for %s: %v", photo.ID, err)
		} else {
			photo.ThumbPath = &thumbPath
		}
	}

	// Posting never waits on the analyzer being healthy. Any failure
	// records the photo with a fallback comment.
	photo.AIComment = services.FallbackComment
	if h.analysisService != nil && h.analysisService.Enabled() {
		result, err := h.analysisService.AnalyzeImage(r.Context(), content, header.Filename, caption)
		if err != nil {
			observability.Warnf("Photo analysis failed, using fallback comment: %v", err)
		} else {
			photo.Emotion = result.Emotion
			if result.Comment != "" {
				photo.AIComment = result.Comment
			}
		}
	}

	if err := h.repo.Add(r.Context(), photo); err != nil {
		h.storageService.Delete(storedPath)
		if photo.ThumbPath != nil {
			h.thumbnailService.Delete(*photo.ThumbPath)
		}

		// Concurrent post of the same content hits the unique hash constraint
		errStr := err.Error()
		if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "UNIQUE constraint") {
			if existing, lookupErr := h.repo.GetByHash(r.Context(), user.ID, fileHash); lookupErr == nil && existing != nil {
				h.respondJSON(w, http.StatusOK, h.duplicateResult(existing))
				return
			}
		}

		observability.Errorf("Failed to save photo: %v", err)
		h.recordPost(r, user.ID, photo.FileSize, false)
		h.respondError(w, http.StatusInternalServerError, "Database error.")
		return
	}

	h.recordPost(r, user.ID, photo.FileSize, true)
	h.notifyPosted(user, photo)

	h.respondJSON(w, http.StatusCreated, models.PostResult{
		ID:         photo.ID,
		URL:        h.storageService.PublicURL(photo.DisplayPath()),
		Emotion:    photo.Emotion,
		Comment:    photo.AIComment,
		UploadedAt: photo.UploadedAt,
	})
}

// Get returns one photo by ID
// @Summary Get a photo
// @Description Returns a single photo record by its ID.
// @Tags photos
// @Produce json
// @Param id path string true "Photo ID (UUID)"
// @Success 200 {object} models.Photo "Photo"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 404 {object} models.ErrorResponse "Photo not found"
// @Failure 500 {object} models.ErrorResponse "Server error"
// @Router /api/photos/{id} [get]
func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	photo, err := h.lookupOwned(w, r, user.ID)
	if photo == nil || err != nil {
		return
	}

	h.respondJSON(w, http.StatusOK, photo)
}

// Delete removes a photo by ID
// @Summary Delete a photo
// @Description Delete a photo by its ID. This removes the database record, the stored file and the thumbnail.
// @Tags photos
// @Param id path string true "Photo ID (UUID)"
// @Success 204 "Photo deleted"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 404 {object} models.ErrorResponse "Photo not found"
// @Failure 500 {object} models.ErrorResponse "Server error"
// @Router /api/photos/{id} [delete]
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	photo, err := h.lookupOwned(w, r, user.ID)
	if photo == nil || err != nil {
		return
	}

	h.storageService.Delete(photo.StoredPath)
	if photo.ThumbPath != nil {
		h.thumbnailService.Delete(*photo.ThumbPath)
	}

	deleted, err := h.repo.Delete(r.Context(), photo.ID)
	if err != nil {
		observability.Errorf("Failed to delete photo: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Database error.")
		return
	}
	if !deleted {
		h.respondError(w, http.StatusNotFound, "Photo not found.")
		return
	}

	observability.Infof("Photo deleted: %s", photo.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ServeMedia serves stored photo files and thumbnails. Paths are rooted at
// the owner's directory, so requests for another user's files are rejected.
func (h *PhotoHandler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	storedPath := chi.URLParam(r, "*")
	if storedPath == "" {
		h.respondError(w, http.StatusBadRequest, "File path is required.")
		return
	}

	if !h.storageService.OwnedBy(storedPath, user.ID) && !strings.HasPrefix(storedPath, ".thumbs/") {
		h.respondError(w, http.StatusNotFound, "File not found.")
		return
	}

	fullPath, err := h.storageService.GetFullPath(storedPath)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "File not found.")
		return
	}
	if !h.storageService.Exists(storedPath) {
		h.respondError(w, http.StatusNotFound, "File not found.")
		return
	}

	http.ServeFile(w, r, fullPath)
}

// lookupOwned fetches a photo by the id URL param and verifies ownership.
// It writes the error response itself and returns nil when the request
// should not proceed.
func (h *PhotoHandler) lookupOwned(w http.ResponseWriter, r *http.Request, userID string) (*models.Photo, error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Photo ID is required.")
		return nil, nil
	}

	photo, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		observability.Errorf("Failed to get photo: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Database error.")
		return nil, err
	}

	// A photo belonging to someone else looks the same as a missing one
	if photo == nil || photo.UserID != userID {
		h.respondError(w, http.StatusNotFound, "Photo not found.")
		return nil, nil
	}

	return photo, nil
}

func (h *PhotoHandler) duplicateResult(photo *models.Photo) models.PostResult {
	return models.PostResult{
		ID:          photo.ID,
		URL:         h.storageService.PublicURL(photo.DisplayPath()),
		Emotion:     photo.Emotion,
		Comment:     photo.AIComment,
		UploadedAt:  photo.UploadedAt,
		IsDuplicate: true,
	}
}

func (h *PhotoHandler) recordPost(r *http.Request, userID string, fileSize int64, success bool) {
	if h.metrics != nil {
		h.metrics.RecordPhotoPost(r.Context(), userID, fileSize, success)
	}
}

func (h *PhotoHandler) notifyPosted(user *models.User, photo *models.Photo) {
	if h.hub == nil {
		return
	}

	h.hub.BroadcastToTopic(services.PhotosTopicFor(user.ID), services.WSMessage{
		Type: services.WSTypePhotoPosted,
		Payload: services.PhotoPostedPayload{
			PhotoID: photo.ID,
			Date:    photo.LocalDate(h.location),
			URL:     h.storageService.PublicURL(photo.DisplayPath()),
		},
	})
}

// Helper methods

func (h *PhotoHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *PhotoHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
