package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Photo represents a single diary post: one photo with its AI commentary
type Photo struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	OriginalFilename string    `json:"originalFilename"`
	StoredPath       string    `json:"storedPath"`
	ThumbPath        *string   `json:"thumbPath,omitempty"`
	FileHash         string    `json:"fileHash"`
	FileSize         int64     `json:"fileSize"`
	Caption          string    `json:"caption"`
	Emotion          string    `json:"emotion"`
	AIComment        string    `json:"aiComment"`
	TakenAt          time.Time `json:"takenAt"`
	UploadedAt       time.Time `json:"uploadedAt"`
}

// NewPhoto creates a new Photo with validation and sanitization
func NewPhoto(userID, originalFilename, storedPath, fileHash string, fileSize int64, takenAt time.Time) (*Photo, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	if strings.TrimSpace(originalFilename) == "" {
		return nil, ErrEmptyFilename
	}
	if strings.TrimSpace(storedPath) == "" {
		return nil, ErrEmptyStoredPath
	}
	if strings.TrimSpace(fileHash) == "" {
		return nil, ErrEmptyHash
	}
	if fileSize <= 0 {
		return nil, ErrInvalidFileSize
	}

	return &Photo{
		ID:               uuid.New().String(),
		UserID:           userID,
		OriginalFilename: SanitizeFilename(originalFilename),
		StoredPath:       storedPath,
		FileHash:         strings.ToLower(fileHash),
		FileSize:         fileSize,
		TakenAt:          takenAt,
		UploadedAt:       time.Now().UTC(),
	}, nil
}

// LocalDate returns the photo's capture day as YYYY-MM-DD in the given zone
func (p *Photo) LocalDate(loc *time.Location) string {
	return p.TakenAt.In(loc).Format("2006-01-02")
}

// DisplayPath returns the path to serve for thumbnails and listings,
// preferring the thumbnail when one exists
func (p *Photo) DisplayPath() string {
	if p.ThumbPath != nil && *p.ThumbPath != "" {
		return *p.ThumbPath
	}
	return p.StoredPath
}

// SanitizeFilename removes path components and invalid characters
func SanitizeFilename(filename string) string {
	name := filepath.Base(filename)

	replacer := strings.NewReplacer(
		"..", "",
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)

	return replacer.Replace(name)
}

// Errors
type PhotoError struct {
	Message string
}

func (e PhotoError) Error() string {
	return e.Message
}

var (
	ErrEmptyUserID      = PhotoError{"user id cannot be empty"}
	ErrEmptyFilename    = PhotoError{"original filename cannot be empty"}
	ErrEmptyStoredPath  = PhotoError{"stored path cannot be empty"}
	ErrEmptyHash        = PhotoError{"file hash cannot be empty"}
	ErrInvalidFileSize  = PhotoError{"file size must be positive"}
	ErrPhotoNotFound    = PhotoError{"photo not found"}
	ErrDuplicatePhoto   = PhotoError{"photo already posted"}
	ErrInvalidExtension = PhotoError{"file extension not allowed"}
	ErrFileTooLarge     = PhotoError{"file size exceeds maximum allowed"}
	ErrPathTraversal    = PhotoError{"invalid path - path traversal detected"}
)
