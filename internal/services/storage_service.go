package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jphacks/tk-b-2510/internal/models"
)

// StorageService stores photo files under a per-user Year/Month layout
type StorageService struct {
	basePath          string
	allowedExtensions map[string]bool
	maxFileSizeBytes  int64
}

// NewStorageService creates a new StorageService
func NewStorageService(basePath string, allowedExtensions []string, maxFileSizeMB int64) (*StorageService, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, err
	}

	extSet := make(map[string]bool)
	if len(allowedExtensions) == 0 {
		for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".heif"} {
			extSet[strings.ToLower(ext)] = true
		}
	} else {
		for _, ext := range allowedExtensions {
			extSet[strings.ToLower(ext)] = true
		}
	}

	return &StorageService{
		basePath:          absPath,
		allowedExtensions: extSet,
		maxFileSizeBytes:  maxFileSizeMB * 1024 * 1024,
	}, nil
}

// BasePath returns the absolute storage root
func (s *StorageService) BasePath() string {
	return s.basePath
}

// MaxFileSizeBytes returns the upload size limit
func (s *StorageService) MaxFileSizeBytes() int64 {
	return s.maxFileSizeBytes
}

// ValidateUpload checks the filename extension and size before storing
func (s *StorageService) ValidateUpload(originalFilename string, fileSize int64) error {
	if fileSize > s.maxFileSizeBytes {
		return models.ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(models.SanitizeFilename(originalFilename)))
	if !s.allowedExtensions[ext] {
		return models.ErrInvalidExtension
	}

	return nil
}

// Store saves a file under {userID}/{year}/{month}/ and returns the
// relative storage path
func (s *StorageService) Store(reader io.Reader, userID, originalFilename string, takenAt time.Time, fileSize int64) (string, error) {
	if err := s.ValidateUpload(originalFilename, fileSize); err != nil {
		return "", err
	}

	sanitizedFilename := models.SanitizeFilename(originalFilename)

	relativeFolderPath := filepath.Join(userID, takenAt.Format("2006"), takenAt.Format("01"))
	absoluteFolderPath := filepath.Join(s.basePath, relativeFolderPath)

	if err := os.MkdirAll(absoluteFolderPath, 0755); err != nil {
		return "", err
	}

	uniqueFilename := generateUniqueFilename(sanitizedFilename, absoluteFolderPath)
	relativeFilePath := filepath.Join(relativeFolderPath, uniqueFilename)
	absoluteFilePath := filepath.Join(s.basePath, relativeFilePath)

	// Security check: ensure path is within base path
	if !strings.HasPrefix(absoluteFilePath, s.basePath) {
		return "", models.ErrPathTraversal
	}

	file, err := os.OpenFile(absoluteFilePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		os.Remove(absoluteFilePath)
		return "", err
	}

	// Forward slashes for consistency across platforms
	return strings.ReplaceAll(relativeFilePath, string(os.PathSeparator), "/"), nil
}

// Delete removes a file by its stored path
func (s *StorageService) Delete(storedPath string) bool {
	if strings.TrimSpace(storedPath) == "" {
		return false
	}

	fullPath, err := s.GetFullPath(storedPath)
	if err != nil {
		return false
	}

	if err := os.Remove(fullPath); err != nil {
		return false
	}

	return true
}

// GetFullPath returns the absolute path for a stored path
func (s *StorageService) GetFullPath(storedPath string) (string, error) {
	if strings.TrimSpace(storedPath) == "" {
		return "", fmt.Errorf("stored path cannot be empty")
	}

	normalizedPath := filepath.FromSlash(storedPath)
	fullPath := filepath.Join(s.basePath, normalizedPath)

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(absPath, s.basePath) {
		return "", models.ErrPathTraversal
	}

	return absPath, nil
}

// Exists checks if a file exists at the given stored path
func (s *StorageService) Exists(storedPath string) bool {
	fullPath, err := s.GetFullPath(storedPath)
	if err != nil {
		return false
	}

	_, err = os.Stat(fullPath)
	return err == nil
}

// PublicURL returns the URL a stored path is served under
func (s *StorageService) PublicURL(storedPath string) string {
	return "/media/" + strings.TrimPrefix(storedPath, "/")
}

// OwnedBy reports whether a stored path belongs to the given user. Paths
// are rooted at the user's directory, so the first segment is the owner.
func (s *StorageService) OwnedBy(storedPath, userID string) bool {
	parts := strings.SplitN(strings.TrimPrefix(storedPath, "/"), "/", 2)
	return len(parts) == 2 && parts[0] == userID
}

// generateUniqueFilename creates a unique filename if collision exists
func generateUniqueFilename(filename, folderPath string) string {
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))
	ext := filepath.Ext(filename)
	candidate := filename
	counter := 1

	for {
		fullPath := filepath.Join(folderPath, candidate)
		if _, err := os.Stat(fullPath); os.IsNotExist(err) {
			break
		}

		candidate = fmt.Sprintf("%s_%03d%s", nameWithoutExt, counter, ext)
		counter++

		if counter > 9999 {
			// Fall back to timestamp
			candidate = fmt.Sprintf("%s_%d%s", nameWithoutExt, time.Now().UnixNano(), ext)
			break
		}
	}

	return candidate
}
