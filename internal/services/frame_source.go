package services

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/jphacks/tk-b-2510/internal/models"
)

// FrameLoader loads a photo's full-size image for video frames
type FrameLoader interface {
	Load(ctx context.Context, photo *models.Photo) (image.Image, error)
}

// StorageFrameLoader loads frames from the photo storage directory,
// applying EXIF orientation so frames match how the photo was shot
type StorageFrameLoader struct {
	basePath string
	exif     *EXIFService
}

// NewStorageFrameLoader creates a loader reading from the given base path
func NewStorageFrameLoader(basePath string, exif *EXIFService) *StorageFrameLoader {
	return &StorageFrameLoader{
		basePath: basePath,
		exif:     exif,
	}
}

// Load reads and decodes the photo's stored file
func (l *StorageFrameLoader) Load(ctx context.Context, photo *models.Photo) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := filepath.Join(l.basePath, photo.StoredPath)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo %s: %w", photo.ID, err)
	}

	img, err := DecodeImage(data, photo.StoredPath)
	if err != nil {
		return nil, err
	}

	return applyOrientation(img, l.exif.ExtractFromBytes(data).Orientation), nil
}
