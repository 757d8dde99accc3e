package services

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jdeng/goheif"
)

// ThumbMaxDim is the maximum dimension of calendar cell thumbnails
const ThumbMaxDim = 400

// ThumbQuality is the JPEG quality for thumbnails
const ThumbQuality = 80

// ThumbnailService generates the small previews shown on the calendar
type ThumbnailService struct {
	basePath string
}

// NewThumbnailService creates a new ThumbnailService
func NewThumbnailService(basePath string) *ThumbnailService {
	return &ThumbnailService{basePath: basePath}
}

// Generate creates a thumbnail for an image and returns its relative path.
// storedPath is relative to the storage base, like "user123/2025/10/IMG_001.jpg".
func (s *ThumbnailService) Generate(imageData []byte, photoID, storedPath string, orientation int) (string, error) {
	img, err := DecodeImage(imageData, storedPath)
	if err != nil {
		return "", err
	}

	img = applyOrientation(img, orientation)

	thumbDir := filepath.Join(filepath.Dir(storedPath), ".thumbs")
	fullThumbDir := filepath.Join(s.basePath, thumbDir)
	if err := os.MkdirAll(fullThumbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	resized := imaging.Fit(img, ThumbMaxDim, ThumbMaxDim, imaging.Lanczos)

	relativePath := filepath.Join(thumbDir, photoID+".jpg")
	fullPath := filepath.Join(s.basePath, relativePath)

	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, resized, &jpeg.Options{Quality: ThumbQuality}); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return relativePath, nil
}

// Delete removes a photo's thumbnail
func (s *ThumbnailService) Delete(thumbPath string) {
	if thumbPath != "" {
		os.Remove(filepath.Join(s.basePath, thumbPath))
	}
}

// DecodeImage decodes image bytes, falling back to HEIC decoding when the
// filename suggests it
func DecodeImage(data []byte, filename string) (image.Image, error) {
	if IsHEIC(filename) {
		img, err := goheif.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode HEIC image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Some HEIC files arrive with a misleading extension
		if heicImg, heicErr := goheif.Decode(bytes.NewReader(data)); heicErr == nil {
			return heicImg, nil
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// applyOrientation corrects image orientation based on EXIF data
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Rotate270(imaging.FlipH(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Rotate90(imaging.FlipH(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// IsSupportedFormat checks if the file extension is supported
func IsSupportedFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	supported := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".webp": true,
		".bmp":  true,
		".tiff": true,
		".tif":  true,
		".heic": true,
		".heif": true,
	}
	return supported[ext]
}

// IsHEIC checks if the file is HEIC/HEIF format (requires special handling)
func IsHEIC(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".heic" || ext == ".heif"
}
