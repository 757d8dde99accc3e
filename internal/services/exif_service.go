package services

import (
	"bytes"
	"io"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// EXIFData contains the metadata a diary post needs from an image
type EXIFData struct {
	DateTaken   *time.Time
	Orientation int
}

// EXIFService extracts EXIF metadata from images
type EXIFService struct{}

// NewEXIFService creates a new EXIFService
func NewEXIFService() *EXIFService {
	return &EXIFService{}
}

// ExtractFromBytes extracts EXIF data from image bytes
func (s *EXIFService) ExtractFromBytes(data []byte) *EXIFData {
	return s.ExtractFromReader(bytes.NewReader(data))
}

// ExtractFromReader extracts EXIF data from an io.Reader. Images without
// EXIF data yield the defaults rather than an error.
func (s *EXIFService) ExtractFromReader(r io.Reader) *EXIFData {
	result := &EXIFData{Orientation: 1}

	x, err := exif.Decode(r)
	if err != nil {
		return result
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if val, err := tag.Int(0); err == nil && val >= 1 && val <= 8 {
			result.Orientation = val
		}
	}

	if tm, err := x.DateTime(); err == nil {
		result.DateTaken = &tm
	}

	return result
}

// TakenAtOrNow returns the EXIF capture time, falling back to now when absent
func (d *EXIFData) TakenAtOrNow() time.Time {
	if d.DateTaken != nil {
		return *d.DateTaken
	}
	return time.Now().UTC()
}
