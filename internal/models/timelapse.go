package models

import "fmt"

// Timelapse job states
const (
	TimelapseStatusIdle      = "idle"
	TimelapseStatusRunning   = "running"
	TimelapseStatusCompleted = "completed"
	TimelapseStatusFailed    = "failed"
)

// TimelapseOutputName returns the canonical file name for a month's video
func TimelapseOutputName(year, month int) string {
	return fmt.Sprintf("timelapse-%d-%d.webm", year, month)
}

// Errors
type TimelapseError struct {
	Message string
}

func (e TimelapseError) Error() string {
	return e.Message
}

var (
	ErrUnsupportedPlatform = TimelapseError{"video encoding is not available on this host"}
	ErrTimelapseBusy       = TimelapseError{"a timelapse job is already running"}
	ErrNoPhotosForMonth    = TimelapseError{"no photos found for the requested month"}
	ErrTimelapseNotFound   = TimelapseError{"timelapse video not found"}
	ErrInvalidMonth        = TimelapseError{"month must be between 1 and 12"}
)
