package models

import "time"

// PhotoRecord is the client-facing shape of a diary photo:
// a resource URL plus the local calendar date it belongs to.
type PhotoRecord struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Date    string `json:"date"` // YYYY-MM-DD, local calendar date
	Caption string `json:"caption,omitempty"`
}

// PostResult is returned after posting a photo
type PostResult struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Emotion     string    `json:"emotion,omitempty"`
	Comment     string    `json:"comment"`
	UploadedAt  time.Time `json:"uploadedAt"`
	IsDuplicate bool      `json:"isDuplicate"`
}

// SignupRequest is the request body for account creation
type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the access token for the new session
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

// SummaryRequest asks for an AI summary of one day's comments
type SummaryRequest struct {
	Date     string   `json:"date"`
	Comments []string `json:"comments"`
}

// SummaryResponse is the AI (or fallback) day summary
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// StreakResponse reports the consecutive-posting streak
type StreakResponse struct {
	StreakDays int `json:"streakDays"`
	PostCount  int `json:"postCount"`
}

// CalendarCell is one day slot in a month grid. A nil cell pads the month edges.
type CalendarCell struct {
	Date   string        `json:"date"` // YYYY-MM-DD
	Day    int           `json:"day"`
	Photos []PhotoRecord `json:"photos"`
}

// CalendarResponse is the month grid with photos grouped per day
type CalendarResponse struct {
	Year  int               `json:"year"`
	Month int               `json:"month"`
	Weeks [][]*CalendarCell `json:"weeks"`
}

// TimelapseRequest starts timelapse generation for one month
type TimelapseRequest struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	FrameRate float64 `json:"frameRate,omitempty"`
}

// TimelapseStatusResponse reports the state of the user's timelapse job
type TimelapseStatusResponse struct {
	Status      string  `json:"status"` // idle|running|done|failed
	Progress    float64 `json:"progress"`
	DownloadURL string  `json:"downloadUrl,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// HealthResponse is returned by health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}
