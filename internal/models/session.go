package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents an authenticated session. The ID doubles as the access token.
type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	IPAddress      string    `json:"ipAddress,omitempty"`
	UserAgent      string    `json:"userAgent,omitempty"`
	IsActive       bool      `json:"isActive"`
}

// SessionInfo is the safe response format
type SessionInfo struct {
	ExpiresAt      time.Time    `json:"expiresAt"`
	LastActivityAt time.Time    `json:"lastActivityAt"`
	User           UserResponse `json:"user"`
}

// NewSession creates a new session
func NewSession(userID, ipAddress, userAgent string, durationHours int) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:             uuid.New().String(),
		UserID:         userID,
		CreatedAt:      now,
		ExpiresAt:      now.Add(time.Duration(durationHours) * time.Hour),
		LastActivityAt: now,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		IsActive:       true,
	}
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().UTC().After(s.ExpiresAt)
}

// Touch updates the last activity timestamp
func (s *Session) Touch() {
	s.LastActivityAt = time.Now().UTC()
}

// Invalidate marks the session as inactive
func (s *Session) Invalidate() {
	s.IsActive = false
}

// Session errors
var (
	ErrSessionNotFound = SessionError{"session not found"}
	ErrSessionExpired  = SessionError{"session has expired"}
	ErrSessionInactive = SessionError{"session is no longer active"}
)

type SessionError struct {
	Message string
}

func (e SessionError) Error() string {
	return e.Message
}
