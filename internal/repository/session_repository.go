package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jphacks/tk-b-2510/internal/models"
)

// SessionRepository handles session persistence
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Add inserts a new session
func (r *SessionRepository) Add(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, created_at, expires_at, last_activity_at, ip_address, user_agent, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.CreatedAt,
		session.ExpiresAt,
		session.LastActivityAt,
		session.IPAddress,
		session.UserAgent,
		session.IsActive,
	)

	return err
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, user_id, created_at, expires_at, last_activity_at, ip_address, user_agent, is_active
		FROM sessions WHERE id = ?
	`

	var session models.Session
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.LastActivityAt,
		&session.IPAddress,
		&session.UserAgent,
		&session.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// Touch updates the session's last activity timestamp
func (r *SessionRepository) Touch(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET last_activity_at = ? WHERE id = ?", time.Now().UTC(), id)
	return err
}

// Invalidate marks a session as inactive
func (r *SessionRepository) Invalidate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET is_active = 0 WHERE id = ?", id)
	return err
}

// InvalidateAllForUser marks all of a user's sessions as inactive
func (r *SessionRepository) InvalidateAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET is_active = 0 WHERE user_id = ?", userID)
	return err
}
