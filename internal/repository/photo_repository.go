package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jphacks/tk-b-2510/internal/models"
)

const photoColumns = `id, user_id, original_filename, stored_path, thumb_path, file_hash,
	file_size, caption, emotion, ai_comment, taken_at, uploaded_at`

// PhotoRepository handles photo persistence on SQLite
type PhotoRepository struct {
	db *sql.DB
}

// NewPhotoRepository creates a new PhotoRepository
func NewPhotoRepository(db *sql.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

func scanPhoto(row interface{ Scan(...interface{}) error }) (*models.Photo, error) {
	var photo models.Photo
	err := row.Scan(
		&photo.ID,
		&photo.UserID,
		&photo.OriginalFilename,
		&photo.StoredPath,
		&photo.ThumbPath,
		&photo.FileHash,
		&photo.FileSize,
		&photo.Caption,
		&photo.Emotion,
		&photo.AIComment,
		&photo.TakenAt,
		&photo.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// Add inserts a new photo
func (r *PhotoRepository) Add(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (` + photoColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		photo.ID,
		photo.UserID,
		photo.OriginalFilename,
		photo.StoredPath,
		photo.ThumbPath,
		photo.FileHash,
		photo.FileSize,
		photo.Caption,
		photo.Emotion,
		photo.AIComment,
		photo.TakenAt,
		photo.UploadedAt,
	)

	return err
}

// GetByID retrieves a photo by its ID
func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = ?`

	photo, err := scanPhoto(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return photo, nil
}

// GetByHash retrieves a user's photo by its file hash
func (r *PhotoRepository) GetByHash(ctx context.Context, userID, hash string) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE user_id = ? AND file_hash = ?`

	photo, err := scanPhoto(r.db.QueryRowContext(ctx, query, userID, strings.ToLower(hash)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return photo, nil
}

// GetAllForUser retrieves all of a user's photos ordered by capture time
func (r *PhotoRepository) GetAllForUser(ctx context.Context, userID string) ([]*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE user_id = ? ORDER BY taken_at DESC`
	return r.queryPhotos(ctx, query, userID)
}

// GetForUserBetween retrieves a user's photos with taken_at in [from, to)
func (r *PhotoRepository) GetForUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*models.Photo, error) {
	query := `
		SELECT ` + photoColumns + ` FROM photos
		WHERE user_id = ? AND taken_at >= ? AND taken_at < ?
		ORDER BY taken_at ASC, uploaded_at ASC
	`
	return r.queryPhotos(ctx, query, userID, from, to)
}

func (r *PhotoRepository) queryPhotos(ctx context.Context, query string, args ...interface{}) ([]*models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := []*models.Photo{}
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}

	return photos, rows.Err()
}

// GetTimestampsForUser returns the capture timestamps of all of a user's photos
func (r *PhotoRepository) GetTimestampsForUser(ctx context.Context, userID string) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT taken_at FROM photos WHERE user_id = ? ORDER BY taken_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	timestamps := []time.Time{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		timestamps = append(timestamps, t)
	}

	return timestamps, rows.Err()
}

// CountForUser returns the total number of photos for a user
func (r *PhotoRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM photos WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

// Delete removes a photo by ID
func (r *PhotoRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM photos WHERE id = ?", id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
