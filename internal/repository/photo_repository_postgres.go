package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jphacks/tk-b-2510/internal/models"
)

// PhotoRepositoryPostgres handles photo persistence on PostgreSQL
type PhotoRepositoryPostgres struct {
	db *sql.DB
}

// NewPhotoRepositoryPostgres creates a new PhotoRepositoryPostgres
func NewPhotoRepositoryPostgres(db *sql.DB) *PhotoRepositoryPostgres {
	return &PhotoRepositoryPostgres{db: db}
}

// Add inserts a new photo
func (r *PhotoRepositoryPostgres) Add(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (` + photoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
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
func (r *PhotoRepositoryPostgres) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1`

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
func (r *PhotoRepositoryPostgres) GetByHash(ctx context.Context, userID, hash string) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE user_id = $1 AND file_hash = $2`

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
func (r *PhotoRepositoryPostgres) GetAllForUser(ctx context.Context, userID string) ([]*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE user_id = $1 ORDER BY taken_at DESC`
	return r.queryPhotos(ctx, query, userID)
}

// GetForUserBetween retrieves a user's photos with taken_at in [from, to)
func (r *PhotoRepositoryPostgres) GetForUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*models.Photo, error) {
	query := `
		SELECT ` + photoColumns + ` FROM photos
		WHERE user_id = $1 AND taken_at >= $2 AND taken_at < $3
		ORDER BY taken_at ASC, uploaded_at ASC
	`
	return r.queryPhotos(ctx, query, userID, from, to)
}

func (r *PhotoRepositoryPostgres) queryPhotos(ctx context.Context, query string, args ...interface{}) ([]*models.Photo, error) {
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
func (r *PhotoRepositoryPostgres) GetTimestampsForUser(ctx context.Context, userID string) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT taken_at FROM photos WHERE user_id = $1 ORDER BY taken_at DESC`, userID)
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
func (r *PhotoRepositoryPostgres) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM photos WHERE user_id = $1", userID).Scan(&count)
	return count, err
}

// Delete removes a photo by ID
func (r *PhotoRepositoryPostgres) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM photos WHERE id = $1", id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
