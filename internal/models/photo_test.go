package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhoto(t *testing.T) {
	t.Run("creates photo with valid parameters", func(t *testing.T) {
		userID := "user-1"
		filename := "test_photo.jpg"
		storedPath := "user-1/2025/10/test_photo.jpg"
		hash := "abc123def456abc123def456abc123def456abc123def456abc123def456abcd"
		fileSize := int64(1024)
		takenAt := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

		photo, err := NewPhoto(userID, filename, storedPath, hash, fileSize, takenAt)

		require.NoError(t, err)
		assert.NotEmpty(t, photo.ID)
		assert.Equal(t, userID, photo.UserID)
		assert.Equal(t, filename, photo.OriginalFilename)
		assert.Equal(t, storedPath, photo.StoredPath)
		assert.Equal(t, strings.ToLower(hash), photo.FileHash)
		assert.Equal(t, fileSize, photo.FileSize)
		assert.Equal(t, takenAt, photo.TakenAt)
		assert.WithinDuration(t, time.Now().UTC(), photo.UploadedAt, time.Second*5)
	})

	t.Run("rejects empty user id", func(t *testing.T) {
		_, err := NewPhoto("", "file.jpg", "path", "hash", 1024, time.Now())
		assert.ErrorIs(t, err, ErrEmptyUserID)
	})

	t.Run("rejects empty filename", func(t *testing.T) {
		_, err := NewPhoto("user-1", "", "path", "hash", 1024, time.Now())
		assert.ErrorIs(t, err, ErrEmptyFilename)
	})

	t.Run("rejects empty stored path", func(t *testing.T) {
		_, err := NewPhoto("user-1", "file.jpg", "", "hash", 1024, time.Now())
		assert.ErrorIs(t, err, ErrEmptyStoredPath)
	})

	t.Run("rejects empty hash", func(t *testing.T) {
		_, err := NewPhoto("user-1", "file.jpg", "path", "", 1024, time.Now())
		assert.ErrorIs(t, err, ErrEmptyHash)
	})

	t.Run("rejects zero file size", func(t *testing.T) {
		_, err := NewPhoto("user-1", "file.jpg", "path", "hash", 0, time.Now())
		assert.ErrorIs(t, err, ErrInvalidFileSize)
	})

	t.Run("sanitizes filename with path components", func(t *testing.T) {
		malicious := "../../../etc/passwd.jpg"

		photo, err := NewPhoto("user-1", malicious, "safe/path.jpg", "hash", 1024, time.Now())

		require.NoError(t, err)
		assert.NotContains(t, photo.OriginalFilename, "..")
		assert.NotContains(t, photo.OriginalFilename, "/")
	})

	t.Run("normalizes hash to lowercase", func(t *testing.T) {
		upperHash := "ABC123DEF456ABC123DEF456ABC123DEF456ABC123DEF456ABC123DEF456ABCD"

		photo, err := NewPhoto("user-1", "file.jpg", "path", upperHash, 1024, time.Now())

		require.NoError(t, err)
		assert.Equal(t, strings.ToLower(upperHash), photo.FileHash)
	})

	t.Run("generates unique IDs", func(t *testing.T) {
		photo1, err := NewPhoto("user-1", "a.jpg", "path1", "hash1", 100, time.Now())
		require.NoError(t, err)

		photo2, err := NewPhoto("user-1", "b.jpg", "path2", "hash2", 100, time.Now())
		require.NoError(t, err)

		assert.NotEqual(t, photo1.ID, photo2.ID)
	})
}

func TestPhoto_LocalDate(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	t.Run("converts UTC timestamp to the local calendar day", func(t *testing.T) {
		// 23:30 UTC on Oct 14 is already Oct 15 in Tokyo
		photo, err := NewPhoto("user-1", "a.jpg", "path", "hash", 100,
			time.Date(2025, 10, 14, 23, 30, 0, 0, time.UTC))
		require.NoError(t, err)

		assert.Equal(t, "2025-10-15", photo.LocalDate(tokyo))
		assert.Equal(t, "2025-10-14", photo.LocalDate(time.UTC))
	})
}

func TestPhoto_DisplayPath(t *testing.T) {
	photo, err := NewPhoto("user-1", "a.jpg", "user-1/2025/10/a.jpg", "hash", 100, time.Now())
	require.NoError(t, err)

	t.Run("falls back to stored path without a thumbnail", func(t *testing.T) {
		assert.Equal(t, "user-1/2025/10/a.jpg", photo.DisplayPath())
	})

	t.Run("prefers the thumbnail when present", func(t *testing.T) {
		thumb := ".thumbs/" + photo.ID + ".jpg"
		photo.ThumbPath = &thumb
		assert.Equal(t, thumb, photo.DisplayPath())
	})
}
