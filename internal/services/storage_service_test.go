package services

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) (*StorageService, string) {
	t.Helper()

	tempDir := t.TempDir()
	svc, err := NewStorageService(tempDir, nil, 50)
	require.NoError(t, err)

	return svc, tempDir
}

func TestStorageService_Store(t *testing.T) {
	t.Run("stores file under user and Year/Month folders", func(t *testing.T) {
		svc, _ := setupTestStorage(t)

		content := []byte("fake image content")
		takenAt := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

		storedPath, err := svc.Store(
			bytes.NewReader(content),
			"user1",
			"test_photo.jpg",
			takenAt,
			int64(len(content)),
		)

		require.NoError(t, err)
		assert.True(t, filepath.HasPrefix(storedPath, "user1/2025/10/"))
		assert.True(t, strings.HasSuffix(storedPath, ".jpg"))
		assert.True(t, svc.Exists(storedPath))
	})

	t.Run("creates unique filename for duplicates", func(t *testing.T) {
		svc, _ := setupTestStorage(t)

		content := []byte("content")
		takenAt := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

		path1, err := svc.Store(bytes.NewReader(content), "user1", "duplicate.jpg", takenAt, int64(len(content)))
		require.NoError(t, err)

		path2, err := svc.Store(bytes.NewReader(content), "user1", "duplicate.jpg", takenAt, int64(len(content)))
		require.NoError(t, err)

		assert.NotEqual(t, path1, path2)
		assert.True(t, svc.Exists(path1))
		assert.True(t, svc.Exists(path2))
	})

	t.Run("rejects disallowed extensions", func(t *testing.T) {
		svc, _ := setupTestStorage(t)

		disallowed := []string{".exe", ".bat", ".sh", ".php"}
		for _, ext := range disallowed {
			_, err := svc.Store(
				bytes.NewReader([]byte("content")),
				"user1",
				"file"+ext,
				time.Now(),
				7,
			)
			assert.Error(t, err, "extension %s should be rejected", ext)
		}
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		tempDir := t.TempDir()
		svc, err := NewStorageService(tempDir, nil, 1)
		require.NoError(t, err)

		_, err = svc.Store(
			bytes.NewReader([]byte("content")),
			"user1",
			"big.jpg",
			time.Now(),
			2*1024*1024,
		)
		assert.Error(t, err)
	})

	t.Run("sanitizes path traversal attempts", func(t *testing.T) {
		svc, _ := setupTestStorage(t)

		maliciousNames := []string{
			"../../../etc/passwd.jpg",
			"..\\..\\windows\\system32.jpg",
			"/etc/passwd.jpg",
		}

		for _, name := range maliciousNames {
			storedPath, err := svc.Store(
				bytes.NewReader([]byte("content")),
				"user1",
				name,
				time.Now(),
				7,
			)

			require.NoError(t, err)
			assert.NotContains(t, storedPath, "..")
			assert.NotContains(t, storedPath, "/etc/")
			assert.NotContains(t, storedPath, "\\windows\\")
		}
	})
}

func TestStorageService_Delete(t *testing.T) {
	t.Run("deletes existing file", func(t *testing.T) {
		svc, _ := setupTestStorage(t)

		storedPath, err := svc.Store(
			bytes.NewReader([]byte("content")),
			"user1",
			"delete_me.jpg",
			time.Now(),
			7,
		)
		require.NoError(t, err)
		assert.True(t, svc.Exists(storedPath))

		result := svc.Delete(storedPath)
		assert.True(t, result)
		assert.False(t, svc.Exists(storedPath))
	})

	t.Run("returns false for non-existent file", func(t *testing.T) {
		svc, _ := setupTestStorage(t)

		result := svc.Delete("user1/2025/01/nonexistent.jpg")
		assert.False(t, result)
	})
}

func TestStorageService_GetFullPath(t *testing.T) {
	t.Run("returns full path for valid stored path", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)

		fullPath, err := svc.GetFullPath("user1/2025/10/test.jpg")
		require.NoError(t, err)
		assert.True(t, filepath.HasPrefix(fullPath, tempDir))
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		svc, _ := setupTestStorage(t)

		_, err := svc.GetFullPath("../../../etc/passwd")
		assert.Error(t, err)
	})
}

func TestStorageService_PublicURL(t *testing.T) {
	svc, _ := setupTestStorage(t)

	assert.Equal(t, "/media/user1/2025/10/a.jpg", svc.PublicURL("user1/2025/10/a.jpg"))
	assert.Equal(t, "/media/user1/2025/10/a.jpg", svc.PublicURL("/user1/2025/10/a.jpg"))
}

func TestStorageService_OwnedBy(t *testing.T) {
	svc, _ := setupTestStorage(t)

	assert.True(t, svc.OwnedBy("user1/2025/10/a.jpg", "user1"))
	assert.False(t, svc.OwnedBy("user2/2025/10/a.jpg", "user1"))
	assert.False(t, svc.OwnedBy("a.jpg", "user1"))
}
