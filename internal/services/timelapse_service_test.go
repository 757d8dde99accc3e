package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jphacks/tk-b-2510/internal/models"
)

func newTimelapseFixture(t *testing.T) (*TimelapseService, *fakePhotoRepo, *fakeFrameLoader, *fakeRecorder) {
	t.Helper()

	photoRepo := newFakePhotoRepo()
	loader := newFakeFrameLoader()
	recorder := &fakeRecorder{output: "out.webm"}

	svc := NewTimelapseService(photoRepo, loader, time.UTC, 2, t.TempDir(), "ffmpeg")
	svc.SetRecorderFactory(
		func(outputPath string) FrameRecorder { return recorder },
		func() error { return nil },
	)

	return svc, photoRepo, loader, recorder
}

func addTestPhoto(t *testing.T, repo *fakePhotoRepo, userID string, takenAt time.Time) *models.Photo {
	t.Helper()

	hash := fmt.Sprintf("%064x", len(repo.photos)+1)
	photo, err := models.NewPhoto(userID, "IMG.jpg", "path/IMG.jpg", hash, 100, takenAt)
	require.NoError(t, err)
	require.NoError(t, repo.Add(context.Background(), photo))
	return photo
}

func waitForJob(t *testing.T, svc *TimelapseService, userID string) *models.TimelapseStatusResponse {
	t.Helper()

	require.Eventually(t, func() bool {
		return svc.Status(userID).Status != models.TimelapseStatusRunning
	}, 5*time.Second, 10*time.Millisecond)

	return svc.Status(userID)
}

func TestTimelapseService_StartCompile(t *testing.T) {
	day := time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC)

	t.Run("rejects a month with no photos before any recording starts", func(t *testing.T) {
		svc, _, _, recorder := newTimelapseFixture(t)

		_, err := svc.StartCompile(context.Background(), "user1", 2025, 10, 0)

		assert.ErrorIs(t, err, models.ErrNoPhotosForMonth)
		assert.False(t, recorder.started)
	})

	t.Run("rejects an invalid month", func(t *testing.T) {
		svc, _, _, _ := newTimelapseFixture(t)

		_, err := svc.StartCompile(context.Background(), "user1", 2025, 13, 0)
		assert.ErrorIs(t, err, models.ErrInvalidMonth)

		_, err = svc.StartCompile(context.Background(), "user1", 2025, 0, 0)
		assert.ErrorIs(t, err, models.ErrInvalidMonth)
	})

	t.Run("rejects when the encoder is unavailable", func(t *testing.T) {
		svc, photoRepo, _, recorder := newTimelapseFixture(t)
		addTestPhoto(t, photoRepo, "user1", day)
		svc.SetRecorderFactory(
			func(outputPath string) FrameRecorder { return recorder },
			func() error { return models.ErrUnsupportedPlatform },
		)

		_, err := svc.StartCompile(context.Background(), "user1", 2025, 10, 0)

		assert.ErrorIs(t, err, models.ErrUnsupportedPlatform)
		assert.False(t, recorder.started)
	})

	t.Run("rejects a second job while one is running", func(t *testing.T) {
		svc, photoRepo, _, _ := newTimelapseFixture(t)
		addTestPhoto(t, photoRepo, "user1", day)

		svc.mu.Lock()
		svc.jobs["user1"] = &TimelapseJob{Status: models.TimelapseStatusRunning}
		svc.mu.Unlock()

		_, err := svc.StartCompile(context.Background(), "user1", 2025, 10, 0)
		assert.ErrorIs(t, err, models.ErrTimelapseBusy)
	})

	t.Run("compiles one frame per photo oldest first", func(t *testing.T) {
		svc, photoRepo, loader, recorder := newTimelapseFixture(t)

		for i := 0; i < 3; i++ {
			p := addTestPhoto(t, photoRepo, "user1", day.AddDate(0, 0, i))
			loader.set(p.ID, 800, 600)
		}

		status, err := svc.StartCompile(context.Background(), "user1", 2025, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, models.TimelapseStatusRunning, status.Status)

		final := waitForJob(t, svc, "user1")

		assert.Equal(t, models.TimelapseStatusCompleted, final.Status)
		assert.Equal(t, 1.0, final.Progress)
		assert.Equal(t, "/api/timelapse/2025/10/download", final.DownloadURL)
		assert.Equal(t, 3, recorder.frameCount())
		assert.True(t, recorder.finished)
	})

	t.Run("frame size comes from the first decodable photo", func(t *testing.T) {
		svc, photoRepo, loader, recorder := newTimelapseFixture(t)

		first := addTestPhoto(t, photoRepo, "user1", day)
		second := addTestPhoto(t, photoRepo, "user1", day.AddDate(0, 0, 1))
		loader.set(first.ID, 1024, 768)
		loader.set(second.ID, 300, 500)

		_, err := svc.StartCompile(context.Background(), "user1", 2025, 10, 0)
		require.NoError(t, err)
		waitForJob(t, svc, "user1")

		assert.Equal(t, 1024, recorder.width)
		assert.Equal(t, 768, recorder.height)

		// Every frame matches the canvas regardless of source aspect
		for _, frame := range recorder.frames {
			assert.Equal(t, 1024, frame.Bounds().Dx())
			assert.Equal(t, 768, frame.Bounds().Dy())
		}
	})

	t.Run("unloadable photo becomes a placeholder frame", func(t *testing.T) {
		svc, photoRepo, loader, recorder := newTimelapseFixture(t)

		ok1 := addTestPhoto(t, photoRepo, "user1", day)
		bad := addTestPhoto(t, photoRepo, "user1", day.AddDate(0, 0, 1))
		ok2 := addTestPhoto(t, photoRepo, "user1", day.AddDate(0, 0, 2))
		loader.set(ok1.ID, 640, 480)
		loader.set(ok2.ID, 640, 480)
		loader.fail(bad.ID)

		_, err := svc.StartCompile(context.Background(), "user1", 2025, 10, 0)
		require.NoError(t, err)
		final := waitForJob(t, svc, "user1")

		assert.Equal(t, models.TimelapseStatusCompleted, final.Status)
		assert.Equal(t, 3, recorder.frameCount())
	})

	t.Run("no decodable photo falls back to default frame size", func(t *testing.T) {
		svc, photoRepo, loader, recorder := newTimelapseFixture(t)

		p := addTestPhoto(t, photoRepo, "user1", day)
		loader.fail(p.ID)

		_, err := svc.StartCompile(context.Background(), "user1", 2025, 10, 0)
		require.NoError(t, err)
		final := waitForJob(t, svc, "user1")

		assert.Equal(t, models.TimelapseStatusCompleted, final.Status)
		assert.Equal(t, DefaultFrameWidth, recorder.width)
		assert.Equal(t, DefaultFrameHeight, recorder.height)
	})

	t.Run("recorder start failure fails the job", func(t *testing.T) {
		svc, photoRepo, loader, recorder := newTimelapseFixture(t)
		recorder.startErr = errors.New("disk full")

		p := addTestPhoto(t, photoRepo, "user1", day)
		loader.set(p.ID, 640, 480)

		_, err := svc.StartCompile(context.Background(), "user1", 2025, 10, 0)
		require.NoError(t, err)
		final := waitForJob(t, svc, "user1")

		assert.Equal(t, models.TimelapseStatusFailed, final.Status)
		assert.Equal(t, 0.0, final.Progress)
		assert.Contains(t, final.Error, "disk full")
	})

	t.Run("encode failure fails the job", func(t *testing.T) {
		svc, photoRepo, loader, recorder := newTimelapseFixture(t)
		recorder.finishErr = errors.New("encode error")

		p := addTestPhoto(t, photoRepo, "user1", day)
		loader.set(p.ID, 640, 480)

		_, err := svc.StartCompile(context.Background(), "user1", 2025, 10, 0)
		require.NoError(t, err)
		final := waitForJob(t, svc, "user1")

		assert.Equal(t, models.TimelapseStatusFailed, final.Status)
		assert.Contains(t, final.Error, "encode error")
	})

	t.Run("only photos from the requested month are used", func(t *testing.T) {
		svc, photoRepo, loader, recorder := newTimelapseFixture(t)

		inMonth := addTestPhoto(t, photoRepo, "user1", day)
		outMonth := addTestPhoto(t, photoRepo, "user1", day.AddDate(0, 1, 0))
		loader.set(inMonth.ID, 640, 480)
		loader.set(outMonth.ID, 640, 480)

		_, err := svc.StartCompile(context.Background(), "user1", 2025, 10, 0)
		require.NoError(t, err)
		waitForJob(t, svc, "user1")

		assert.Equal(t, 1, recorder.frameCount())
	})

	t.Run("completed job allows a new compile", func(t *testing.T) {
		svc, photoRepo, loader, recorder := newTimelapseFixture(t)

		p := addTestPhoto(t, photoRepo, "user1", day)
		loader.set(p.ID, 640, 480)

		_, err := svc.StartCompile(context.Background(), "user1", 2025, 10, 0)
		require.NoError(t, err)
		waitForJob(t, svc, "user1")

		_, err = svc.StartCompile(context.Background(), "user1", 2025, 10, 0)
		require.NoError(t, err)
		final := waitForJob(t, svc, "user1")

		assert.Equal(t, models.TimelapseStatusCompleted, final.Status)
		assert.Equal(t, 2, recorder.frameCount())
	})
}

func TestTimelapseService_Status(t *testing.T) {
	t.Run("unknown user is idle", func(t *testing.T) {
		svc, _, _, _ := newTimelapseFixture(t)

		status := svc.Status("nobody")
		assert.Equal(t, models.TimelapseStatusIdle, status.Status)
		assert.Equal(t, 0.0, status.Progress)
	})
}

func TestTimelapseOutputName(t *testing.T) {
	assert.Equal(t, "timelapse-2025-10.webm", models.TimelapseOutputName(2025, 10))
	assert.Equal(t, "timelapse-2026-1.webm", models.TimelapseOutputName(2026, 1))
}
