package services

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/jphacks/tk-b-2510/internal/models"
	"github.com/jphacks/tk-b-2510/internal/observability"
	"github.com/jphacks/tk-b-2510/internal/repository"
)

// Fallback frame dimensions when no photo in the month can be decoded
const (
	DefaultFrameWidth  = 640
	DefaultFrameHeight = 480
)

// placeholderColor fills frames for photos that fail to load
var placeholderColor = color.NRGBA{R: 40, G: 40, B: 40, A: 255}

// TimelapseJob tracks one compile run for a user
type TimelapseJob struct {
	Year        int
	Month       int
	Status      string
	Progress    float64
	FramesDone  int
	FramesTotal int
	OutputPath  string
	DownloadURL string
	Error       string
	StartedAt   time.Time
}

// TimelapseService compiles a month of photos into a video. At most one
// job per user runs at a time.
type TimelapseService struct {
	photoRepo   repository.PhotoRepo
	loader      FrameLoader
	recorderFor RecorderFactory
	hub         *WebSocketHub
	metrics     *observability.BusinessMetrics
	location    *time.Location
	frameRate   float64
	outputDir   string
	ffmpegPath  string

	encoderCheck func() error

	mu   sync.RWMutex
	jobs map[string]*TimelapseJob // userID -> current job
}

// NewTimelapseService creates a new TimelapseService encoding with ffmpeg
func NewTimelapseService(
	photoRepo repository.PhotoRepo,
	loader FrameLoader,
	location *time.Location,
	frameRate float64,
	outputDir string,
	ffmpegPath string,
) *TimelapseService {
	s := &TimelapseService{
		photoRepo:  photoRepo,
		loader:     loader,
		location:   location,
		frameRate:  frameRate,
		outputDir:  outputDir,
		ffmpegPath: ffmpegPath,
		jobs:       make(map[string]*TimelapseJob),
	}
	s.recorderFor = func(outputPath string) FrameRecorder {
		return NewFFmpegRecorder(ffmpegPath, outputPath)
	}
	s.encoderCheck = func() error {
		return CheckEncoder(ffmpegPath)
	}
	return s
}

// SetWebSocketHub sets the hub for progress notifications
func (s *TimelapseService) SetWebSocketHub(hub *WebSocketHub) {
	s.hub = hub
}

// SetMetrics sets the business metrics recorder
func (s *TimelapseService) SetMetrics(metrics *observability.BusinessMetrics) {
	s.metrics = metrics
}

// SetRecorderFactory overrides how recorders are constructed and how
// encoder availability is checked
func (s *TimelapseService) SetRecorderFactory(factory RecorderFactory, check func() error) {
	s.recorderFor = factory
	s.encoderCheck = check
}

// OutputPath returns where a user's video for the month is written
func (s *TimelapseService) OutputPath(userID string, year, month int) string {
	return filepath.Join(s.outputDir, userID, models.TimelapseOutputName(year, month))
}

// Status returns the user's current or last job status
func (s *TimelapseService) Status(userID string) *models.TimelapseStatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[userID]
	if !ok {
		return &models.TimelapseStatusResponse{Status: models.TimelapseStatusIdle}
	}

	return &models.TimelapseStatusResponse{
		Status:      job.Status,
		Progress:    job.Progress,
		DownloadURL: job.DownloadURL,
		Error:       job.Error,
	}
}

// StartCompile validates the request and launches the compile job in the
// background. It rejects the request when a job is already running, when
// the month has no photos, or when no encoder is available on this host.
func (s *TimelapseService) StartCompile(ctx context.Context, userID string, year, month int, frameRate float64) (*models.TimelapseStatusResponse, error) {
	ctx, span := observability.StartServiceSpan(ctx, "timelapse", "start_compile")
	defer span.End()

	span.SetAttributes(
		observability.UserID(userID),
		observability.Month(year, month),
	)

	if month < 1 || month > 12 {
		observability.RecordError(span, models.ErrInvalidMonth)
		return nil, models.ErrInvalidMonth
	}

	if err := s.encoderCheck(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	from, to := MonthBounds(year, time.Month(month), s.location)
	photos, err := s.photoRepo.GetForUserBetween(ctx, userID, from, to)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if len(photos) == 0 {
		observability.RecordError(span, models.ErrNoPhotosForMonth)
		return nil, models.ErrNoPhotosForMonth
	}

	if frameRate <= 0 {
		frameRate = s.frameRate
	}

	s.mu.Lock()
	if job, ok := s.jobs[userID]; ok && job.Status == models.TimelapseStatusRunning {
		s.mu.Unlock()
		observability.RecordError(span, models.ErrTimelapseBusy)
		return nil, models.ErrTimelapseBusy
	}

	job := &TimelapseJob{
		Year:        year,
		Month:       month,
		Status:      models.TimelapseStatusRunning,
		FramesTotal: len(photos),
		OutputPath:  s.OutputPath(userID, year, month),
		StartedAt:   time.Now(),
	}
	s.jobs[userID] = job
	s.mu.Unlock()

	observability.SetSuccess(span)

	go s.compile(userID, job, photos, frameRate)

	return s.Status(userID), nil
}

// compile runs the encode. One frame per photo, oldest first.
func (s *TimelapseService) compile(userID string, job *TimelapseJob, photos []*models.Photo, frameRate float64) {
	ctx := context.Background()
	logger := observability.WithFields(map[string]interface{}{
		"user_id": userID,
		"month":   fmt.Sprintf("%04d-%02d", job.Year, job.Month),
	})

	sort.SliceStable(photos, func(i, j int) bool {
		return photos[i].TakenAt.Before(photos[j].TakenAt)
	})

	width, height, firstIdx, firstImg := s.probeDimensions(ctx, photos)

	recorder := s.recorderFor(job.OutputPath)
	if err := recorder.Start(width, height, frameRate); err != nil {
		logger.Errorf("Timelapse encode failed to start: %v", err)
		s.failJob(ctx, userID, job, err)
		return
	}

	background := imaging.New(width, height, color.NRGBA{A: 255})

	for i, photo := range photos {
		var img image.Image
		if i == firstIdx {
			img = firstImg
		} else {
			loaded, err := s.loader.Load(ctx, photo)
			if err != nil {
				logger.Warnf("Frame load failed for photo %s, using placeholder: %v", photo.ID, err)
			} else {
				img = loaded
			}
		}

		frame := placeholderFrame(width, height)
		if img != nil {
			fitted := imaging.Fit(img, width, height, imaging.Lanczos)
			frame = imaging.PasteCenter(background, fitted)
		}

		if err := recorder.WriteFrame(frame); err != nil {
			logger.Errorf("Timelapse frame write failed: %v", err)
			recorder.Abort()
			s.failJob(ctx, userID, job, err)
			return
		}

		s.updateProgress(userID, job, i+1)
	}

	outputPath, err := recorder.Finish()
	if err != nil {
		logger.Errorf("Timelapse encode failed: %v", err)
		s.failJob(ctx, userID, job, err)
		return
	}

	s.mu.Lock()
	job.Status = models.TimelapseStatusCompleted
	job.Progress = 1
	job.OutputPath = outputPath
	job.DownloadURL = fmt.Sprintf("/api/timelapse/%d/%d/download", job.Year, job.Month)
	s.mu.Unlock()

	logger.Infof("Timelapse completed: %d frames in %s", job.FramesTotal, time.Since(job.StartedAt).Round(time.Millisecond))

	if s.metrics != nil {
		s.metrics.RecordTimelapseJob(ctx, userID, models.TimelapseStatusCompleted)
	}
	s.notify(userID, WSTypeTimelapseComplete)
}

// probeDimensions finds the frame size from the first decodable photo.
// The loaded image is returned so the compile loop does not decode it twice.
func (s *TimelapseService) probeDimensions(ctx context.Context, photos []*models.Photo) (width, height, firstIdx int, firstImg image.Image) {
	for i, photo := range photos {
		img, err := s.loader.Load(ctx, photo)
		if err != nil {
			continue
		}
		bounds := img.Bounds()
		return bounds.Dx(), bounds.Dy(), i, img
	}
	return DefaultFrameWidth, DefaultFrameHeight, -1, nil
}

func (s *TimelapseService) updateProgress(userID string, job *TimelapseJob, done int) {
	s.mu.Lock()
	job.FramesDone = done
	job.Progress = float64(done) / float64(job.FramesTotal)
	s.mu.Unlock()

	s.notify(userID, WSTypeTimelapseProgress)
}

func (s *TimelapseService) failJob(ctx context.Context, userID string, job *TimelapseJob, err error) {
	s.mu.Lock()
	job.Status = models.TimelapseStatusFailed
	job.Progress = 0
	job.Error = err.Error()
	s.mu.Unlock()

	os.Remove(job.OutputPath)

	if s.metrics != nil {
		s.metrics.RecordTimelapseJob(ctx, userID, models.TimelapseStatusFailed)
	}
	s.notify(userID, WSTypeTimelapseFailed)
}

func (s *TimelapseService) notify(userID string, msgType string) {
	if s.hub == nil {
		return
	}

	s.mu.RLock()
	job := s.jobs[userID]
	payload := TimelapseProgressPayload{
		Status:      job.Status,
		Progress:    job.Progress,
		FramesDone:  job.FramesDone,
		FramesTotal: job.FramesTotal,
		DownloadURL: job.DownloadURL,
		Error:       job.Error,
	}
	s.mu.RUnlock()

	s.hub.BroadcastToTopic(TimelapseTopicFor(userID), WSMessage{
		Type:    msgType,
		Payload: payload,
	})
}

func placeholderFrame(width, height int) image.Image {
	return imaging.New(width, height, placeholderColor)
}
