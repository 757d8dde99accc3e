package services

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jphacks/tk-b-2510/internal/models"
)

// FrameRecorder receives a sequence of frames and produces a video file.
// Start must be called before WriteFrame, and Finish exactly once after
// the last frame.
type FrameRecorder interface {
	Start(width, height int, frameRate float64) error
	WriteFrame(img image.Image) error
	Finish() (string, error)
	Abort()
}

// RecorderFactory creates a recorder writing to the given output path
type RecorderFactory func(outputPath string) FrameRecorder

// FFmpegRecorder encodes frames to WebM by writing a numbered JPEG
// sequence to a scratch directory and handing it to ffmpeg
type FFmpegRecorder struct {
	ffmpegPath string
	outputPath string
	framesDir  string
	frameRate  float64
	width      int
	height     int
	count      int
}

// NewFFmpegRecorder creates a recorder backed by the given ffmpeg binary
func NewFFmpegRecorder(ffmpegPath, outputPath string) *FFmpegRecorder {
	return &FFmpegRecorder{
		ffmpegPath: ffmpegPath,
		outputPath: outputPath,
	}
}

// CheckEncoder verifies the ffmpeg binary is available on this host
func CheckEncoder(ffmpegPath string) error {
	if _, err := exec.LookPath(ffmpegPath); err != nil {
		return models.ErrUnsupportedPlatform
	}
	return nil
}

// Start prepares the scratch directory for the frame sequence
func (r *FFmpegRecorder) Start(width, height int, frameRate float64) error {
	if err := CheckEncoder(r.ffmpegPath); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	if frameRate <= 0 {
		return fmt.Errorf("invalid frame rate %v", frameRate)
	}

	framesDir, err := os.MkdirTemp("", "timelapse-frames-")
	if err != nil {
		return err
	}

	r.framesDir = framesDir
	r.frameRate = frameRate
	// yuv420p needs even dimensions
	r.width = even(width)
	r.height = even(height)
	r.count = 0
	return nil
}

// WriteFrame appends one frame to the sequence
func (r *FFmpegRecorder) WriteFrame(img image.Image) error {
	if r.framesDir == "" {
		return fmt.Errorf("recorder not started")
	}

	r.count++
	fn := filepath.Join(r.framesDir, fmt.Sprintf("frame%06d.jpg", r.count))

	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer f.Close()

	return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
}

// Finish runs ffmpeg over the frame sequence and returns the output path
func (r *FFmpegRecorder) Finish() (string, error) {
	defer r.cleanup()

	if r.count == 0 {
		return "", fmt.Errorf("no frames written")
	}

	if dir := filepath.Dir(r.outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}

	inPattern := filepath.Join(r.framesDir, "frame%06d.jpg")
	args := []string{
		"-y",
		"-framerate", fmt.Sprintf("%.6g", r.frameRate),
		"-i", inPattern,
		"-c:v", "libvpx-vp9",
		"-pix_fmt", "yuv420p",
		"-s", fmt.Sprintf("%dx%d", r.width, r.height),
		r.outputPath,
	}

	cmd := exec.CommandContext(context.Background(), r.ffmpegPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg encode: %w: %s", err, strings.TrimSpace(string(output)))
	}

	return r.outputPath, nil
}

// Abort discards the frame sequence without encoding
func (r *FFmpegRecorder) Abort() {
	r.cleanup()
}

func (r *FFmpegRecorder) cleanup() {
	if r.framesDir != "" {
		os.RemoveAll(r.framesDir)
		r.framesDir = ""
	}
}

func even(n int) int {
	if n%2 != 0 {
		return n - 1
	}
	return n
}
