package services

import (
	"context"
	"errors"
	"image"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/jphacks/tk-b-2510/internal/models"
)

// fakePhotoRepo is an in-memory PhotoRepo for service tests
type fakePhotoRepo struct {
	mu     sync.Mutex
	photos map[string]*models.Photo
}

func newFakePhotoRepo() *fakePhotoRepo {
	return &fakePhotoRepo{photos: make(map[string]*models.Photo)}
}

func (r *fakePhotoRepo) Add(ctx context.Context, photo *models.Photo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.photos[photo.ID] = photo
	return nil
}

func (r *fakePhotoRepo) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.photos[id], nil
}

func (r *fakePhotoRepo) GetByHash(ctx context.Context, userID, hash string) (*models.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.photos {
		if p.UserID == userID && p.FileHash == strings.ToLower(hash) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePhotoRepo) GetAllForUser(ctx context.Context, userID string) ([]*models.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Photo
	for _, p := range r.photos {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TakenAt.After(out[j].TakenAt) })
	return out, nil
}

func (r *fakePhotoRepo) GetForUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*models.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Photo
	for _, p := range r.photos {
		if p.UserID == userID && !p.TakenAt.Before(from) && p.TakenAt.Before(to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TakenAt.Before(out[j].TakenAt) })
	return out, nil
}

func (r *fakePhotoRepo) GetTimestampsForUser(ctx context.Context, userID string) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []time.Time
	for _, p := range r.photos {
		if p.UserID == userID {
			out = append(out, p.TakenAt)
		}
	}
	return out, nil
}

func (r *fakePhotoRepo) CountForUser(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, p := range r.photos {
		if p.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakePhotoRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.photos[id]; !ok {
		return false, nil
	}
	delete(r.photos, id)
	return true, nil
}

// fakeUserRepo is an in-memory UserRepo for service tests
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Add(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == strings.TrimSpace(strings.ToLower(email)) {
			return u, nil
		}
	}
	return nil, nil
}

// fakeSessionRepo is an in-memory SessionRepo for service tests
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Add(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeSessionRepo) Touch(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.LastActivityAt = time.Now().UTC()
	}
	return nil
}

func (r *fakeSessionRepo) Invalidate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.IsActive = false
	}
	return nil
}

func (r *fakeSessionRepo) InvalidateAllForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID {
			s.IsActive = false
		}
	}
	return nil
}

// fakeFrameLoader serves images keyed by photo ID and can fail selected IDs
type fakeFrameLoader struct {
	mu      sync.Mutex
	images  map[string]image.Image
	failIDs map[string]bool
}

func newFakeFrameLoader() *fakeFrameLoader {
	return &fakeFrameLoader{
		images:  make(map[string]image.Image),
		failIDs: make(map[string]bool),
	}
}

func (l *fakeFrameLoader) set(photoID string, width, height int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.images[photoID] = imaging.New(width, height, image.White.C)
}

func (l *fakeFrameLoader) fail(photoID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failIDs[photoID] = true
}

func (l *fakeFrameLoader) Load(ctx context.Context, photo *models.Photo) (image.Image, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failIDs[photo.ID] {
		return nil, errors.New("decode failed")
	}
	if img, ok := l.images[photo.ID]; ok {
		return img, nil
	}
	return nil, errors.New("no such image")
}

// fakeRecorder records frames in memory
type fakeRecorder struct {
	mu        sync.Mutex
	output    string
	started   bool
	finished  bool
	aborted   bool
	width     int
	height    int
	frameRate float64
	frames    []image.Image
	startErr  error
	finishErr error
}

func (r *fakeRecorder) Start(width, height int, frameRate float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.started = true
	r.width = width
	r.height = height
	r.frameRate = frameRate
	return nil
}

func (r *fakeRecorder) WriteFrame(img image.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, img)
	return nil
}

func (r *fakeRecorder) Finish() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finishErr != nil {
		return "", r.finishErr
	}
	r.finished = true
	return r.output, nil
}

func (r *fakeRecorder) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aborted = true
}

func (r *fakeRecorder) frameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}
