package services

import (
	"context"
	"fmt"

	"github.com/jphacks/tk-b-2510/internal/models"
	"github.com/jphacks/tk-b-2510/internal/observability"
	"github.com/jphacks/tk-b-2510/internal/repository"
)

// AuthService orchestrates signup, login and session handling
type AuthService struct {
	userRepo        repository.UserRepo
	sessionRepo     repository.SessionRepo
	metrics         *observability.BusinessMetrics
	sessionDuration int // hours
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepo, sessionRepo repository.SessionRepo, sessionDuration int) *AuthService {
	if sessionDuration <= 0 {
		sessionDuration = 24
	}
	return &AuthService{
		userRepo:        userRepo,
		sessionRepo:     sessionRepo,
		sessionDuration: sessionDuration,
	}
}

// SetMetrics sets the business metrics recorder
func (s *AuthService) SetMetrics(metrics *observability.BusinessMetrics) {
	s.metrics = metrics
}

// Signup registers a new user and opens their first session
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest, ipAddress, userAgent string) (*models.LoginResponse, error) {
	ctx, span := observability.StartServiceSpan(ctx, "auth", "signup")
	defer span.End()

	if req.Password != req.ConfirmPassword {
		observability.RecordError(span, models.ErrPasswordMismatch)
		return nil, models.ErrPasswordMismatch
	}

	user, err := models.NewUser(req.Email, req.Password)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, user.Email)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}
	if existing != nil {
		observability.RecordError(span, models.ErrEmailExists)
		return nil, models.ErrEmailExists
	}

	if err := s.userRepo.Add(ctx, user); err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	observability.SetSuccess(span)
	if s.metrics != nil {
		s.metrics.RecordAuthAttempt(ctx, "signup", true)
	}

	return s.openSession(ctx, user, ipAddress, userAgent)
}

// Login verifies credentials and opens a session. Unknown emails and bad
// passwords return the same error so the response does not leak which
// accounts exist.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, ipAddress, userAgent string) (*models.LoginResponse, error) {
	ctx, span := observability.StartServiceSpan(ctx, "auth", "login")
	defer span.End()

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}

	if user == nil || !user.IsActive || !user.VerifyPassword(req.Password) {
		observability.RecordError(span, models.ErrInvalidCredentials)
		if s.metrics != nil {
			s.metrics.RecordAuthAttempt(ctx, "password", false)
		}
		return nil, models.ErrInvalidCredentials
	}

	observability.SetSuccess(span)
	if s.metrics != nil {
		s.metrics.RecordAuthAttempt(ctx, "password", true)
	}

	return s.openSession(ctx, user, ipAddress, userAgent)
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, ipAddress, userAgent string) (*models.LoginResponse, error) {
	session := models.NewSession(user.ID, ipAddress, userAgent, s.sessionDuration)
	if err := s.sessionRepo.Add(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.LoginResponse{
		AccessToken: session.ID,
		ExpiresAt:   session.ExpiresAt,
		User:        user.ToResponse(),
	}, nil
}

// GetSession resolves a session token to its session and user. Expired
// and invalidated sessions are rejected.
func (s *AuthService) GetSession(ctx context.Context, token string) (*models.Session, *models.User, error) {
	session, err := s.sessionRepo.GetByID(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil, models.ErrSessionNotFound
	}
	if !session.IsActive {
		return nil, nil, models.ErrSessionInactive
	}
	if session.IsExpired() {
		return nil, nil, models.ErrSessionExpired
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, nil, models.ErrSessionInactive
	}

	return session, user, nil
}

// TouchSession updates the session's last activity timestamp
func (s *AuthService) TouchSession(ctx context.Context, token string) {
	if err := s.sessionRepo.Touch(ctx, token); err != nil {
		observability.Warnf("Failed to touch session: %v", err)
	}
}

// Logout invalidates a single session
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessionRepo.Invalidate(ctx, token)
}

// LogoutAll invalidates every session of a user
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.sessionRepo.InvalidateAllForUser(ctx, userID)
}
