package services

import (
	"context"
	"time"

	"github.com/jphacks/tk-b-2510/internal/models"
	"github.com/jphacks/tk-b-2510/internal/observability"
	"github.com/jphacks/tk-b-2510/internal/repository"
)

// StreakService computes how many consecutive days a user has posted
type StreakService struct {
	photoRepo repository.PhotoRepo
	location  *time.Location
	now       func() time.Time
}

// NewStreakService creates a new StreakService
func NewStreakService(photoRepo repository.PhotoRepo, location *time.Location) *StreakService {
	return &StreakService{
		photoRepo: photoRepo,
		location:  location,
		now:       time.Now,
	}
}

// Current returns the user's current posting streak and total post count
func (s *StreakService) Current(ctx context.Context, userID string) (*models.StreakResponse, error) {
	ctx, span := observability.StartServiceSpan(ctx, "streak", "current")
	defer span.End()

	span.SetAttributes(observability.UserID(userID))

	timestamps, err := s.photoRepo.GetTimestampsForUser(ctx, userID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.SetSuccess(span)

	return &models.StreakResponse{
		StreakDays: ComputeStreak(timestamps, s.now(), s.location),
		PostCount:  len(timestamps),
	}, nil
}

// LocalDay truncates a timestamp to midnight of its calendar day in loc
func LocalDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// ComputeStreak counts consecutive calendar days with at least one post,
// ending today. A missing post today breaks the streak to zero regardless
// of earlier activity. Multiple posts on one day count once.
func ComputeStreak(timestamps []time.Time, today time.Time, loc *time.Location) int {
	if len(timestamps) == 0 {
		return 0
	}

	days := make(map[time.Time]bool, len(timestamps))
	for _, t := range timestamps {
		days[LocalDay(t, loc)] = true
	}

	day := LocalDay(today, loc)
	if !days[day] {
		return 0
	}

	streak := 1
	for {
		day = day.AddDate(0, 0, -1)
		if !days[day] {
			break
		}
		streak++
	}

	return streak
}
