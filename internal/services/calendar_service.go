package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jphacks/tk-b-2510/internal/models"
	"github.com/jphacks/tk-b-2510/internal/observability"
	"github.com/jphacks/tk-b-2510/internal/repository"
)

// CalendarService builds the month view of a user's diary
type CalendarService struct {
	photoRepo repository.PhotoRepo
	storage   *StorageService
	location  *time.Location
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(photoRepo repository.PhotoRepo, storage *StorageService, location *time.Location) *CalendarService {
	return &CalendarService{
		photoRepo: photoRepo,
		storage:   storage,
		location:  location,
	}
}

// MonthBounds returns the [start, end) interval covering a calendar month
func MonthBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// BuildMonth assembles the calendar grid for one month of a user's photos
func (s *CalendarService) BuildMonth(ctx context.Context, userID string, year int, month time.Month) (*models.CalendarResponse, error) {
	ctx, span := observability.StartServiceSpan(ctx, "calendar", "build_month")
	defer span.End()

	span.SetAttributes(
		observability.UserID(userID),
		observability.Month(year, int(month)),
	)

	from, to := MonthBounds(year, month, s.location)
	photos, err := s.photoRepo.GetForUserBetween(ctx, userID, from, to)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	records := make([]models.PhotoRecord, 0, len(photos))
	for _, p := range photos {
		records = append(records, models.PhotoRecord{
			ID:      p.ID,
			URL:     s.storage.PublicURL(p.DisplayPath()),
			Date:    p.LocalDate(s.location),
			Caption: p.Caption,
		})
	}

	observability.SetSuccess(span)

	return &models.CalendarResponse{
		Year:  year,
		Month: int(month),
		Weeks: BuildMonthGrid(year, month, records),
	}, nil
}

// BuildMonthGrid lays out a month as rows of exactly seven cells. Days before
// the first and after the last of the month are nil so every row keeps the
// Sunday-through-Saturday shape. Photos are grouped onto their day's cell in
// the order given.
func BuildMonthGrid(year int, month time.Month, records []models.PhotoRecord) [][]*models.CalendarCell {
	byDate := GroupPhotosByDate(records)

	daysInMonth := DaysInMonth(year, month)
	startWeekday := int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())

	cells := make([]*models.CalendarCell, 0, startWeekday+daysInMonth)
	for i := 0; i < startWeekday; i++ {
		cells = append(cells, nil)
	}
	for day := 1; day <= daysInMonth; day++ {
		date := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
		cells = append(cells, &models.CalendarCell{
			Date:   date,
			Day:    day,
			Photos: byDate[date],
		})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}

	weeks := make([][]*models.CalendarCell, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}

	return weeks
}

// GroupPhotosByDate buckets photo records by their date string, preserving
// the relative order of records within each day
func GroupPhotosByDate(records []models.PhotoRecord) map[string][]models.PhotoRecord {
	byDate := make(map[string][]models.PhotoRecord)
	for _, r := range records {
		byDate[r.Date] = append(byDate[r.Date], r)
	}
	return byDate
}
