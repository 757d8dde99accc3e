package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jphacks/tk-b-2510/internal/models"
)

func TestBuildMonthGrid(t *testing.T) {
	t.Run("every week has exactly seven cells", func(t *testing.T) {
		weeks := BuildMonthGrid(2025, time.October, nil)

		require.NotEmpty(t, weeks)
		for _, week := range weeks {
			assert.Len(t, week, 7)
		}
	})

	t.Run("leading cells before the first are nil", func(t *testing.T) {
		// October 1 2025 is a Wednesday (weekday 3)
		weeks := BuildMonthGrid(2025, time.October, nil)

		first := weeks[0]
		for i := 0; i < 3; i++ {
			assert.Nil(t, first[i])
		}
		require.NotNil(t, first[3])
		assert.Equal(t, 1, first[3].Day)
		assert.Equal(t, "2025-10-01", first[3].Date)
	})

	t.Run("trailing cells after the last are nil", func(t *testing.T) {
		// October 31 2025 is a Friday, so the last week ends with one nil
		weeks := BuildMonthGrid(2025, time.October, nil)

		last := weeks[len(weeks)-1]
		require.NotNil(t, last[5])
		assert.Equal(t, 31, last[5].Day)
		assert.Nil(t, last[6])
	})

	t.Run("month starting on sunday has no leading nils", func(t *testing.T) {
		// June 1 2025 is a Sunday
		weeks := BuildMonthGrid(2025, time.June, nil)

		require.NotNil(t, weeks[0][0])
		assert.Equal(t, 1, weeks[0][0].Day)
	})

	t.Run("every day of the month appears exactly once", func(t *testing.T) {
		weeks := BuildMonthGrid(2024, time.February, nil) // leap year

		seen := map[int]bool{}
		for _, week := range weeks {
			for _, cell := range week {
				if cell != nil {
					assert.False(t, seen[cell.Day], "day %d appeared twice", cell.Day)
					seen[cell.Day] = true
				}
			}
		}
		assert.Len(t, seen, 29)
	})

	t.Run("photos land on their day in given order", func(t *testing.T) {
		records := []models.PhotoRecord{
			{ID: "a", Date: "2025-10-05", URL: "/media/a.jpg"},
			{ID: "b", Date: "2025-10-05", URL: "/media/b.jpg"},
			{ID: "c", Date: "2025-10-12", URL: "/media/c.jpg"},
		}

		weeks := BuildMonthGrid(2025, time.October, records)

		var day5, day12 *models.CalendarCell
		for _, week := range weeks {
			for _, cell := range week {
				if cell == nil {
					continue
				}
				switch cell.Day {
				case 5:
					day5 = cell
				case 12:
					day12 = cell
				}
			}
		}

		require.NotNil(t, day5)
		require.Len(t, day5.Photos, 2)
		assert.Equal(t, "a", day5.Photos[0].ID)
		assert.Equal(t, "b", day5.Photos[1].ID)

		require.NotNil(t, day12)
		require.Len(t, day12.Photos, 1)
		assert.Equal(t, "c", day12.Photos[0].ID)
	})

	t.Run("days without photos have empty cells", func(t *testing.T) {
		weeks := BuildMonthGrid(2025, time.October, nil)

		for _, week := range weeks {
			for _, cell := range week {
				if cell != nil {
					assert.Empty(t, cell.Photos)
				}
			}
		}
	})
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		name     string
		year     int
		month    time.Month
		expected int
	}{
		{"january", 2025, time.January, 31},
		{"april", 2025, time.April, 30},
		{"february common year", 2025, time.February, 28},
		{"february leap year", 2024, time.February, 29},
		{"december", 2025, time.December, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysInMonth(tt.year, tt.month))
		})
	}
}

func TestMonthBounds(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	from, to := MonthBounds(2025, time.October, loc)

	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, loc), to)
}

func TestGroupPhotosByDate(t *testing.T) {
	t.Run("preserves order within a day", func(t *testing.T) {
		records := []models.PhotoRecord{
			{ID: "1", Date: "2025-10-01"},
			{ID: "2", Date: "2025-10-02"},
			{ID: "3", Date: "2025-10-01"},
		}

		grouped := GroupPhotosByDate(records)

		require.Len(t, grouped["2025-10-01"], 2)
		assert.Equal(t, "1", grouped["2025-10-01"][0].ID)
		assert.Equal(t, "3", grouped["2025-10-01"][1].ID)
		require.Len(t, grouped["2025-10-02"], 1)
	})

	t.Run("empty input yields empty map", func(t *testing.T) {
		assert.Empty(t, GroupPhotosByDate(nil))
	})
}
