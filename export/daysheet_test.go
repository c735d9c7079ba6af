package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/models"
)

func TestDaySheet(t *testing.T) {
	it := &models.Itinerary{Name: "Gold Country", StartDate: "2024-03-01", EndDate: "2024-03-03"}
	start := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	view := &models.DayView{
		DayIndex: 2,
		Date:     "2024-03-02",
		Items: []models.Item{{
			Title:    "Café breakfast",
			Category: models.CategoryMeal,
			Start:    start,
			End:      start.Add(time.Hour),
			Cost:     &models.Money{Amount: 12.5, Currency: "USD"},
			Location: &models.Location{Name: "Murphys"},
		}},
		Summary: models.DailySummary{
			Counts:    map[models.Category]int{models.CategoryMeal: 1},
			TotalCost: 12.5,
			Currency:  "USD",
			Weather:   &models.ForecastEntry{Condition: "Sunny", HighTemp: 18, LowTemp: 6},
		},
	}

	pdf, err := DaySheet(it, view, "https://example.com/itineraries/abc/days/2")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	plain, err := DaySheet(it, &models.DayView{DayIndex: 1, Date: "2024-03-01"}, "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(plain, []byte("%PDF-")))
	assert.Less(t, len(plain), len(pdf), "the QR image makes the shared sheet larger")
}

func TestCountsLine(t *testing.T) {
	assert.Equal(t, "No items", countsLine(map[models.Category]int{}))
	assert.Equal(t, "2 activity, 1 meal", countsLine(map[models.Category]int{
		models.CategoryMeal:     1,
		models.CategoryActivity: 2,
		models.CategoryRest:     0,
	}))
}
