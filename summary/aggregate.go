// Package summary computes the per-day statistics shown with a day view.
package summary

import (
	"time"

	"itinera/models"
)

// Aggregate summarises one day's items. date is the day's calendar date;
// only its year, month and day are compared against forecast entries.
// currency is the itinerary budget currency and may be empty.
func Aggregate(date time.Time, items []models.Item, forecasts []models.ForecastEntry, currency string) models.DailySummary {
	s := models.DailySummary{
		Counts:   make(map[models.Category]int, len(models.Categories)),
		Currency: currency,
	}
	for _, c := range models.Categories {
		s.Counts[c] = 0
	}

	for _, it := range items {
		s.Counts[it.Category]++

		if it.Category == models.CategoryTransport && it.Transport != nil && it.Transport.DistanceKm != nil {
			s.TotalDistanceKm += *it.Transport.DistanceKm
		}

		if it.Cost != nil {
			s.TotalCost += it.Cost.Amount
			if it.Cost.Currency != "" {
				if s.Currency == "" {
					s.Currency = it.Cost.Currency
				} else if it.Cost.Currency != s.Currency {
					s.MixedCurrencies = true
				}
			}
		}
	}

	s.Weather = MatchForecast(date, forecasts)
	return s
}

// MatchForecast returns the entry for date's calendar day, read in date's
// own location, or nil.
func MatchForecast(date time.Time, forecasts []models.ForecastEntry) *models.ForecastEntry {
	day := date.Format(models.DateLayout)
	for i := range forecasts {
		if forecasts[i].Date == day {
			f := forecasts[i]
			return &f
		}
	}
	return nil
}
