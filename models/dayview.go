package models

import "time"

// ForecastEntry is the weather for one calendar date. Date uses DateLayout
// so it names the same day in every time zone.
type ForecastEntry struct {
	ItineraryID   string  `json:"itineraryid,omitempty" bson:"itineraryid"`
	Date          string  `json:"date" bson:"date"`
	Condition     string  `json:"condition" bson:"condition"`
	HighTemp      float64 `json:"high_temp" bson:"high_temp"`
	LowTemp       float64 `json:"low_temp" bson:"low_temp"`
	Precipitation float64 `json:"precipitation" bson:"precipitation"`
}

type TimeSlot struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Occupied bool      `json:"occupied"`
	ItemIDs  []string  `json:"item_ids,omitempty"`
}

type DailySummary struct {
	Counts          map[Category]int `json:"counts"`
	TotalDistanceKm float64          `json:"total_distance_km"`
	TotalCost       float64          `json:"total_cost"`
	Currency        string           `json:"currency,omitempty"`
	MixedCurrencies bool             `json:"mixed_currencies,omitempty"`
	Weather         *ForecastEntry   `json:"weather,omitempty"`
}

// DayView is the derived, non-persisted picture of one trip day.
type DayView struct {
	ItineraryID string       `json:"itineraryid"`
	DayIndex    int          `json:"day_index"`
	Date        string       `json:"date"`
	Items       []Item       `json:"items"`
	Slots       []TimeSlot   `json:"slots"`
	FreeSlots   []TimeSlot   `json:"free_slots"`
	Summary     DailySummary `json:"summary"`
}
