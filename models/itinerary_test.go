package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationDays(t *testing.T) {
	it := Itinerary{StartDate: "2024-03-01", EndDate: "2024-03-03"}
	assert.Equal(t, 3, it.DurationDays())

	it.EndDate = "2024-03-01"
	assert.Equal(t, 1, it.DurationDays())

	it.EndDate = "2024-02-28"
	assert.Equal(t, 0, it.DurationDays())

	it.EndDate = "not a date"
	assert.Equal(t, 0, it.DurationDays())
	assert.Nil(t, it.Days())
}

func TestDaysAcrossDST(t *testing.T) {
	it := Itinerary{StartDate: "2024-03-09", EndDate: "2024-03-11", TimeZone: "America/Los_Angeles"}
	days := it.Days()
	require.Len(t, days, 3)
	for i, d := range days {
		assert.Equal(t, 0, d.Hour(), "day %d", i+1)
		assert.Equal(t, 9+i, d.Day())
	}
}

func TestDateOf(t *testing.T) {
	it := Itinerary{StartDate: "2024-03-01", EndDate: "2024-03-03", TimeZone: "Europe/Paris"}

	d, ok := it.DateOf(2)
	require.True(t, ok)
	assert.Equal(t, "2024-03-02", d.Format(DateLayout))
	assert.Equal(t, "Europe/Paris", d.Location().String())

	_, ok = it.DateOf(0)
	assert.False(t, ok)
	_, ok = it.DateOf(4)
	assert.False(t, ok)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, (&Itinerary{}).Location())
	assert.Equal(t, time.UTC, (&Itinerary{TimeZone: "Mars/Olympus"}).Location())
}

func TestCollaboratorLookup(t *testing.T) {
	it := Itinerary{Collaborators: []Collaborator{{UserID: "u2", Permission: PermissionEdit}}}
	c, ok := it.Collaborator("u2")
	require.True(t, ok)
	assert.Equal(t, PermissionEdit, c.Permission)
	_, ok = it.Collaborator("u3")
	assert.False(t, ok)
}

func TestItemHelpers(t *testing.T) {
	var item Item
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	item.SetTimes(start, start.Add(90*time.Minute))
	assert.Equal(t, 90*time.Minute, item.Duration)

	assert.False(t, item.Located())
	item.Location = &Location{}
	assert.False(t, item.Located())
	item.Location.Coordinates = Coordinates{Latitude: 38.13, Longitude: -120.46}
	assert.True(t, item.Located())
}

func TestCoordinatesValid(t *testing.T) {
	assert.False(t, Coordinates{}.Valid())
	assert.True(t, Coordinates{Latitude: -90, Longitude: 180}.Valid())
	assert.False(t, Coordinates{Latitude: 91, Longitude: 0}.Valid())
	assert.False(t, Coordinates{Latitude: 10, Longitude: -181}.Valid())
}

func TestParsing(t *testing.T) {
	mode, ok := ParseTravelMode("")
	assert.True(t, ok)
	assert.Equal(t, ModeDriving, mode)
	_, ok = ParseTravelMode("teleport")
	assert.False(t, ok)

	assert.True(t, CategoryMeal.Valid())
	assert.False(t, Category("spa").Valid())
	assert.True(t, PermissionView.Valid())
	assert.False(t, Permission("admin").Valid())
}
