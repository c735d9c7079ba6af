package routeopt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/geo"
	"itinera/models"
)

func pt(lat, lng float64) models.Coordinates {
	return models.Coordinates{Latitude: lat, Longitude: lng}
}

func TestOrder_InsufficientStops(t *testing.T) {
	_, err := Order(nil)
	assert.ErrorIs(t, err, ErrInsufficientStops)

	_, err = Order([]models.Coordinates{pt(1, 1)})
	assert.ErrorIs(t, err, ErrInsufficientStops)

	_, err = OptimizeOrder([]models.RouteStop{{Coordinates: pt(1, 1)}})
	assert.ErrorIs(t, err, ErrInsufficientStops)
}

func TestOrder_TwoStopsKeepsInputOrder(t *testing.T) {
	order, err := Order([]models.Coordinates{pt(10, 10), pt(0, 0.5)})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, order)
}

func TestOrder_NearestNeighbour(t *testing.T) {
	// Points along a line, shuffled: 0 -> 3 -> 1 -> 2 is the greedy walk.
	points := []models.Coordinates{
		pt(0, 0.1),
		pt(0, 0.3),
		pt(0, 0.4),
		pt(0, 0.2),
	}
	order, err := Order(points)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 1, 2}, order)
}

func TestOrder_StartsWithFirstStop(t *testing.T) {
	points := []models.Coordinates{pt(5, 5), pt(0, 0.1), pt(0, 0.2), pt(5, 5.1)}
	order, err := Order(points)
	require.NoError(t, err)
	assert.Equal(t, 0, order[0])
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, order)
}

func TestOrder_TiesResolveToInputOrder(t *testing.T) {
	// Both candidates are exactly the same distance from the start.
	points := []models.Coordinates{pt(0, 1), pt(0, 2), pt(0, 0)}
	order, err := Order(points)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)

	points = []models.Coordinates{pt(0, 1), pt(0, 0), pt(0, 2)}
	order, err = Order(points)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestOrder_Deterministic(t *testing.T) {
	points := []models.Coordinates{
		pt(48.8566, 2.3522), pt(48.8606, 2.3376), pt(48.8530, 2.3499),
		pt(48.8738, 2.2950), pt(48.8867, 2.3431), pt(48.8462, 2.3372),
	}
	first, err := Order(points)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Order(points)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestOptimizeOrder_ReturnsStops(t *testing.T) {
	stops := []models.RouteStop{
		{Name: "hotel", Coordinates: pt(0, 0)},
		{Name: "far", Coordinates: pt(0, 3), ItemID: "item-far"},
		{Name: "near", Coordinates: pt(0, 1)},
	}
	out, err := OptimizeOrder(stops)
	require.NoError(t, err)

	names := []string{out[0].Name, out[1].Name, out[2].Name}
	assert.Equal(t, []string{"hotel", "near", "far"}, names)
	assert.Equal(t, "item-far", out[2].ItemID)
}

func TestOptimizeOrder_NeverLongerThanInputForLine(t *testing.T) {
	stops := []models.RouteStop{
		{Coordinates: pt(0, 0)}, {Coordinates: pt(0, 3)}, {Coordinates: pt(0, 1)}, {Coordinates: pt(0, 2)},
	}
	out, err := OptimizeOrder(stops)
	require.NoError(t, err)
	assert.LessOrEqual(t, pathKm(out), pathKm(stops))
}

func pathKm(stops []models.RouteStop) float64 {
	points := make([]models.Coordinates, len(stops))
	for i, s := range stops {
		points[i] = s.Coordinates
	}
	return geo.PathKm(points)
}
