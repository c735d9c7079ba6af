package polyline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/models"
)

// Reference example from the polyline algorithm documentation.
const referenceEncoded = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var referencePoints = []models.Coordinates{
	{Latitude: 38.5, Longitude: -120.2},
	{Latitude: 40.7, Longitude: -120.95},
	{Latitude: 43.252, Longitude: -126.453},
}

func TestDecode_Reference(t *testing.T) {
	points, err := Decode(referenceEncoded)
	require.NoError(t, err)
	require.Len(t, points, len(referencePoints))

	for i, want := range referencePoints {
		assert.InDelta(t, want.Latitude, points[i].Latitude, 1e-9, "lat %d", i)
		assert.InDelta(t, want.Longitude, points[i].Longitude, 1e-9, "lng %d", i)
	}
}

func TestDecode_IsRepeatable(t *testing.T) {
	first, err := Decode(referenceEncoded)
	require.NoError(t, err)
	second, err := Decode(referenceEncoded)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecode_Empty(t *testing.T) {
	points, err := Decode("")
	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode("_p~iF~ps|U_")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEncode_RoundTrip(t *testing.T) {
	assert.Equal(t, referenceEncoded, Encode(referencePoints))
	assert.Equal(t, "", Encode(nil))

	points, err := Decode(Encode(referencePoints))
	require.NoError(t, err)
	assert.Len(t, points, 3)
}
