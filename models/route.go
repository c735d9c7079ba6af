package models

type TravelMode string

const (
	ModeDriving   TravelMode = "driving"
	ModeWalking   TravelMode = "walking"
	ModeBicycling TravelMode = "bicycling"
	ModeTransit   TravelMode = "transit"
)

// ParseTravelMode maps an empty string to driving and rejects unknown modes.
func ParseTravelMode(s string) (TravelMode, bool) {
	switch TravelMode(s) {
	case "":
		return ModeDriving, true
	case ModeDriving, ModeWalking, ModeBicycling, ModeTransit:
		return TravelMode(s), true
	}
	return "", false
}

type RouteStop struct {
	ItemID      string      `json:"itemid,omitempty"`
	Name        string      `json:"name,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}

type RouteStep struct {
	Instruction     string  `json:"instruction"`
	DistanceKm      float64 `json:"distance_km"`
	DurationSeconds int64   `json:"duration_seconds"`
}

// RouteResult is a computed route. Estimated marks results derived from
// great-circle distances instead of a directions provider; callers must not
// mix the two silently.
type RouteResult struct {
	Stops           []RouteStop   `json:"stops"`
	Mode            TravelMode    `json:"mode"`
	DistanceKm      float64       `json:"distance_km"`
	DurationSeconds int64         `json:"duration_seconds"`
	Steps           []RouteStep   `json:"steps"`
	Polyline        string        `json:"polyline,omitempty"`
	Path            []Coordinates `json:"path"`
	Estimated       bool          `json:"estimated"`
	// ProviderStatus carries the upstream error status when an estimate
	// replaced a failed provider call.
	ProviderStatus string `json:"provider_status,omitempty"`
}
