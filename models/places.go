package models

import "time"

type Coordinates struct {
	Latitude  float64 `json:"lat" bson:"lat"`
	Longitude float64 `json:"lng" bson:"lng"`
}

// Valid reports whether c is inside WGS-84 bounds. The zero pair is treated
// as "not set", since that is what an omitted JSON location decodes to.
func (c Coordinates) Valid() bool {
	if c.Latitude == 0 && c.Longitude == 0 {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Place is an entry of the location directory that items can reference by ID.
type Place struct {
	PlaceID   string      `json:"placeid" bson:"placeid"`
	Name      string      `json:"name" bson:"name"`
	Address   string      `json:"address" bson:"address"`
	City      string      `json:"city,omitempty" bson:"city,omitempty"`
	Country   string      `json:"country,omitempty" bson:"country,omitempty"`
	Category  string      `json:"category" bson:"category"`
	Location  Coordinates `json:"location" bson:"location,omitempty"`
	Status    string      `json:"status,omitempty" bson:"status,omitempty"`
	DeletedAt *time.Time  `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
}

const (
	PlaceStatusActive = "active"
	PlaceStatusClosed = "closed"
)
