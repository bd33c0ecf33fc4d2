package mercator

import (
	"fmt"

	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

// shared backs the Geodetic helpers. Degree/meter conversion does not depend
// on the tile size.
var shared = mustNew(types.DefaultTileDimension)

// Geodetic is a WGS84 latitude/longitude pair in degrees. Values are not
// range-checked; latitude is clamped only when projecting.
type Geodetic struct {
	Latitude  float64
	Longitude float64
}

// NewGeodetic creates a Geodetic from latitude and longitude.
func NewGeodetic(lat, lon float64) Geodetic {
	return Geodetic{Latitude: lat, Longitude: lon}
}

// ToMeters projects the point to Web Mercator meters.
func (g Geodetic) ToMeters() types.Coordinate {
	return shared.LatLonToMeters(g.Longitude, g.Latitude)
}

// FromMeters unprojects Web Mercator meters.
func FromMeters(c types.Coordinate) Geodetic {
	return shared.MetersToLatLon(c.X, c.Y)
}

// String formats as "52.37000°, 9.73000°", latitude first.
func (g Geodetic) String() string {
	return fmt.Sprintf("%.5f°, %.5f°", g.Latitude, g.Longitude)
}

func mustNew(tileSize int) *Mercator {
	m, err := New(tileSize, Options{})
	if err != nil {
		panic(err)
	}
	return m
}
