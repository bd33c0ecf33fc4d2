// Package mercator converts between WGS84 degrees, spherical Web Mercator
// meters (EPSG:3857), global pixel coordinates and zoom-level resolutions.
//
// Pixel coordinates follow the TMS convention: the pixel origin is the
// south-west corner of the world at (-OriginShift, -OriginShift) and pixel Y
// grows northwards.
//
// A Mercator value is immutable after New and safe for concurrent use.
package mercator

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/tilepyramid/internal/tile"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

const (
	// EarthRadius is the radius of the Web Mercator sphere in meters.
	EarthRadius = 6378137.0
	// MaxLatitude is the northern limit of Web Mercator; the southern limit is its negation.
	MaxLatitude = 85.05112878
	// MaxZoom is the deepest supported zoom level. 2^zoom tiles per axis must
	// fit a signed 32-bit integer.
	MaxZoom = tile.MaxLevel

	// slack allowed on the world bounds in strict mode, in meters
	boundsTolerance = 1e-6
)

// Options tunes a Mercator engine.
type Options struct {
	// StrictBounds makes PixelToMeters and MetersToPixels reject meters
	// outside [-OriginShift, OriginShift] instead of passing them through.
	StrictBounds bool
}

// Mercator is a projection engine for one tile size.
type Mercator struct {
	tileSize          int
	initialResolution float64
	originShift       float64
	strict            bool
}

// New creates an engine for the given tile size in pixels.
func New(tileSize int, opts Options) (*Mercator, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("%w: tile size must be positive, got %d", types.ErrConstructionInvariant, tileSize)
	}
	return &Mercator{
		tileSize:          tileSize,
		initialResolution: 2 * math.Pi * EarthRadius / float64(tileSize), // 156543.03392804062 for 256 px tiles
		originShift:       math.Pi * EarthRadius,                         // 20037508.342789244
		strict:            opts.StrictBounds,
	}, nil
}

// TileSize returns the tile edge in pixels.
func (m *Mercator) TileSize() int { return m.tileSize }

// InitialResolution returns the meters per pixel at zoom 0.
func (m *Mercator) InitialResolution() float64 { return m.initialResolution }

// OriginShift returns half the world width in meters.
func (m *Mercator) OriginShift() float64 { return m.originShift }

// Strict reports whether out-of-world meters are rejected.
func (m *Mercator) Strict() bool { return m.strict }

// WorldExtent returns the full projected extent in meters.
func (m *Mercator) WorldExtent() types.Extent {
	return types.MustExtent(-m.originShift, -m.originShift, m.originShift, m.originShift)
}

// LatLonToMeters projects WGS84 degrees to meters. Latitude is clamped to
// [-MaxLatitude, MaxLatitude]; longitude is neither clamped nor wrapped.
func (m *Mercator) LatLonToMeters(lon, lat float64) types.Coordinate {
	lat = clampLatitude(lat)

	mx := lon * m.originShift / 180.0
	my := math.Log(math.Tan((90+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	my = my * m.originShift / 180.0

	return types.Coordinate{X: mx, Y: my}
}

// MetersToLatLon is the inverse of LatLonToMeters.
func (m *Mercator) MetersToLatLon(mx, my float64) Geodetic {
	lon := (mx / m.originShift) * 180.0
	lat := (my / m.originShift) * 180.0
	lat = 180 / math.Pi * (2*math.Atan(math.Exp(lat*math.Pi/180.0)) - math.Pi/2.0)

	return Geodetic{Latitude: lat, Longitude: lon}
}

// Resolution returns the meters per pixel at zoom, measured at the equator.
func (m *Mercator) Resolution(zoom int) (float64, error) {
	if err := checkZoom(zoom); err != nil {
		return 0, err
	}
	return m.initialResolution / float64(int64(1)<<zoom), nil
}

// ResolutionAt returns the Resolution record for zoom.
func (m *Mercator) ResolutionAt(zoom int) (types.Resolution, error) {
	res, err := m.Resolution(zoom)
	if err != nil {
		return types.Resolution{}, err
	}
	return types.NewResolutionWithSize(zoom, res, m.tileSize, m.tileSize)
}

// Resolutions returns the Resolution records for every zoom in [minZoom, maxZoom].
func (m *Mercator) Resolutions(minZoom, maxZoom int) (map[int]types.Resolution, error) {
	if minZoom > maxZoom {
		return nil, fmt.Errorf("%w: min zoom %d is greater than max zoom %d", types.ErrRange, minZoom, maxZoom)
	}
	out := make(map[int]types.Resolution, maxZoom-minZoom+1)
	for z := minZoom; z <= maxZoom; z++ {
		r, err := m.ResolutionAt(z)
		if err != nil {
			return nil, err
		}
		out[z] = r
	}
	return out, nil
}

// PixelToMeters converts global pixel coordinates at zoom to meters.
func (m *Mercator) PixelToMeters(px, py float64, zoom int) (types.Coordinate, error) {
	res, err := m.Resolution(zoom)
	if err != nil {
		return types.Coordinate{}, err
	}
	c := types.Coordinate{
		X: px*res - m.originShift,
		Y: py*res - m.originShift,
	}
	if m.strict {
		if err := m.checkBounds(c); err != nil {
			return types.Coordinate{}, err
		}
	}
	return c, nil
}

// MetersToPixels converts meters to global pixel coordinates at zoom.
// Non-finite input is rejected with ErrInvalidArgument before the zoom is
// checked; the strict bounds check runs after it.
func (m *Mercator) MetersToPixels(mx, my float64, zoom int) (types.Coordinate, error) {
	c := types.Coordinate{X: mx, Y: my}
	if !c.IsFinite() {
		return types.Coordinate{}, fmt.Errorf("%w: meters %v must be finite", types.ErrInvalidArgument, c)
	}
	res, err := m.Resolution(zoom)
	if err != nil {
		return types.Coordinate{}, err
	}
	if m.strict {
		if err := m.checkBounds(c); err != nil {
			return types.Coordinate{}, err
		}
	}
	return types.Coordinate{
		X: (mx + m.originShift) / res,
		Y: (my + m.originShift) / res,
	}, nil
}

// LatLonExtentToMeters projects an extent in degrees (X = lon, Y = lat).
func (m *Mercator) LatLonExtentToMeters(e types.Extent) (types.Extent, error) {
	lo := m.LatLonToMeters(e.MinX(), e.MinY())
	hi := m.LatLonToMeters(e.MaxX(), e.MaxY())
	return types.NewExtent(lo.X, lo.Y, hi.X, hi.Y)
}

func (m *Mercator) checkBounds(c types.Coordinate) error {
	limit := m.originShift + boundsTolerance
	// negated comparisons so that NaN fails too
	if !(math.Abs(c.X) <= limit) || !(math.Abs(c.Y) <= limit) {
		return fmt.Errorf("%w: meters %v outside world bounds ±%.2f", types.ErrRange, c, m.originShift)
	}
	return nil
}

func checkZoom(zoom int) error {
	if zoom < 0 {
		return fmt.Errorf("%w: zoom %d is negative", types.ErrRange, zoom)
	}
	if zoom > MaxZoom {
		return fmt.Errorf("%w: 2^%d tiles per axis is not representable (max zoom %d)", types.ErrOverflow, zoom, MaxZoom)
	}
	return nil
}

func clampLatitude(lat float64) float64 {
	if lat > MaxLatitude {
		return MaxLatitude
	}
	if lat < -MaxLatitude {
		return -MaxLatitude
	}
	return lat
}
