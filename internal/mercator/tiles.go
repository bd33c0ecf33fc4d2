package mercator

import (
	"fmt"
	"math"
	"strings"

	"github.com/MeKo-Tech/tilepyramid/internal/tile"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

// PixelsToTile returns the address of the tile containing the global pixel.
// Pixels on a tile edge belong to the tile to their north-east.
func (m *Mercator) PixelsToTile(px, py float64) tile.Address {
	ts := float64(m.tileSize)
	return tile.Address{
		X: int(math.Floor(px / ts)),
		Y: int(math.Floor(py / ts)),
	}
}

// MetersToTile returns the index of the tile containing the point at zoom.
func (m *Mercator) MetersToTile(mx, my float64, zoom int) (tile.Index, error) {
	p, err := m.MetersToPixels(mx, my, zoom)
	if err != nil {
		return tile.Index{}, err
	}
	return m.PixelsToTile(p.X, p.Y).At(zoom), nil
}

// TileBounds returns the extent of a tile in meters.
func (m *Mercator) TileBounds(idx tile.Index) (types.Extent, error) {
	ts := float64(m.tileSize)
	lo, err := m.PixelToMeters(float64(idx.Col)*ts, float64(idx.Row)*ts, idx.Level)
	if err != nil {
		return types.Extent{}, err
	}
	hi, err := m.PixelToMeters(float64(idx.Col+1)*ts, float64(idx.Row+1)*ts, idx.Level)
	if err != nil {
		return types.Extent{}, err
	}
	return types.NewExtent(lo.X, lo.Y, hi.X, hi.Y)
}

// TileLatLonBounds returns the extent of a tile in degrees, X = lon, Y = lat.
func (m *Mercator) TileLatLonBounds(idx tile.Index) (types.Extent, error) {
	b, err := m.TileBounds(idx)
	if err != nil {
		return types.Extent{}, err
	}
	lo := m.MetersToLatLon(b.MinX(), b.MinY())
	hi := m.MetersToLatLon(b.MaxX(), b.MaxY())
	return types.NewExtent(lo.Longitude, lo.Latitude, hi.Longitude, hi.Latitude)
}

// TilesInExtent returns the tiles at zoom covering an extent in meters,
// clipped to the world grid. A max edge lying exactly on a tile boundary does
// not pull in the next tile. An extent outside the world yields an empty range.
func (m *Mercator) TilesInExtent(e types.Extent, zoom int) (tile.Range, error) {
	lo, err := m.MetersToPixels(e.MinX(), e.MinY(), zoom)
	if err != nil {
		return tile.Range{}, err
	}
	hi, err := m.MetersToPixels(e.MaxX(), e.MaxY(), zoom)
	if err != nil {
		return tile.Range{}, err
	}

	// no overlap with the world grid at all
	w := m.WorldExtent()
	if e.MinX() > w.MaxX() || e.MaxX() < w.MinX() || e.MinY() > w.MaxY() || e.MaxY() < w.MinY() {
		return tile.Range{Level: zoom, MinCol: 0, MaxCol: -1, MinRow: 0, MaxRow: -1}, nil
	}

	ts := float64(m.tileSize)
	last := (1 << zoom) - 1
	r := tile.Range{
		Level:  zoom,
		MinCol: clampInt(int(math.Floor(lo.X/ts)), 0, last),
		MinRow: clampInt(int(math.Floor(lo.Y/ts)), 0, last),
		MaxCol: clampInt(int(math.Ceil(hi.X/ts))-1, 0, last),
		MaxRow: clampInt(int(math.Ceil(hi.Y/ts))-1, 0, last),
	}
	// degenerate extents on a boundary
	if r.MaxCol < r.MinCol {
		r.MaxCol = r.MinCol
	}
	if r.MaxRow < r.MinRow {
		r.MaxRow = r.MinRow
	}
	return r, nil
}

// ZoomForPixelSize returns the deepest zoom whose resolution is not finer
// than pixelSize meters, never scaling up past zoom 0.
func (m *Mercator) ZoomForPixelSize(pixelSize float64) (int, error) {
	if math.IsNaN(pixelSize) || math.IsInf(pixelSize, 0) || pixelSize <= 0 {
		return 0, fmt.Errorf("%w: pixel size must be positive and finite, got %g", types.ErrInvalidArgument, pixelSize)
	}
	for z := 0; z <= MaxZoom; z++ {
		res, err := m.Resolution(z)
		if err != nil {
			return 0, err
		}
		if pixelSize > res {
			if z == 0 {
				return 0, nil
			}
			return z - 1, nil
		}
	}
	return MaxZoom, nil
}

// QuadKey returns the Bing Maps quadkey of a tile. Level 0 has the empty key.
func QuadKey(idx tile.Index) (string, error) {
	if !idx.Valid() {
		return "", fmt.Errorf("%w: tile %s is not on the grid", types.ErrRange, idx)
	}
	_, x, y := idx.XYZ()

	var sb strings.Builder
	sb.Grow(idx.Level)
	for i := idx.Level; i > 0; i-- {
		digit := byte('0')
		mask := 1 << (i - 1)
		if x&mask != 0 {
			digit++
		}
		if y&mask != 0 {
			digit += 2
		}
		sb.WriteByte(digit)
	}
	return sb.String(), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
