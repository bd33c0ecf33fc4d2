package types

import "fmt"

// DefaultTileDimension is the tile width and height assumed when none is given.
const DefaultTileDimension = 512

// Resolution associates a zoom level with its ground resolution and the pixel
// size of its tiles.
type Resolution struct {
	Level         int
	UnitsPerPixel float64
	TileWidth     int
	TileHeight    int
}

// NewResolution creates a Resolution with DefaultTileDimension tiles.
func NewResolution(level int, unitsPerPixel float64) (Resolution, error) {
	return NewResolutionWithSize(level, unitsPerPixel, DefaultTileDimension, DefaultTileDimension)
}

// NewResolutionWithSize creates a Resolution with explicit tile dimensions.
func NewResolutionWithSize(level int, unitsPerPixel float64, tileWidth, tileHeight int) (Resolution, error) {
	if level < 0 {
		return Resolution{}, fmt.Errorf("%w: level %d is negative", ErrRange, level)
	}
	if !isFinite(unitsPerPixel) || unitsPerPixel <= 0 {
		return Resolution{}, fmt.Errorf("%w: units per pixel must be positive and finite, got %g", ErrInvalidArgument, unitsPerPixel)
	}
	if tileWidth <= 0 || tileHeight <= 0 {
		return Resolution{}, fmt.Errorf("%w: tile size %dx%d must be positive", ErrInvalidArgument, tileWidth, tileHeight)
	}
	return Resolution{
		Level:         level,
		UnitsPerPixel: unitsPerPixel,
		TileWidth:     tileWidth,
		TileHeight:    tileHeight,
	}, nil
}
