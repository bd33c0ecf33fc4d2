package types

import (
	"fmt"
	"math"
)

// Coordinate is a 2D position. Depending on context it holds projected
// meters (EPSG:3857) or global pixel positions at some zoom level.
type Coordinate struct {
	X float64
	Y float64
}

// NewCoordinate creates a Coordinate from x and y.
func NewCoordinate(x, y float64) Coordinate {
	return Coordinate{X: x, Y: y}
}

// IsFinite reports whether neither component is NaN or infinite.
func (c Coordinate) IsFinite() bool {
	return isFinite(c.X) && isFinite(c.Y)
}

// String returns the coordinate as "(x, y)" with six decimals.
func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.X, c.Y)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
