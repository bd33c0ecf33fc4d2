package types

import (
	"fmt"

	"github.com/go-spatial/geom"
)

// Extent is an axis-aligned rectangle with MinX <= MaxX and MinY <= MaxY.
// The bounds can only be set through NewExtent, so a held Extent always
// satisfies its invariant. The zero value is the degenerate extent at the origin.
type Extent struct {
	minX, minY, maxX, maxY float64
}

// NewExtent validates and creates an Extent. An inverted axis yields an
// *InvariantError naming that axis; X is checked before Y.
func NewExtent(minX, minY, maxX, maxY float64) (Extent, error) {
	if minX > maxX {
		return Extent{}, &InvariantError{Type: "Extent", Axis: AxisX, Min: minX, Max: maxX}
	}
	if minY > maxY {
		return Extent{}, &InvariantError{Type: "Extent", Axis: AxisY, Min: minY, Max: maxY}
	}
	return Extent{minX: minX, minY: minY, maxX: maxX, maxY: maxY}, nil
}

// MustExtent is like NewExtent but panics on an invalid extent.
// Intended for package-level constants.
func MustExtent(minX, minY, maxX, maxY float64) Extent {
	e, err := NewExtent(minX, minY, maxX, maxY)
	if err != nil {
		panic(err)
	}
	return e
}

// MinX returns the western edge.
func (e Extent) MinX() float64 { return e.minX }

// MinY returns the southern edge.
func (e Extent) MinY() float64 { return e.minY }

// MaxX returns the eastern edge.
func (e Extent) MaxX() float64 { return e.maxX }

// MaxY returns the northern edge.
func (e Extent) MaxY() float64 { return e.maxY }

// CenterX returns the midpoint of the X axis.
func (e Extent) CenterX() float64 {
	return (e.minX + e.maxX) / 2
}

// CenterY returns the midpoint of the Y axis.
func (e Extent) CenterY() float64 {
	return (e.minY + e.maxY) / 2
}

// Center returns the center point.
func (e Extent) Center() Coordinate {
	return Coordinate{X: e.CenterX(), Y: e.CenterY()}
}

// Width returns MaxX - MinX.
func (e Extent) Width() float64 {
	return e.maxX - e.minX
}

// Height returns MaxY - MinY.
func (e Extent) Height() float64 {
	return e.maxY - e.minY
}

// Area returns Width * Height.
func (e Extent) Area() float64 {
	return e.Width() * e.Height()
}

// Bounds returns [minX, minY, maxX, maxY].
func (e Extent) Bounds() [4]float64 {
	return [4]float64{e.minX, e.minY, e.maxX, e.maxY}
}

// Contains reports whether c lies inside or on the border of the extent.
func (e Extent) Contains(c Coordinate) bool {
	return c.X >= e.minX && c.X <= e.maxX && c.Y >= e.minY && c.Y <= e.maxY
}

// Intersection returns the overlapping part of two extents. The boolean is
// false when they do not overlap; touching edges count as no overlap.
func (e Extent) Intersection(other Extent) (Extent, bool) {
	a := e.GeomExtent()
	inter, ok := a.Intersect(other.GeomExtent())
	if !ok || inter == nil {
		return Extent{}, false
	}
	if inter.MinX() >= inter.MaxX() || inter.MinY() >= inter.MaxY() {
		return Extent{}, false
	}
	return Extent{minX: inter.MinX(), minY: inter.MinY(), maxX: inter.MaxX(), maxY: inter.MaxY()}, true
}

// ExpandByFraction grows the extent on each side by frac of its width/height.
// A non-positive fraction returns the extent unchanged.
func (e Extent) ExpandByFraction(frac float64) Extent {
	if frac <= 0 {
		return e
	}
	dx := e.Width() * frac
	dy := e.Height() * frac
	return Extent{minX: e.minX - dx, minY: e.minY - dy, maxX: e.maxX + dx, maxY: e.maxY + dy}
}

// GeomExtent converts to a go-spatial extent.
func (e Extent) GeomExtent() *geom.Extent {
	return &geom.Extent{e.minX, e.minY, e.maxX, e.maxY}
}

// String returns the extent as "extent(minX,minY,maxX,maxY)".
func (e Extent) String() string {
	return fmt.Sprintf("extent(%.6f,%.6f,%.6f,%.6f)", e.minX, e.minY, e.maxX, e.maxY)
}
