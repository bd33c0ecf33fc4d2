package types

import (
	"errors"
	"fmt"
)

// Error kinds shared by every package that validates coordinates, extents or
// zoom levels. Callers match them with errors.Is.
var (
	// ErrConstructionInvariant reports a value built in violation of its invariant.
	ErrConstructionInvariant = errors.New("construction invariant violated")
	// ErrInvalidArgument reports a non-finite or otherwise unusable input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRange reports a value outside its permitted range, such as a negative zoom.
	ErrRange = errors.New("value out of range")
	// ErrOverflow reports a zoom level whose tile count per axis cannot be represented.
	ErrOverflow = errors.New("overflow")
)

// Axis names a coordinate axis.
type Axis string

const (
	AxisX Axis = "X"
	AxisY Axis = "Y"
)

// InvariantError is returned when a min/max pair is inverted on one axis.
type InvariantError struct {
	Type string // name of the type being constructed
	Axis Axis
	Min  float64
	Max  float64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: min%s (%g) must be <= max%s (%g)",
		ErrConstructionInvariant, e.Type, e.Axis, e.Min, e.Axis, e.Max)
}

// Is makes errors.Is(err, ErrConstructionInvariant) hold for any InvariantError.
func (e *InvariantError) Is(target error) bool {
	return target == ErrConstructionInvariant
}
