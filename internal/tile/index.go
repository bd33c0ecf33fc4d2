// Package tile provides the discrete tile keys of a Web Mercator pyramid.
//
// Rows follow the TMS convention used by the projection engine and by
// MBTiles: row 0 is the southernmost row. Use FlipY, FromXYZ and XYZ to move
// between TMS and XYZ (slippy map) rows.
package tile

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// MaxLevel is the deepest level whose per-axis tile count, 2^level, fits a
// signed 32-bit integer.
const MaxLevel = 30

// Index identifies one tile of the pyramid. It is comparable, so == is
// structural equality and it can be used directly as a map key.
type Index struct {
	Col   int // column, west to east
	Row   int // row, south to north (TMS)
	Level int // zoom level
}

// New creates an Index.
func New(col, row, level int) Index {
	return Index{Col: col, Row: row, Level: level}
}

// String returns the index as "z{level}_x{col}_y{row}".
func (i Index) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", i.Level, i.Col, i.Row)
}

// Path returns a flat file name for this tile.
func (i Index) Path(extension string) string {
	return fmt.Sprintf("%s.%s", i.String(), extension)
}

// ParseIndex parses a tile string like "z13_x4297_y2754".
func ParseIndex(s string) (Index, error) {
	var i Index
	_, err := fmt.Sscanf(s, "z%d_x%d_y%d", &i.Level, &i.Col, &i.Row)
	if err != nil {
		return Index{}, fmt.Errorf("invalid tile index format: %s", s)
	}
	return i, nil
}

// Hash returns a 64-bit hash over all three fields. Equal indices always
// hash equally.
func (i Index) Hash() uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(i.Col))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(i.Row))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(i.Level))
	return xxhash.Sum64(buf[:])
}

// Compare orders indices by Col, then Row, then Level.
// It returns -1, 0 or +1.
func Compare(a, b Index) int {
	if c := cmp.Compare(a.Col, b.Col); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	return cmp.Compare(a.Level, b.Level)
}

// Sort sorts indices in place in Compare order.
func Sort(indices []Index) {
	slices.SortFunc(indices, Compare)
}

// Address drops the level. The caller is responsible for tracking it.
func (i Index) Address() Address {
	return Address{X: i.Col, Y: i.Row}
}

// Valid reports whether the level is within [0, MaxLevel] and the column and
// row lie on the grid of that level.
func (i Index) Valid() bool {
	if i.Level < 0 || i.Level > MaxLevel {
		return false
	}
	n := 1 << i.Level
	return i.Col >= 0 && i.Col < n && i.Row >= 0 && i.Row < n
}

// FlipY mirrors the row between the TMS and XYZ conventions. An index whose
// level is outside [0, MaxLevel] has no grid to mirror on and is returned
// unchanged; check Valid first when that matters.
func (i Index) FlipY() Index {
	if i.Level < 0 || i.Level > MaxLevel {
		return i
	}
	return Index{Col: i.Col, Row: (1 << i.Level) - 1 - i.Row, Level: i.Level}
}

// FromXYZ builds an Index from slippy map z/x/y, where y counts from the north.
func FromXYZ(z, x, y int) Index {
	return Index{Col: x, Row: y, Level: z}.FlipY()
}

// XYZ returns the slippy map z/x/y of this tile.
func (i Index) XYZ() (z, x, y int) {
	f := i.FlipY()
	return f.Level, f.Col, f.Row
}

// Maptile returns the orb maptile for this index.
func (i Index) Maptile() maptile.Tile {
	z, x, y := i.XYZ()
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z))
}

// Bound returns the WGS84 bounds of the tile as computed by orb.
func (i Index) Bound() orb.Bound {
	return i.Maptile().Bound()
}

// Address is a column/row pair whose level is tracked by the surrounding
// context, e.g. one table per level. Convert with At before mixing it with
// Index values.
type Address struct {
	X int
	Y int
}

// At binds the address to a level.
func (a Address) At(level int) Index {
	return Index{Col: a.X, Row: a.Y, Level: level}
}

// String returns the address as "x{x}_y{y}".
func (a Address) String() string {
	return fmt.Sprintf("x%d_y%d", a.X, a.Y)
}
