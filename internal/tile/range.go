package tile

import "fmt"

// Range is a rectangle of tiles on a single level, bounds inclusive.
type Range struct {
	Level          int
	MinCol, MaxCol int
	MinRow, MaxRow int
}

// Empty reports whether the range holds no tiles.
func (r Range) Empty() bool {
	return r.MinCol > r.MaxCol || r.MinRow > r.MaxRow
}

// Count returns the number of tiles in the range.
func (r Range) Count() int {
	if r.Empty() {
		return 0
	}
	return (r.MaxCol - r.MinCol + 1) * (r.MaxRow - r.MinRow + 1)
}

// Contains reports whether i lies in the range.
func (r Range) Contains(i Index) bool {
	return i.Level == r.Level &&
		i.Col >= r.MinCol && i.Col <= r.MaxCol &&
		i.Row >= r.MinRow && i.Row <= r.MaxRow
}

// ForEach calls fn for each tile, columns outermost, so tiles are visited in
// Compare order.
func (r Range) ForEach(fn func(Index)) {
	for col := r.MinCol; col <= r.MaxCol; col++ {
		for row := r.MinRow; row <= r.MaxRow; row++ {
			fn(Index{Col: col, Row: row, Level: r.Level})
		}
	}
}

// Indices returns all tiles of the range in Compare order.
func (r Range) Indices() []Index {
	out := make([]Index, 0, r.Count())
	r.ForEach(func(i Index) {
		out = append(out, i)
	})
	return out
}

// String returns the range as "z{level} x[min-max] y[min-max]".
func (r Range) String() string {
	return fmt.Sprintf("z%d x[%d-%d] y[%d-%d]", r.Level, r.MinCol, r.MaxCol, r.MinRow, r.MaxRow)
}
