package tile

import (
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexString(t *testing.T) {
	tests := []struct {
		index    Index
		expected string
	}{
		{Index{Col: 4297, Row: 2754, Level: 13}, "z13_x4297_y2754"},
		{Index{Col: 0, Row: 0, Level: 0}, "z0_x0_y0"},
		{Index{Col: 12345, Row: 67890, Level: 18}, "z18_x12345_y67890"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.index.String()
			if result != tt.expected {
				t.Errorf("String() = %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestIndexPath(t *testing.T) {
	index := New(4297, 2754, 13)

	tests := []struct {
		ext      string
		expected string
	}{
		{"png", "z13_x4297_y2754.png"},
		{"webp", "z13_x4297_y2754.webp"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			result := index.Path(tt.ext)
			if result != tt.expected {
				t.Errorf("Path(%s) = %s, want %s", tt.ext, result, tt.expected)
			}
		})
	}
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		input    string
		expected Index
		wantErr  bool
	}{
		{"z13_x4297_y2754", Index{Col: 4297, Row: 2754, Level: 13}, false},
		{"z0_x0_y0", Index{}, false},
		{"z18_x262143_y262143", Index{Col: 262143, Row: 262143, Level: 18}, false},
		{"invalid", Index{}, true},
		{"z13_x4297", Index{}, true},
		{"13_4297_2754", Index{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseIndex(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseIndex(%s) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseIndex(%s) unexpected error: %v", tt.input, err)
				return
			}
			if result != tt.expected {
				t.Errorf("ParseIndex(%s) = %+v, want %+v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIndexEqualityAndHash(t *testing.T) {
	a := New(1, 2, 3)
	b := New(1, 2, 3)

	assert.True(t, a == b)
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, 0, Compare(a, b))

	// Every field takes part in equality and hashing.
	for _, other := range []Index{New(2, 2, 3), New(1, 3, 3), New(1, 2, 4), New(2, 1, 3)} {
		assert.False(t, a == other, "%v must differ from %v", a, other)
		assert.NotEqual(t, a.Hash(), other.Hash(), "%v and %v should not collide", a, other)
		assert.NotEqual(t, 0, Compare(a, other))
	}
}

func TestIndexAsMapKey(t *testing.T) {
	seen := map[Index]int{}
	seen[New(1, 2, 3)]++
	seen[New(1, 2, 3)]++
	seen[New(3, 2, 1)]++

	assert.Len(t, seen, 2)
	assert.Equal(t, 2, seen[New(1, 2, 3)])
}

func TestCompareOrdering(t *testing.T) {
	assert.Equal(t, -1, Compare(New(1, 2, 3), New(1, 2, 4)))
	assert.Equal(t, 1, Compare(New(1, 3, 0), New(1, 2, 9)))
	assert.Equal(t, -1, Compare(New(0, 9, 9), New(1, 0, 0)))

	indices := []Index{New(2, 0, 1), New(1, 5, 0), New(1, 2, 4), New(1, 2, 3), New(0, 7, 7)}
	Sort(indices)

	assert.Equal(t, []Index{New(0, 7, 7), New(1, 2, 3), New(1, 2, 4), New(1, 5, 0), New(2, 0, 1)}, indices)
}

func TestAddress(t *testing.T) {
	i := New(7, 9, 4)
	a := i.Address()

	assert.Equal(t, Address{X: 7, Y: 9}, a)
	assert.Equal(t, "x7_y9", a.String())
	assert.Equal(t, i, a.At(4))
	assert.NotEqual(t, i, a.At(5))
}

func TestIndexValid(t *testing.T) {
	assert.True(t, New(0, 0, 0).Valid())
	assert.True(t, New(3, 3, 2).Valid())
	assert.False(t, New(4, 0, 2).Valid())
	assert.False(t, New(-1, 0, 2).Valid())
	assert.False(t, New(0, 0, -1).Valid())
	assert.False(t, New(0, 0, MaxLevel+1).Valid())
}

func TestFlipYAndXYZ(t *testing.T) {
	// z1: TMS row 0 is the southern row, XYZ row 1.
	assert.Equal(t, New(0, 1, 1), New(0, 0, 1).FlipY())
	assert.Equal(t, New(5, 3, 3), New(5, 3, 3).FlipY().FlipY())

	i := FromXYZ(13, 4297, 2754)
	assert.Equal(t, New(4297, (1<<13)-1-2754, 13), i)

	z, x, y := i.XYZ()
	assert.Equal(t, []int{13, 4297, 2754}, []int{z, x, y})
}

func TestFlipYOutsideLevelRange(t *testing.T) {
	tests := []Index{
		New(0, 0, -1),
		New(2, 3, -40),
		New(1, 1, MaxLevel+1),
		New(1, 1, 64),
	}

	for _, i := range tests {
		assert.NotPanics(t, func() { i.FlipY() }, "index %s", i)
		assert.Equal(t, i, i.FlipY())

		z, x, y := i.XYZ()
		assert.Equal(t, []int{i.Level, i.Col, i.Row}, []int{z, x, y})
		assert.Equal(t, i, FromXYZ(i.Level, i.Col, i.Row))
	}
}

func TestIndexBoundMatchesMaptile(t *testing.T) {
	i := FromXYZ(13, 4297, 2754)
	want := maptile.New(4297, 2754, 13).Bound()

	got := i.Bound()
	require.Equal(t, want, got)

	// Tile covering Hanover should be in Central Europe.
	assert.Greater(t, got.Min.Lon(), -10.0)
	assert.Less(t, got.Max.Lon(), 40.0)
	assert.Greater(t, got.Min.Lat(), 35.0)
	assert.Less(t, got.Max.Lat(), 70.0)
}
