package types

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolution_Defaults(t *testing.T) {
	r, err := NewResolution(3, 19567.88)
	require.NoError(t, err)

	assert.Equal(t, Resolution{Level: 3, UnitsPerPixel: 19567.88, TileWidth: 512, TileHeight: 512}, r)
}

func TestNewResolution_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		level int
		upp   float64
		w, h  int
		want  error
	}{
		{"negative level", -1, 1, 256, 256, ErrRange},
		{"zero units", 0, 0, 256, 256, ErrInvalidArgument},
		{"negative units", 0, -2, 256, 256, ErrInvalidArgument},
		{"nan units", 0, math.NaN(), 256, 256, ErrInvalidArgument},
		{"inf units", 0, math.Inf(1), 256, 256, ErrInvalidArgument},
		{"zero width", 0, 1, 0, 256, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResolutionWithSize(tt.level, tt.upp, tt.w, tt.h)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, Resolution{}, r)
		})
	}
}

func TestCoordinate(t *testing.T) {
	c := NewCoordinate(1.5, -2)
	assert.True(t, c.IsFinite())
	assert.Equal(t, "(1.500000, -2.000000)", c.String())

	c.X = math.NaN()
	assert.False(t, c.IsFinite())
	assert.False(t, Coordinate{Y: math.Inf(-1)}.IsFinite())
}
