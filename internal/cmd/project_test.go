package cmd

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tilepyramid/internal/mercator"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

func TestWriteProjection(t *testing.T) {
	m, err := mercator.New(256, mercator.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeProjection(&buf, m, types.NewCoordinate(0, 0), 1))

	out := buf.String()
	assert.Contains(t, out, "geodetic:   0.00000°, 0.00000°")
	assert.Contains(t, out, "pixels:     (256.000000, 256.000000)")
	assert.Contains(t, out, "tile (TMS): z1_x1_y1")
	assert.Contains(t, out, "tile (XYZ): 1/1/0")
	assert.Contains(t, out, "quadkey:    1")
	assert.Contains(t, out, "bounds deg: extent(")
	assert.Contains(t, out, ",180.000000,85.051129)")
}

func TestWriteProjection_OutsideGrid(t *testing.T) {
	m, err := mercator.New(256, mercator.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeProjection(&buf, m, types.NewCoordinate(3*m.OriginShift(), 0), 2))
	assert.True(t, strings.Contains(buf.String(), "outside the grid"), buf.String())
}

func TestWriteProjection_Errors(t *testing.T) {
	m, err := mercator.New(256, mercator.Options{})
	require.NoError(t, err)

	err = writeProjection(&bytes.Buffer{}, m, types.NewCoordinate(math.NaN(), 0), 3)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	err = writeProjection(&bytes.Buffer{}, m, types.NewCoordinate(0, 0), 60)
	require.ErrorIs(t, err, types.ErrOverflow)

	strict, err := mercator.New(256, mercator.Options{StrictBounds: true})
	require.NoError(t, err)
	err = writeProjection(&bytes.Buffer{}, strict, types.NewCoordinate(3*strict.OriginShift(), 0), 2)
	require.ErrorIs(t, err, types.ErrRange)
}
