package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tilepyramid/internal/mercator"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

func TestNew_Defaults(t *testing.T) {
	s, err := New(Definition{})
	require.NoError(t, err)

	assert.Equal(t, "GlobalSphericalMercator", s.Name())
	assert.Equal(t, "EPSG:3857", s.SRS())
	assert.Equal(t, "png", s.Format())
	assert.Equal(t, 256, s.Definition().TileSize)
	assert.Equal(t, 0, s.Definition().MaxZoom)
	assert.Len(t, s.Resolutions(), 1)
	assert.Equal(t, 256, s.Engine().TileSize())

	ext := s.Extent()
	assert.InDelta(t, -20037508.342789244, ext.MinX(), 1e-6)
	assert.InDelta(t, 20037508.342789244, ext.MaxY(), 1e-6)
}

func TestNew_ResolutionsFromEngine(t *testing.T) {
	s, err := New(Definition{Name: "hidpi", TileSize: 512, MinZoom: 3, MaxZoom: 6})
	require.NoError(t, err)

	assert.Equal(t, []int{3, 4, 5, 6}, s.Levels())
	for _, z := range s.Levels() {
		want, err := s.Engine().Resolution(z)
		require.NoError(t, err)

		r := s.Resolutions()[z]
		assert.Equal(t, z, r.Level)
		assert.Equal(t, want, r.UnitsPerPixel)
		assert.Equal(t, 512, r.TileWidth)
		assert.Equal(t, 512, r.TileHeight)
	}
}

func TestResolutionsReturnsCopy(t *testing.T) {
	s, err := New(Definition{MaxZoom: 2})
	require.NoError(t, err)

	r := s.Resolutions()
	delete(r, 0)
	assert.Len(t, s.Resolutions(), 3)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"unknown format", Definition{Format: "tiff"}},
		{"negative tile size", Definition{TileSize: -1}},
		{"max below min", Definition{MinZoom: 10, MaxZoom: 5}},
		{"max beyond engine", Definition{MaxZoom: 31}},
		{"negative min", Definition{MinZoom: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.def)
			require.Error(t, err)
			assert.Nil(t, s)
		})
	}
}

func TestNewForEngine_SharesEngine(t *testing.T) {
	engine, err := mercator.New(512, mercator.Options{StrictBounds: true})
	require.NoError(t, err)

	s, err := NewForEngine(Definition{Name: "shared", TileSize: 256, MinZoom: 1, MaxZoom: 3}, engine)
	require.NoError(t, err)

	assert.Same(t, engine, s.Engine())
	assert.Equal(t, 512, s.Definition().TileSize)
	assert.True(t, s.Definition().Strict)
	assert.Equal(t, []int{1, 2, 3}, s.Levels())
	assert.Equal(t, 512, s.Resolutions()[2].TileWidth)

	_, err = NewForEngine(Definition{}, nil)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = NewForEngine(Definition{MinZoom: 4, MaxZoom: 2}, engine)
	require.Error(t, err)
}

func TestMarshalJSON(t *testing.T) {
	s, err := New(Definition{Name: "test", MinZoom: 0, MaxZoom: 2})
	require.NoError(t, err)

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded struct {
		Name        string     `json:"name"`
		SRS         string     `json:"srs"`
		Extent      [4]float64 `json:"extent"`
		Resolutions []struct {
			Level      int `json:"level"`
			MatrixSize int `json:"matrixSize"`
		} `json:"resolutions"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "test", decoded.Name)
	assert.Equal(t, "EPSG:3857", decoded.SRS)
	require.Len(t, decoded.Resolutions, 3)
	for i, r := range decoded.Resolutions {
		assert.Equal(t, i, r.Level)
		assert.Equal(t, 1<<i, r.MatrixSize)
	}
}

func TestWebMercatorImplementsSchema(t *testing.T) {
	var _ Schema = (*WebMercator)(nil)
}
