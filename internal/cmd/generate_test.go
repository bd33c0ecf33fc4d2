package cmd

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tilepyramid/internal/mbtiles"
	"github.com/MeKo-Tech/tilepyramid/internal/tile"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

func TestParseExtent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    [4]float64
		wantErr bool
	}{
		{
			name:  "valid extent",
			input: "9.7,52.3,9.9,52.4",
			want:  [4]float64{9.7, 52.3, 9.9, 52.4},
		},
		{
			name:  "valid extent with spaces",
			input: "9.7, 52.3, 9.9, 52.4",
			want:  [4]float64{9.7, 52.3, 9.9, 52.4},
		},
		{
			name:  "meters",
			input: "-20037508.342789244,0,0,20037508.342789244",
			want:  [4]float64{-20037508.342789244, 0, 0, 20037508.342789244},
		},
		{
			name:    "too few values",
			input:   "9.7,52.3,9.9",
			wantErr: true,
		},
		{
			name:    "too many values",
			input:   "9.7,52.3,9.9,52.4,10.0",
			wantErr: true,
		},
		{
			name:    "invalid number",
			input:   "abc,52.3,9.9,52.4",
			wantErr: true,
		},
		{
			name:    "minX > maxX",
			input:   "10.0,52.3,9.9,52.4",
			wantErr: true,
		},
		{
			name:    "no area",
			input:   "9.7,52.4,9.9,52.4",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExtent(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Bounds())
		})
	}
}

func TestParseExtent_NamesAxis(t *testing.T) {
	_, err := parseExtent("0,10,1,5")
	var inv *types.InvariantError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, types.AxisY, inv.Axis)
}

func writeTestRaster(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 200, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "raster.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func testGenerateConfig(t *testing.T) generateConfig {
	t.Helper()
	logger = newLogger(io.Discard, false, "text")
	return generateConfig{
		input:           writeTestRaster(t),
		extent:          "0,0,10,10",
		srs:             "EPSG:4326",
		resampling:      "nearest",
		zoomMin:         0,
		zoomMax:         3,
		tileSize:        64,
		pngCompression:  "speed",
		workers:         2,
		format:          "folder",
		outputDir:       t.TempDir(),
		folderStructure: "nested",
		name:            "test",
	}
}

func TestGenerate_Folder(t *testing.T) {
	cfg := testGenerateConfig(t)

	require.NoError(t, generate(context.Background(), cfg))

	for _, p := range []string{"0/0/0.png", "3/4/3.png"} {
		_, err := os.Stat(filepath.Join(cfg.outputDir, filepath.FromSlash(p)))
		assert.NoError(t, err, p)
	}
	_, err := os.Stat(filepath.Join(cfg.outputDir, "3", "0"))
	assert.True(t, os.IsNotExist(err), "tiles away from the raster are not written")
}

func TestGenerate_MBTiles(t *testing.T) {
	cfg := testGenerateConfig(t)
	cfg.format = "mbtiles"
	cfg.outputFile = filepath.Join(t.TempDir(), "out.mbtiles")

	require.NoError(t, generate(context.Background(), cfg))

	r, err := mbtiles.OpenReader(cfg.outputFile)
	require.NoError(t, err)
	defer r.Close()

	indices, err := r.Indices()
	require.NoError(t, err)
	assert.Contains(t, indices, tile.New(0, 0, 0))
	assert.Contains(t, indices, tile.New(4, 4, 3))

	meta, err := r.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "test", meta.Name)
	assert.Equal(t, 0, meta.MinZoom)
	assert.Equal(t, 3, meta.MaxZoom)
	assert.InDelta(t, 10, meta.Bounds[2], 1e-6)
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*generateConfig)
	}{
		{"bad format", func(c *generateConfig) { c.format = "zip" }},
		{"mbtiles without file", func(c *generateConfig) { c.format = "mbtiles" }},
		{"missing input", func(c *generateConfig) { c.input = "" }},
		{"bad extent", func(c *generateConfig) { c.extent = "1,2,3" }},
		{"bad srs", func(c *generateConfig) { c.srs = "EPSG:27700" }},
		{"bad resampling", func(c *generateConfig) { c.resampling = "cubic" }},
		{"bad folder structure", func(c *generateConfig) { c.folderStructure = "tree" }},
		{"zoom out of range", func(c *generateConfig) { c.zoomMax = 31 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testGenerateConfig(t)
			tt.mutate(&cfg)
			require.Error(t, generate(context.Background(), cfg))
		})
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	cfg := testGenerateConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := generate(ctx, cfg)
	require.ErrorIs(t, err, context.Canceled)
}
