package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tilepyramid/internal/tile"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

func TestFolderWriterLayouts(t *testing.T) {
	// TMS (1, 2) at z2 is XYZ (1, 1)
	idx := tile.New(1, 2, 2)

	tests := []struct {
		layout string
		want   string
	}{
		{LayoutFlat, "z2_x1_y1.png"},
		{LayoutNested, filepath.Join("2", "1", "1.png")},
	}
	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			dir := t.TempDir()
			w, err := NewFolderWriter(dir, tt.layout)
			require.NoError(t, err)

			require.NoError(t, w.WriteTile(idx, []byte("png")))
			assert.Equal(t, filepath.Join(dir, tt.want), w.Path(idx))

			data, err := os.ReadFile(filepath.Join(dir, tt.want))
			require.NoError(t, err)
			assert.Equal(t, "png", string(data))
		})
	}
}

func TestFolderWriterValidation(t *testing.T) {
	_, err := NewFolderWriter(t.TempDir(), "tree")
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	w, err := NewFolderWriter(filepath.Join(t.TempDir(), "out"), LayoutFlat)
	require.NoError(t, err)
	err = w.WriteTile(tile.New(4, 0, 2), []byte("x"))
	require.ErrorIs(t, err, types.ErrRange)
}

func TestGenerateIntoFolder(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFolderWriter(dir, LayoutNested)
	require.NoError(t, err)
	g, _ := newTestGenerator(t, w)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	n, err := g.Generate(ctx, tile.New(1, 2, 2))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "2", "1", "1.png"))
	require.NoError(t, err)
	assert.Equal(t, int64(n), info.Size())
}
