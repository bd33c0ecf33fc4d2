package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/MeKo-Tech/tilepyramid/internal/tile"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

// Folder layouts. Both use XYZ rows.
const (
	LayoutFlat   = "flat"   // z{z}_x{x}_y{y}.png
	LayoutNested = "nested" // {z}/{x}/{y}.png
)

// FolderWriter writes tiles as PNG files below a directory.
type FolderWriter struct {
	dir    string
	layout string
}

// NewFolderWriter creates dir if needed.
func NewFolderWriter(dir, layout string) (*FolderWriter, error) {
	if layout != LayoutFlat && layout != LayoutNested {
		return nil, fmt.Errorf("%w: invalid folder structure %q: must be 'flat' or 'nested'", types.ErrInvalidArgument, layout)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &FolderWriter{dir: dir, layout: layout}, nil
}

// Path returns the file a tile is written to.
func (w *FolderWriter) Path(idx tile.Index) string {
	z, x, y := idx.XYZ()
	if w.layout == LayoutNested {
		return filepath.Join(w.dir, strconv.Itoa(z), strconv.Itoa(x), strconv.Itoa(y)+".png")
	}
	return filepath.Join(w.dir, tile.New(x, y, z).Path("png"))
}

// WriteTile implements TileWriter.
func (w *FolderWriter) WriteTile(idx tile.Index, data []byte) error {
	if !idx.Valid() {
		return fmt.Errorf("%w: tile %s outside the grid", types.ErrRange, idx)
	}
	p := w.Path(idx)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create tile dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("failed to write tile file: %w", err)
	}
	return nil
}
