package raster

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/tilepyramid/internal/mercator"
	"github.com/MeKo-Tech/tilepyramid/internal/tile"
)

// RenderTile reprojects src into one output tile. Image row 0 is the north
// edge of the tile. The boolean reports whether any pixel was covered.
func RenderTile(m *mercator.Mercator, idx tile.Index, src *Source, method Resampling) (*image.NRGBA, bool, error) {
	ts := m.TileSize()
	out := image.NewNRGBA(image.Rect(0, 0, ts, ts))

	baseX := float64(idx.Col * ts)
	topY := float64((idx.Row + 1) * ts)
	geographic := src.SRS() == SRSGeographic

	covered := false
	for j := 0; j < ts; j++ {
		py := topY - float64(j) - 0.5
		for i := 0; i < ts; i++ {
			px := baseX + float64(i) + 0.5

			c, err := m.PixelToMeters(px, py, idx.Level)
			if err != nil {
				return nil, false, fmt.Errorf("tile %s: %w", idx, err)
			}
			x, y := c.X, c.Y
			if geographic {
				g := m.MetersToLatLon(c.X, c.Y)
				x, y = g.Longitude, g.Latitude
			}

			col, ok := src.Sample(x, y, method)
			if !ok {
				continue
			}
			if col.A > 0 {
				covered = true
			}
			out.SetNRGBA(i, j, col)
		}
	}
	return out, covered, nil
}
