// Package pipeline turns a georeferenced raster into a tile pyramid.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"strings"
	"sync"

	"github.com/MeKo-Tech/tilepyramid/internal/mercator"
	"github.com/MeKo-Tech/tilepyramid/internal/raster"
	"github.com/MeKo-Tech/tilepyramid/internal/tile"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

// TileWriter persists encoded tiles. Rows are TMS.
type TileWriter interface {
	WriteTile(idx tile.Index, data []byte) error
}

// GeneratorOptions configures optional generator behavior.
type GeneratorOptions struct {
	Resampling raster.Resampling
	// PNGCompression is one of default, speed, best, none.
	PNGCompression string
	TileWriter     TileWriter
}

// Generator renders tiles of one source through one engine.
type Generator struct {
	engine     *mercator.Mercator
	source     *raster.Source
	writer     TileWriter
	logger     *slog.Logger
	extent     types.Extent
	sourceRes  float64
	resampling raster.Resampling
	encoder    png.Encoder

	mu        sync.Mutex
	overviews map[int]*raster.Source
}

// NewGenerator prepares a generator. A TileWriter is required.
func NewGenerator(engine *mercator.Mercator, source *raster.Source, logger *slog.Logger, opts GeneratorOptions) (*Generator, error) {
	if engine == nil || source == nil {
		return nil, fmt.Errorf("%w: engine and source are required", types.ErrInvalidArgument)
	}
	if opts.TileWriter == nil {
		return nil, fmt.Errorf("%w: tile writer is required", types.ErrInvalidArgument)
	}

	level, err := ParsePNGCompression(opts.PNGCompression)
	if err != nil {
		return nil, err
	}

	extent, err := source.MetersExtent(engine)
	if err != nil {
		return nil, fmt.Errorf("failed to project source extent: %w", err)
	}
	res, err := source.MetersPerPixel(engine)
	if err != nil {
		return nil, err
	}

	return &Generator{
		engine:     engine,
		source:     source,
		writer:     opts.TileWriter,
		logger:     logger,
		extent:     extent,
		sourceRes:  res,
		resampling: opts.Resampling,
		encoder:    png.Encoder{CompressionLevel: level},
		overviews:  make(map[int]*raster.Source),
	}, nil
}

// Extent returns the source footprint in meters.
func (g *Generator) Extent() types.Extent { return g.extent }

// NativeZoom is the shallowest zoom whose resolution is at least as fine as the source.
func (g *Generator) NativeZoom() (int, error) {
	return NativeZoom(g.engine, g.source)
}

// NativeZoom is the shallowest zoom at which engine tiles resolve every
// pixel of src.
func NativeZoom(engine *mercator.Mercator, src *raster.Source) (int, error) {
	res, err := src.MetersPerPixel(engine)
	if err != nil {
		return 0, err
	}
	z, err := engine.ZoomForPixelSize(res)
	if err != nil {
		return 0, err
	}
	if r, _ := engine.Resolution(z); r > res && z < mercator.MaxZoom {
		z++
	}
	return z, nil
}

// Plan lists the tiles covering the source for every zoom in [minZoom, maxZoom], sorted.
func (g *Generator) Plan(minZoom, maxZoom int) ([]tile.Index, error) {
	if minZoom > maxZoom {
		return nil, fmt.Errorf("%w: min zoom %d is greater than max zoom %d", types.ErrRange, minZoom, maxZoom)
	}
	var out []tile.Index
	for z := minZoom; z <= maxZoom; z++ {
		r, err := g.engine.TilesInExtent(g.extent, z)
		if err != nil {
			return nil, fmt.Errorf("failed to plan zoom %d: %w", z, err)
		}
		g.log().Debug("Planned zoom level", "range", r.String(), "tiles", r.Count())
		out = append(out, r.Indices()...)
	}
	tile.Sort(out)
	return out, nil
}

// Generate renders, encodes and writes one tile. It returns the number of
// bytes written, or 0 when the tile does not intersect the source.
func (g *Generator) Generate(ctx context.Context, idx tile.Index) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	bounds, err := g.engine.TileBounds(idx)
	if err != nil {
		return 0, fmt.Errorf("invalid tile %s: %w", idx, err)
	}
	if _, ok := bounds.Intersection(g.extent); !ok {
		g.log().Debug("Tile outside source; skipping", "tile", idx.String())
		return 0, nil
	}

	src, err := g.sourceFor(idx.Level)
	if err != nil {
		return 0, err
	}

	img, covered, err := raster.RenderTile(g.engine, idx, src, g.resampling)
	if err != nil {
		return 0, fmt.Errorf("failed to render tile: %w", err)
	}
	if !covered {
		g.log().Debug("Tile has no coverage; skipping", "tile", idx.String())
		return 0, nil
	}

	var buf bytes.Buffer
	if err := g.encoder.Encode(&buf, img); err != nil {
		return 0, fmt.Errorf("failed to encode tile %s: %w", idx, err)
	}
	if err := g.writer.WriteTile(idx, buf.Bytes()); err != nil {
		return 0, fmt.Errorf("failed to write tile %s: %w", idx, err)
	}

	g.log().Debug("Tile written", "tile", idx.String(), "bytes", buf.Len())
	return buf.Len(), nil
}

// sourceFor returns the source or a cached overview whose pixel size does
// not exceed the target resolution at level.
func (g *Generator) sourceFor(level int) (*raster.Source, error) {
	target, err := g.engine.Resolution(level)
	if err != nil {
		return nil, err
	}
	factor := 1
	for float64(factor*2)*g.sourceRes <= target && factor*2 <= g.source.Width() {
		factor *= 2
	}
	if factor == 1 {
		return g.source, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if ov, ok := g.overviews[factor]; ok {
		return ov, nil
	}
	g.log().Debug("Building overview", "level", level, "factor", factor)
	ov := g.source.Overview(factor)
	g.overviews[factor] = ov
	return ov, nil
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

// ParsePNGCompression maps a compression name to a png level. Empty means default.
func ParsePNGCompression(s string) (png.CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	default:
		return png.DefaultCompression, fmt.Errorf("%w: invalid png compression %q (default, speed, best, none)", types.ErrInvalidArgument, s)
	}
}
