// Package schema describes a tile pyramid: its name, spatial reference
// system, extent, tile image format and per-level resolutions.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/MeKo-Tech/tilepyramid/internal/mercator"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

// SRSWebMercator is the identifier of the spherical Web Mercator system.
const SRSWebMercator = "EPSG:3857"

// Schema is what tile sources and sinks need to know about a pyramid.
type Schema interface {
	Name() string
	SRS() string
	Extent() types.Extent
	Format() string
	Resolutions() map[int]types.Resolution
}

// Definition is the user-facing description of a Web Mercator pyramid.
// Empty name, format and tile size take the defaults below before
// validation. A zero MaxZoom is a single-level pyramid at zoom 0.
type Definition struct {
	Name     string `default:"GlobalSphericalMercator" validate:"required" json:"name" mapstructure:"name"`
	Format   string `default:"png" validate:"required,oneof=png jpg jpeg webp" json:"format" mapstructure:"format"`
	TileSize int    `default:"256" validate:"gt=0,lte=4096" json:"tileSize" mapstructure:"tile_size"`
	MinZoom  int    `validate:"gte=0,lte=30" json:"minZoom" mapstructure:"min_zoom"`
	MaxZoom  int    `validate:"gte=0,lte=30,gtefield=MinZoom" json:"maxZoom" mapstructure:"max_zoom"`
	Strict   bool   `json:"strict" mapstructure:"strict"`
}

// WebMercator is a Schema backed by a Mercator engine.
type WebMercator struct {
	def         Definition
	engine      *mercator.Mercator
	extent      types.Extent
	resolutions map[int]types.Resolution
}

// New applies defaults to def, validates it and builds the resolution table
// with a fresh engine for the definition's tile size.
func New(def Definition) (*WebMercator, error) {
	def, err := prepare(def)
	if err != nil {
		return nil, err
	}

	engine, err := mercator.New(def.TileSize, mercator.Options{StrictBounds: def.Strict})
	if err != nil {
		return nil, err
	}
	return build(def, engine)
}

// NewForEngine is New for a caller that already holds an engine. Tile size
// and strictness are taken from the engine and override def.
func NewForEngine(def Definition, engine *mercator.Mercator) (*WebMercator, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: engine is required", types.ErrInvalidArgument)
	}
	def.TileSize = engine.TileSize()
	def.Strict = engine.Strict()

	def, err := prepare(def)
	if err != nil {
		return nil, err
	}
	return build(def, engine)
}

func prepare(def Definition) (Definition, error) {
	if err := defaults.Set(&def); err != nil {
		return def, fmt.Errorf("failed to apply schema defaults: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(def); err != nil {
		return def, fmt.Errorf("invalid schema definition: %w", err)
	}
	return def, nil
}

func build(def Definition, engine *mercator.Mercator) (*WebMercator, error) {
	resolutions, err := engine.Resolutions(def.MinZoom, def.MaxZoom)
	if err != nil {
		return nil, err
	}

	return &WebMercator{
		def:         def,
		engine:      engine,
		extent:      engine.WorldExtent(),
		resolutions: resolutions,
	}, nil
}

// Name returns the pyramid name.
func (s *WebMercator) Name() string { return s.def.Name }

// SRS returns SRSWebMercator.
func (s *WebMercator) SRS() string { return SRSWebMercator }

// Extent returns the world extent in meters.
func (s *WebMercator) Extent() types.Extent { return s.extent }

// Format returns the tile image format.
func (s *WebMercator) Format() string { return s.def.Format }

// Resolutions returns a copy of the per-level resolution table.
func (s *WebMercator) Resolutions() map[int]types.Resolution {
	out := make(map[int]types.Resolution, len(s.resolutions))
	for z, r := range s.resolutions {
		out[z] = r
	}
	return out
}

// Definition returns the definition after defaults were applied.
func (s *WebMercator) Definition() Definition {
	return s.def
}

// Engine returns the projection engine for the schema's tile size.
func (s *WebMercator) Engine() *mercator.Mercator {
	return s.engine
}

// Levels returns the zoom levels in ascending order.
func (s *WebMercator) Levels() []int {
	levels := make([]int, 0, len(s.resolutions))
	for z := range s.resolutions {
		levels = append(levels, z)
	}
	sort.Ints(levels)
	return levels
}

type resolutionJSON struct {
	Level         int     `json:"level"`
	UnitsPerPixel float64 `json:"unitsPerPixel"`
	TileWidth     int     `json:"tileWidth"`
	TileHeight    int     `json:"tileHeight"`
	MatrixSize    int     `json:"matrixSize"`
}

// MarshalJSON writes the schema with its resolutions ordered by level.
func (s *WebMercator) MarshalJSON() ([]byte, error) {
	levels := s.Levels()
	res := make([]resolutionJSON, 0, len(levels))
	for _, z := range levels {
		r := s.resolutions[z]
		res = append(res, resolutionJSON{
			Level:         r.Level,
			UnitsPerPixel: r.UnitsPerPixel,
			TileWidth:     r.TileWidth,
			TileHeight:    r.TileHeight,
			MatrixSize:    1 << r.Level,
		})
	}
	return json.Marshal(struct {
		Name        string           `json:"name"`
		SRS         string           `json:"srs"`
		Format      string           `json:"format"`
		Extent      [4]float64       `json:"extent"`
		Resolutions []resolutionJSON `json:"resolutions"`
	}{
		Name:        s.Name(),
		SRS:         s.SRS(),
		Format:      s.Format(),
		Extent:      s.extent.Bounds(),
		Resolutions: res,
	})
}
