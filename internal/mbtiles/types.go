// Package mbtiles stores a tile pyramid in an MBTiles (SQLite) database.
//
// Tiles are addressed with tile.Index. MBTiles rows use the TMS scheme, the
// same as tile.Index, so rows are stored as-is.
package mbtiles

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/MeKo-Tech/tilepyramid/internal/schema"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

// Metadata contains MBTiles metadata fields.
type Metadata struct {
	Name        string // Human-readable tileset identifier
	Format      string // Tile data type (png, jpg, webp)
	Attribution string
	Description string
	Type        string // "baselayer" or "overlay"
	Version     string
	Bounds      [4]float64 // minLon, minLat, maxLon, maxLat
	Center      [3]float64 // lon, lat, zoom
	MinZoom     int
	MaxZoom     int
}

// MetadataFromSchema fills name, format and zoom range from a schema. bounds
// is in degrees (X = lon, Y = lat); the center is placed at the middle zoom.
func MetadataFromSchema(s schema.Schema, bounds types.Extent) Metadata {
	minZoom, maxZoom := -1, -1
	for z := range s.Resolutions() {
		if minZoom < 0 || z < minZoom {
			minZoom = z
		}
		if z > maxZoom {
			maxZoom = z
		}
	}
	if minZoom < 0 {
		minZoom, maxZoom = 0, 0
	}

	return Metadata{
		Name:    s.Name(),
		Format:  s.Format(),
		Type:    "baselayer",
		Version: "1.0",
		Bounds:  bounds.Bounds(),
		Center:  [3]float64{bounds.CenterX(), bounds.CenterY(), float64((minZoom + maxZoom) / 2)},
		MinZoom: minZoom,
		MaxZoom: maxZoom,
	}
}

// ToMap converts Metadata to name/value rows in a fixed order. Empty fields
// are left out; zoom levels are always written.
func (m Metadata) ToMap() *orderedmap.OrderedMap[string, string] {
	result := orderedmap.New[string, string]()

	if m.Name != "" {
		result.Set("name", m.Name)
	}
	if m.Format != "" {
		result.Set("format", m.Format)
	}
	result.Set("minzoom", fmt.Sprintf("%d", m.MinZoom))
	result.Set("maxzoom", fmt.Sprintf("%d", m.MaxZoom))
	if m.Bounds != [4]float64{} {
		result.Set("bounds", fmt.Sprintf("%.6f,%.6f,%.6f,%.6f",
			m.Bounds[0], m.Bounds[1], m.Bounds[2], m.Bounds[3]))
	}
	if m.Center != [3]float64{} {
		result.Set("center", fmt.Sprintf("%.6f,%.6f,%d",
			m.Center[0], m.Center[1], int(m.Center[2])))
	}
	if m.Attribution != "" {
		result.Set("attribution", m.Attribution)
	}
	if m.Description != "" {
		result.Set("description", m.Description)
	}
	if m.Type != "" {
		result.Set("type", m.Type)
	}
	if m.Version != "" {
		result.Set("version", m.Version)
	}

	return result
}
