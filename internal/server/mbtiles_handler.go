// Package server serves a generated tile pyramid over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/MeKo-Tech/tilepyramid/internal/mbtiles"
	"github.com/MeKo-Tech/tilepyramid/internal/tile"
)

// MBTilesHandler serves tiles from an MBTiles database.
type MBTilesHandler struct {
	reader       *mbtiles.Reader
	metadata     mbtiles.Metadata
	logger       *slog.Logger
	cacheControl string
	contentType  string
	levels       map[int]int
	tiles        int

	served  atomic.Int64
	missing atomic.Int64
}

// MBTilesConfig configures the MBTiles handler.
type MBTilesConfig struct {
	MBTilesPath  string
	CacheControl string
}

// Status reports request counters and the stored tiles per zoom level.
type Status struct {
	Served  int64       `json:"served"`
	Missing int64       `json:"missing"`
	Tiles   int         `json:"tiles"`
	Levels  map[int]int `json:"levels"`
}

// NewMBTilesHandler creates a new MBTiles handler.
func NewMBTilesHandler(cfg MBTilesConfig, logger *slog.Logger) (*MBTilesHandler, error) {
	reader, err := mbtiles.OpenReader(cfg.MBTilesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open MBTiles: %w", err)
	}

	meta, err := reader.Metadata()
	if err != nil {
		reader.Close() // nolint:errcheck
		return nil, fmt.Errorf("failed to read MBTiles metadata: %w", err)
	}

	indices, err := reader.Indices()
	if err != nil {
		reader.Close() // nolint:errcheck
		return nil, fmt.Errorf("failed to list MBTiles tiles: %w", err)
	}
	levels := make(map[int]int)
	for _, idx := range indices {
		levels[idx.Level]++
	}

	return &MBTilesHandler{
		reader:       reader,
		metadata:     meta,
		logger:       logger,
		cacheControl: cfg.CacheControl,
		contentType:  contentTypeFor(meta.Format),
		levels:       levels,
		tiles:        len(indices),
	}, nil
}

// Handler returns the HTTP handler function for /tiles/.
func (h *MBTilesHandler) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveTile(w, r)
	}
}

// MetadataHandler serves the metadata table as JSON in MBTiles row order.
func (h *MBTilesHandler) MetadataHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(h.metadata.ToMap()); err != nil {
			h.log().Error("Failed to write metadata", "error", err)
		}
	}
}

// StatusHandler serves request counters as JSON.
func (h *MBTilesHandler) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(h.Status()); err != nil {
			h.log().Error("Failed to write status", "error", err)
		}
	}
}

// Status returns the current request counters.
func (h *MBTilesHandler) Status() Status {
	levels := make(map[int]int, len(h.levels))
	for z, n := range h.levels {
		levels[z] = n
	}
	return Status{
		Served:  h.served.Load(),
		Missing: h.missing.Load(),
		Tiles:   h.tiles,
		Levels:  levels,
	}
}

// serveTile serves a single tile from the MBTiles database.
func (h *MBTilesHandler) serveTile(w http.ResponseWriter, r *http.Request) {
	idx, ok := parseTilePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	data, err := h.reader.ReadTile(idx)
	if err != nil {
		h.missing.Add(1)
		if errors.Is(err, mbtiles.ErrTileNotFound) {
			h.log().Debug("Tile not in MBTiles", "tile", idx.String())
		} else {
			h.log().Error("Failed to read tile", "tile", idx.String(), "error", err)
		}
		http.Error(w, "Tile not found", http.StatusNotFound)
		return
	}

	if h.cacheControl != "" {
		w.Header().Set("Cache-Control", h.cacheControl)
	}
	w.Header().Set("Content-Type", h.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))

	h.served.Add(1)
	if _, err := w.Write(data); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

// Close closes the MBTiles reader.
func (h *MBTilesHandler) Close() error {
	return h.reader.Close()
}

func (h *MBTilesHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func contentTypeFor(format string) string {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// parseTilePath parses /tiles/{z}/{x}/{y}.{ext} or /tiles/z{z}_x{x}_y{y}.{ext}.
// Both use XYZ rows; the returned index is TMS.
func parseTilePath(requestPath string) (tile.Index, bool) {
	rest, ok := strings.CutPrefix(requestPath, "/tiles/")
	if !ok {
		return tile.Index{}, false
	}
	dot := strings.LastIndexByte(rest, '.')
	if dot <= 0 {
		return tile.Index{}, false
	}
	rest = rest[:dot]

	var z, x, y int
	if parts := strings.Split(rest, "/"); len(parts) == 3 {
		var err error
		if z, err = strconv.Atoi(parts[0]); err != nil {
			return tile.Index{}, false
		}
		if x, err = strconv.Atoi(parts[1]); err != nil {
			return tile.Index{}, false
		}
		if y, err = strconv.Atoi(parts[2]); err != nil {
			return tile.Index{}, false
		}
	} else {
		named, err := tile.ParseIndex(rest)
		if err != nil || named.String() != rest {
			return tile.Index{}, false
		}
		z, x, y = named.Level, named.Col, named.Row
	}

	if z < 0 || z > tile.MaxLevel {
		return tile.Index{}, false
	}
	idx := tile.FromXYZ(z, x, y)
	if !idx.Valid() {
		return tile.Index{}, false
	}
	return idx, true
}
