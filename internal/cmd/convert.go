package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/tilepyramid/internal/mbtiles"
	"github.com/MeKo-Tech/tilepyramid/internal/tile"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert folder tiles to MBTiles format",
	Long: `Convert an existing tile folder (flat z{z}_x{x}_y{y}.png or nested {z}/{x}/{y}.png,
XYZ rows) to an MBTiles database.`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("input-dir", "./tiles", "Input directory containing tiles")
	convertCmd.Flags().StringP("output", "o", "", "Output MBTiles file path (required)")
	convertCmd.Flags().String("name", "tilepyramid", "Tileset name")
	convertCmd.Flags().String("description", "", "Tileset description")
	convertCmd.Flags().String("attribution", "", "Attribution text")
	convertCmd.Flags().String("bounds", "", "Bounding box: minLon,minLat,maxLon,maxLat (default: union of the tiles)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"convert.input_dir", "input-dir"},
		{"convert.output", "output"},
		{"convert.name", "name"},
		{"convert.description", "description"},
		{"convert.attribution", "attribution"},
		{"convert.bounds", "bounds"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, convertCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputDir := viper.GetString("convert.input_dir")
	outputFile := viper.GetString("convert.output")
	boundsStr := viper.GetString("convert.bounds")

	if logger == nil {
		initLogging()
	}

	if outputFile == "" {
		return fmt.Errorf("--output is required")
	}

	meta := mbtiles.Metadata{
		Name:        viper.GetString("convert.name"),
		Description: viper.GetString("convert.description"),
		Attribution: viper.GetString("convert.attribution"),
		Format:      "png",
		Type:        "baselayer",
		Version:     "1.0",
	}

	var bounds *types.Extent
	if boundsStr != "" {
		b, err := parseExtent(boundsStr)
		if err != nil {
			return fmt.Errorf("invalid bounds: %w", err)
		}
		bounds = &b
	}

	n, err := convertFolder(inputDir, outputFile, meta, bounds)
	if err != nil {
		return err
	}
	logger.Info("Conversion complete", "output", outputFile, "tiles", n)
	return nil
}

// convertFolder copies every tile below inputDir into a new MBTiles file.
// Zoom range, center and (when bounds is nil) bounds are derived from the tiles.
func convertFolder(inputDir, outputFile string, meta mbtiles.Metadata, bounds *types.Extent) (int, error) {
	if _, err := os.Stat(inputDir); os.IsNotExist(err) {
		return 0, fmt.Errorf("input directory does not exist: %s", inputDir)
	}

	logger.Info("Converting folder tiles to MBTiles", "input_dir", inputDir, "output", outputFile, "name", meta.Name)

	tiles, err := scanTilesDirectory(inputDir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan tiles directory: %w", err)
	}
	if len(tiles) == 0 {
		return 0, fmt.Errorf("no tiles found in %s", inputDir)
	}

	meta.MinZoom, meta.MaxZoom = tiles[0].idx.Level, tiles[0].idx.Level
	union := tiles[0].idx.Bound()
	for _, ti := range tiles[1:] {
		meta.MinZoom = min(meta.MinZoom, ti.idx.Level)
		meta.MaxZoom = max(meta.MaxZoom, ti.idx.Level)
		union = union.Union(ti.idx.Bound())
	}
	if bounds != nil {
		meta.Bounds = bounds.Bounds()
	} else {
		meta.Bounds = [4]float64{union.Min.Lon(), union.Min.Lat(), union.Max.Lon(), union.Max.Lat()}
	}
	center := orb.Bound{
		Min: orb.Point{meta.Bounds[0], meta.Bounds[1]},
		Max: orb.Point{meta.Bounds[2], meta.Bounds[3]},
	}.Center()
	meta.Center = [3]float64{center.Lon(), center.Lat(), float64((meta.MinZoom + meta.MaxZoom) / 2)}

	logger.Info("Found tiles", "count", len(tiles), "min_zoom", meta.MinZoom, "max_zoom", meta.MaxZoom)

	writer, err := mbtiles.New(outputFile, meta)
	if err != nil {
		return 0, fmt.Errorf("failed to create MBTiles writer: %w", err)
	}
	defer writer.Close() // nolint:errcheck

	converted := 0
	for i, ti := range tiles {
		data, err := os.ReadFile(ti.path)
		if err != nil {
			logger.Error("Failed to read tile", "path", ti.path, "error", err)
			continue
		}
		if err := writer.WriteTile(ti.idx, data); err != nil {
			logger.Error("Failed to write tile", "tile", ti.idx.String(), "error", err)
			continue
		}
		converted++

		if (i+1)%100 == 0 {
			logger.Info("Progress", "converted", i+1, "total", len(tiles))
		}
	}

	if err := writer.Flush(); err != nil {
		return converted, fmt.Errorf("failed to flush tiles: %w", err)
	}
	return converted, nil
}

type tileFile struct {
	idx  tile.Index // TMS
	path string
}

var (
	flatTilePattern   = regexp.MustCompile(`^z(\d+)_x(\d+)_y(\d+)\.png$`)
	nestedTilePattern = regexp.MustCompile(`^(\d+)/(\d+)/(\d+)\.png$`)
)

// scanTilesDirectory finds flat and nested XYZ tiles below dir, sorted by index.
func scanTilesDirectory(dir string) ([]tileFile, error) {
	var tiles []tileFile

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		matches := nestedTilePattern.FindStringSubmatch(rel)
		if matches == nil {
			matches = flatTilePattern.FindStringSubmatch(filepath.Base(path))
		}
		if matches == nil {
			return nil
		}

		z, _ := strconv.Atoi(matches[1])
		x, _ := strconv.Atoi(matches[2])
		y, _ := strconv.Atoi(matches[3])
		if z > tile.MaxLevel {
			return nil
		}
		idx := tile.FromXYZ(z, x, y)
		if !idx.Valid() {
			logger.Warn("Skipping tile outside the grid", "path", path)
			return nil
		}

		tiles = append(tiles, tileFile{idx: idx, path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(tiles, func(a, b tileFile) int { return tile.Compare(a.idx, b.idx) })
	return tiles, nil
}
