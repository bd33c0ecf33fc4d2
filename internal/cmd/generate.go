package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/tilepyramid/internal/mbtiles"
	"github.com/MeKo-Tech/tilepyramid/internal/mercator"
	"github.com/MeKo-Tech/tilepyramid/internal/pipeline"
	"github.com/MeKo-Tech/tilepyramid/internal/raster"
	"github.com/MeKo-Tech/tilepyramid/internal/schema"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
	"github.com/MeKo-Tech/tilepyramid/internal/worker"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a tile pyramid from a raster",
	Long: `Generate Web Mercator tiles from a georeferenced raster image (PNG, JPEG, TIFF, WebP).

The raster is north-up and covers --extent in --srs (EPSG:4326 degrees or EPSG:3857 meters).
Tiles that do not touch the raster are skipped.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	// Source flags
	generateCmd.Flags().StringP("input", "i", "", "Input raster file (required)")
	generateCmd.Flags().String("extent", "", "Raster extent: minX,minY,maxX,maxY in --srs units (e.g. \"9.7,52.3,9.9,52.4\")")
	generateCmd.Flags().String("srs", raster.SRSGeographic, "Raster reference system (EPSG:4326, EPSG:3857)")
	generateCmd.Flags().String("resampling", "bilinear", "Resampling method (nearest, bilinear)")

	// Pyramid flags
	generateCmd.Flags().Int("zoom-min", 0, "Minimum zoom level")
	generateCmd.Flags().Int("zoom-max", -1, "Maximum zoom level (default: native resolution of the raster)")
	generateCmd.Flags().Int("tile-size", 256, "Tile size in pixels (typically 256 or 512 for Hi-DPI)")
	generateCmd.Flags().Bool("strict", false, "Reject coordinates outside the Web Mercator world bounds")
	generateCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")

	// Batch flags
	generateCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	generateCmd.Flags().Bool("progress", true, "Show progress bar during generation")
	generateCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some tiles fail")

	// Output format flags
	generateCmd.Flags().String("format", "folder", "Output format: folder or mbtiles")
	generateCmd.Flags().String("output-file", "", "Output file path for MBTiles format (e.g., tiles.mbtiles)")
	generateCmd.Flags().String("folder-structure", pipeline.LayoutNested, "Folder structure for folder format: flat (z{z}_x{x}_y{y}.png) or nested ({z}/{x}/{y}.png)")
	generateCmd.Flags().String("name", "tilepyramid", "Tileset name (MBTiles metadata)")
	generateCmd.Flags().String("description", "", "Tileset description (MBTiles metadata)")
	generateCmd.Flags().String("attribution", "", "Attribution text (MBTiles metadata)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"generate.input", "input"},
		{"generate.extent", "extent"},
		{"generate.srs", "srs"},
		{"generate.resampling", "resampling"},
		{"generate.zoom_min", "zoom-min"},
		{"generate.zoom_max", "zoom-max"},
		{"generate.tile_size", "tile-size"},
		{"generate.strict", "strict"},
		{"generate.png_compression", "png-compression"},
		{"generate.workers", "workers"},
		{"generate.progress", "progress"},
		{"generate.allow_failures", "allow-failures"},
		{"generate.format", "format"},
		{"generate.output_file", "output-file"},
		{"generate.folder_structure", "folder-structure"},
		{"generate.name", "name"},
		{"generate.description", "description"},
		{"generate.attribution", "attribution"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, generateCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// generateConfig holds the resolved generate settings.
type generateConfig struct {
	input           string
	extent          string
	srs             string
	resampling      string
	zoomMin         int
	zoomMax         int
	tileSize        int
	strict          bool
	pngCompression  string
	workers         int
	showProgress    bool
	allowFailures   bool
	format          string
	outputDir       string
	outputFile      string
	folderStructure string
	name            string
	description     string
	attribution     string
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := generateConfig{
		input:           viper.GetString("generate.input"),
		extent:          viper.GetString("generate.extent"),
		srs:             viper.GetString("generate.srs"),
		resampling:      viper.GetString("generate.resampling"),
		zoomMin:         viper.GetInt("generate.zoom_min"),
		zoomMax:         viper.GetInt("generate.zoom_max"),
		tileSize:        viper.GetInt("generate.tile_size"),
		strict:          viper.GetBool("generate.strict"),
		pngCompression:  viper.GetString("generate.png_compression"),
		workers:         viper.GetInt("generate.workers"),
		showProgress:    viper.GetBool("generate.progress"),
		allowFailures:   viper.GetBool("generate.allow_failures"),
		format:          viper.GetString("generate.format"),
		outputDir:       viper.GetString("output-dir"),
		outputFile:      viper.GetString("generate.output_file"),
		folderStructure: viper.GetString("generate.folder_structure"),
		name:            viper.GetString("generate.name"),
		description:     viper.GetString("generate.description"),
		attribution:     viper.GetString("generate.attribution"),
	}

	if logger == nil {
		initLogging()
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return generate(ctx, cfg)
}

func generate(ctx context.Context, cfg generateConfig) error {
	if cfg.format != "folder" && cfg.format != "mbtiles" {
		return fmt.Errorf("invalid format %q: must be 'folder' or 'mbtiles'", cfg.format)
	}
	if cfg.format == "mbtiles" && cfg.outputFile == "" {
		return fmt.Errorf("--output-file is required when using --format=mbtiles")
	}
	if cfg.input == "" {
		return fmt.Errorf("--input is required")
	}

	extent, err := parseExtent(cfg.extent)
	if err != nil {
		return fmt.Errorf("invalid extent: %w", err)
	}
	resampling, err := raster.ParseResampling(cfg.resampling)
	if err != nil {
		return err
	}

	src, err := raster.Open(cfg.input, extent, cfg.srs)
	if err != nil {
		return err
	}
	logger.Info("Opened raster", "input", cfg.input, "width", src.Width(), "height", src.Height(), "srs", src.SRS(), "extent", extent.String())

	engine, err := mercator.New(cfg.tileSize, mercator.Options{StrictBounds: cfg.strict})
	if err != nil {
		return err
	}
	if cfg.zoomMax < 0 {
		cfg.zoomMax, err = pipeline.NativeZoom(engine, src)
		if err != nil {
			return fmt.Errorf("failed to derive max zoom: %w", err)
		}
		if cfg.zoomMax < cfg.zoomMin {
			cfg.zoomMax = cfg.zoomMin
		}
		logger.Info("Using native max zoom", "zoom_max", cfg.zoomMax)
	}

	sch, err := schema.NewForEngine(schema.Definition{
		Name:    cfg.name,
		Format:  "png",
		MinZoom: cfg.zoomMin,
		MaxZoom: cfg.zoomMax,
	}, engine)
	if err != nil {
		return err
	}
	def := sch.Definition()

	var (
		tileWriter    pipeline.TileWriter
		mbtilesWriter *mbtiles.Writer
	)
	if cfg.format == "mbtiles" {
		bounds, err := degreesExtent(engine, src)
		if err != nil {
			return err
		}
		metadata := mbtiles.MetadataFromSchema(sch, bounds)
		metadata.Description = cfg.description
		metadata.Attribution = cfg.attribution

		mbtilesWriter, err = mbtiles.New(cfg.outputFile, metadata)
		if err != nil {
			return fmt.Errorf("failed to create MBTiles writer: %w", err)
		}
		defer mbtilesWriter.Close() // nolint:errcheck
		tileWriter = mbtilesWriter
	} else {
		folderWriter, err := pipeline.NewFolderWriter(cfg.outputDir, cfg.folderStructure)
		if err != nil {
			return err
		}
		tileWriter = folderWriter
	}

	gen, err := pipeline.NewGenerator(engine, src, logger, pipeline.GeneratorOptions{
		Resampling:     resampling,
		PNGCompression: cfg.pngCompression,
		TileWriter:     tileWriter,
	})
	if err != nil {
		return fmt.Errorf("failed to init generator: %w", err)
	}

	plan, err := gen.Plan(def.MinZoom, def.MaxZoom)
	if err != nil {
		return err
	}

	workers := cfg.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	logger.Info("Starting tile generation",
		"schema", sch.Name(),
		"zoom_range", fmt.Sprintf("%d-%d", def.MinZoom, def.MaxZoom),
		"tiles", len(plan),
		"workers", workers,
		"format", cfg.format,
	)

	progress := worker.NewProgress(len(plan), cfg.showProgress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, worker.TasksFor(plan))
	progress.Done()

	for _, r := range results {
		if r.Err != nil {
			logger.Error("Tile generation failed", "tile", r.Task.Index.String(), "error", r.Err)
		}
	}
	logger.Info(progress.Summary())
	failedCount := progress.Failed()

	if mbtilesWriter != nil {
		logger.Info("Flushing MBTiles database...")
		if err := mbtilesWriter.Flush(); err != nil {
			return fmt.Errorf("failed to flush MBTiles: %w", err)
		}
		tiles, bytes := mbtilesWriter.Stats()
		logger.Info("MBTiles generation complete", "output", cfg.outputFile, "tiles", tiles, "bytes", bytes)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("generation interrupted: %w", err)
	}
	if failedCount > 0 {
		if !cfg.allowFailures {
			return fmt.Errorf("%d tiles failed to generate", failedCount)
		}
		logger.Warn("Some tiles failed to generate, but continuing due to --allow-failures flag", "failed_count", failedCount)
	}
	return nil
}

// degreesExtent returns the raster footprint in degrees, X = lon, Y = lat.
func degreesExtent(m *mercator.Mercator, src *raster.Source) (types.Extent, error) {
	if src.SRS() == raster.SRSGeographic {
		return src.Extent(), nil
	}
	e := src.Extent()
	lo := m.MetersToLatLon(e.MinX(), e.MinY())
	hi := m.MetersToLatLon(e.MaxX(), e.MaxY())
	return types.NewExtent(lo.Longitude, lo.Latitude, hi.Longitude, hi.Latitude)
}

// parseExtent parses "minX,minY,maxX,maxY". Both axes must have a positive span.
func parseExtent(s string) (types.Extent, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return types.Extent{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	var v [4]float64
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return types.Extent{}, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		v[i] = val
	}

	if v[0] == v[2] || v[1] == v[3] {
		return types.Extent{}, fmt.Errorf("extent %s has no area", s)
	}
	return types.NewExtent(v[0], v[1], v[2], v[3])
}
