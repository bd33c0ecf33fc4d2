package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/tilepyramid/internal/mercator"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Convert a coordinate between degrees, meters, pixels and tiles",
	Long: `Print a location in every coordinate space of the pyramid at one zoom level:
WGS84 degrees, Web Mercator meters, global pixels (TMS origin), TMS and XYZ tile and quadkey.

The location is given with --lon/--lat, or with --mx/--my when --meters is set.`,
	RunE: runProject,
}

func init() {
	rootCmd.AddCommand(projectCmd)

	projectCmd.Flags().Float64("lon", 0, "Longitude in degrees")
	projectCmd.Flags().Float64("lat", 0, "Latitude in degrees")
	projectCmd.Flags().Float64("mx", 0, "X in Web Mercator meters (with --meters)")
	projectCmd.Flags().Float64("my", 0, "Y in Web Mercator meters (with --meters)")
	projectCmd.Flags().Bool("meters", false, "Read the location from --mx/--my instead of --lon/--lat")
	projectCmd.Flags().IntP("zoom", "z", 13, "Zoom level")
	projectCmd.Flags().Int("tile-size", 256, "Tile size in pixels")
	projectCmd.Flags().Bool("strict", false, "Reject coordinates outside the Web Mercator world bounds")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, projectCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("project.lon", "lon")
	mustBind("project.lat", "lat")
	mustBind("project.mx", "mx")
	mustBind("project.my", "my")
	mustBind("project.meters", "meters")
	mustBind("project.zoom", "zoom")
	mustBind("project.tile_size", "tile-size")
	mustBind("project.strict", "strict")
}

func runProject(cmd *cobra.Command, args []string) error {
	m, err := mercator.New(viper.GetInt("project.tile_size"), mercator.Options{StrictBounds: viper.GetBool("project.strict")})
	if err != nil {
		return err
	}

	var meters types.Coordinate
	if viper.GetBool("project.meters") {
		meters = types.NewCoordinate(viper.GetFloat64("project.mx"), viper.GetFloat64("project.my"))
	} else {
		meters = mercator.NewGeodetic(viper.GetFloat64("project.lat"), viper.GetFloat64("project.lon")).ToMeters()
	}

	return writeProjection(cmd.OutOrStdout(), m, meters, viper.GetInt("project.zoom"))
}

// writeProjection prints meters at zoom in every coordinate space.
func writeProjection(w io.Writer, m *mercator.Mercator, meters types.Coordinate, zoom int) error {
	pixels, err := m.MetersToPixels(meters.X, meters.Y, zoom)
	if err != nil {
		return err
	}
	idx, err := m.MetersToTile(meters.X, meters.Y, zoom)
	if err != nil {
		return err
	}
	res, err := m.Resolution(zoom)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "geodetic:   %s\n", m.MetersToLatLon(meters.X, meters.Y))
	fmt.Fprintf(w, "meters:     %s\n", meters)
	fmt.Fprintf(w, "pixels:     %s\n", pixels)
	fmt.Fprintf(w, "resolution: %.6f m/px\n", res)

	if !idx.Valid() {
		fmt.Fprintf(w, "tile:       %s (outside the grid)\n", idx)
		return nil
	}

	z, x, y := idx.XYZ()
	bounds, err := m.TileBounds(idx)
	if err != nil {
		return err
	}
	degrees, err := m.TileLatLonBounds(idx)
	if err != nil {
		return err
	}
	quadKey, err := mercator.QuadKey(idx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "tile (TMS): %s\n", idx)
	fmt.Fprintf(w, "tile (XYZ): %d/%d/%d\n", z, x, y)
	fmt.Fprintf(w, "quadkey:    %s\n", quadKey)
	fmt.Fprintf(w, "bounds:     %s\n", bounds)
	fmt.Fprintf(w, "bounds deg: %s\n", degrees)
	return nil
}
