package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/tilepyramid/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the tile schema and its resolution table as JSON",
	Long: `Print a Web Mercator tile schema: name, SRS, extent, format and the resolution
of every zoom level. Values come from flags or the "schema" section of the config file.`,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().String("name", "GlobalSphericalMercator", "Schema name")
	schemaCmd.Flags().String("format", "png", "Tile format (png, jpg, jpeg, webp)")
	schemaCmd.Flags().Int("tile-size", 256, "Tile size in pixels")
	schemaCmd.Flags().Int("zoom-min", 0, "Minimum zoom level")
	schemaCmd.Flags().Int("zoom-max", 18, "Maximum zoom level")
	schemaCmd.Flags().Bool("strict", false, "Reject coordinates outside the Web Mercator world bounds")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"schema.name", "name"},
		{"schema.format", "format"},
		{"schema.tile_size", "tile-size"},
		{"schema.min_zoom", "zoom-min"},
		{"schema.max_zoom", "zoom-max"},
		{"schema.strict", "strict"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, schemaCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runSchema(cmd *cobra.Command, args []string) error {
	def := schema.Definition{
		Name:     viper.GetString("schema.name"),
		Format:   viper.GetString("schema.format"),
		TileSize: viper.GetInt("schema.tile_size"),
		MinZoom:  viper.GetInt("schema.min_zoom"),
		MaxZoom:  viper.GetInt("schema.max_zoom"),
		Strict:   viper.GetBool("schema.strict"),
	}
	return writeSchema(cmd.OutOrStdout(), def)
}

func writeSchema(w io.Writer, def schema.Definition) error {
	s, err := schema.New(def)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
