package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/tilepyramid/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a tile pyramid over HTTP",
	Long: `Serve tiles at /tiles/{z}/{x}/{y}.png (XYZ rows) from an MBTiles database, or from a
nested tile folder when --mbtiles is not given.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("mbtiles", "", "MBTiles file to serve")
	serveCmd.Flags().String("tiles-dir", "", "Directory containing nested tiles (defaults to --output-dir)")
	serveCmd.Flags().String("cache-control", "public, max-age=3600", "Cache-Control header for served tiles")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.mbtiles", "mbtiles")
	mustBind("serve.tiles_dir", "tiles-dir")
	mustBind("serve.cache_control", "cache-control")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	mbtilesPath := viper.GetString("serve.mbtiles")
	tilesDir := viper.GetString("serve.tiles_dir")
	if tilesDir == "" {
		tilesDir = viper.GetString("output-dir")
	}
	cacheControl := viper.GetString("serve.cache_control")

	mux, closeFn, err := newServeMux(mbtilesPath, tilesDir, cacheControl)
	if err != nil {
		return err
	}
	defer closeFn() // nolint:errcheck

	logger.Info("tile server listening",
		"addr", addr,
		"mbtiles", mbtilesPath,
		"tiles_dir", tilesDir,
	)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}

// newServeMux wires the tile routes. The returned func releases the MBTiles reader.
func newServeMux(mbtilesPath, tilesDir, cacheControl string) (*http.ServeMux, func() error, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if mbtilesPath == "" {
		fs := http.FileServer(http.Dir(tilesDir))
		mux.Handle("/tiles/", withCORS(http.StripPrefix("/tiles/", fs)))
		return mux, func() error { return nil }, nil
	}

	h, err := server.NewMBTilesHandler(server.MBTilesConfig{
		MBTilesPath:  mbtilesPath,
		CacheControl: cacheControl,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	mux.Handle("/tiles/", withCORS(h.Handler()))
	mux.Handle("/metadata.json", withCORS(h.MetadataHandler()))
	mux.Handle("/status", h.StatusHandler())
	return mux, h.Close, nil
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
