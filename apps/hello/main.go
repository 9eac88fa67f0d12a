// Command hello opens a window with an OpenStreetMap viewport: drag or
// scroll to pan, pinch or ctrl+scroll to zoom.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gioui.org/app"
	"gioui.org/op"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/olablt/gio-viewport/clock"
	"github.com/olablt/gio-viewport/config"
	"github.com/olablt/gio-viewport/geo"
	"github.com/olablt/gio-viewport/gesture"
	"github.com/olablt/gio-viewport/logging"
	"github.com/olablt/gio-viewport/mapview"
	"github.com/olablt/gio-viewport/persist"
	"github.com/olablt/gio-viewport/persist/valkeystore"
	"github.com/olablt/gio-viewport/tiles"
	"github.com/olablt/gio-viewport/viewport"
)

type options struct {
	configPath string
	logLevel   string
}

func addFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

func main() {
	opts := options{}
	cmd := &cobra.Command{
		Use:           "hello",
		Short:         "Interactive map viewport demo",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)

			go func() {
				if err := run(cfg); err != nil {
					slog.Error("window failed", "err", err)
					os.Exit(1)
				}
				os.Exit(0)
			}()
			app.Main()
			return nil
		},
	}
	addFlags(cmd.Flags(), &opts)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	w := new(app.Window)
	w.Option(app.Title("gio-viewport"))
	loop := clock.NewLoop(w.Invalidate)

	mv := mapview.New(loop)
	vp, err := newViewport(cfg, mv)
	if err != nil {
		return err
	}
	mv.SetViewport(vp)

	loader := tiles.NewHTTPLoader(loop,
		tiles.WithWorkers(cfg.Tiles.Workers),
		tiles.WithCacheSize(cfg.Tiles.CacheSize),
		tiles.WithRateLimit(cfg.Tiles.RateLimit, cfg.Tiles.Workers),
		tiles.WithUserAgent(cfg.Tiles.UserAgent),
		tiles.WithTimeout(time.Duration(cfg.Tiles.Timeout)*time.Second),
	)
	defer loader.Close()

	opts := []tiles.Option{
		tiles.WithRetries(cfg.Tiles.Retries),
		tiles.WithMargin(cfg.Tiles.Margin, cfg.Tiles.Margin),
		tiles.WithPlaceholder(tiles.NewPlaceholder),
		tiles.WithAttribution(viewport.Literal(cfg.Tiles.Attribution)),
	}
	if cfg.Tiles.ErrorURL != "" {
		opts = append(opts, tiles.WithErrorURL(tiles.Fixed(cfg.Tiles.ErrorURL)))
	}
	layer := tiles.NewLayer(vp, loop, loader, tiles.Template(cfg.Tiles.URL, cfg.Tiles.Subdomains...), opts...)
	defer layer.Dispose()
	mv.AddLayer(layer, 1)

	nav := gesture.Bind(mv.Source(), loop, gesture.Pan(vp))
	defer nav.Dispose()
	pinch := gesture.BindPinch(mv.Source(), loop, vp)
	defer pinch.Dispose()
	click := gesture.BindClick(mv.Source(), loop, vp, func(ev gesture.ClickEvent) {
		slog.Info("map clicked", "x", ev.Position.X, "y", ev.Position.Y, "at", ev.LatLng)
	})
	defer click.Dispose()

	if b := bindPersistence(cfg, vp, loop); b != nil {
		defer b.Remove()
	}

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr)
	}

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			mv.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func newViewport(cfg *config.Config, surface viewport.Surface) (*viewport.Viewport, error) {
	proj, err := cfg.Map.ParsedProjection()
	if err != nil {
		return nil, err
	}
	return viewport.New(surface,
		viewport.WithCenter(geo.LatLng{Lat: cfg.Map.Lat, Lng: cfg.Map.Lng}),
		viewport.WithMinZoom(cfg.Map.MinZoom),
		viewport.WithMaxZoom(cfg.Map.MaxZoom),
		viewport.WithZoom(cfg.Map.Zoom),
		viewport.WithProjection(proj),
		viewport.WithLang(cfg.Map.Lang),
	)
}

func bindPersistence(cfg *config.Config, vp *viewport.Viewport, sched clock.Scheduler) *persist.Binding {
	var store persist.Store
	switch cfg.Persist.Backend {
	case "memory":
		store = persist.NewMemory()
	case "valkey":
		s, err := valkeystore.New(cfg.Persist.ValkeyAddr, valkeystore.WithPrefix("gioviewport:"))
		if err != nil {
			slog.Warn("valkey unavailable, viewport state will not persist", "err", err)
			return nil
		}
		store = s
	default:
		return nil
	}
	return persist.Bind(vp, store, cfg.Persist.Key, sched, persist.OwnStore())
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Warn("metrics listener stopped", "err", err)
	}
}
