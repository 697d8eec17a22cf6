package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/ironsheep/image-tune/internal/config"
	"github.com/ironsheep/image-tune/internal/editor"
	"github.com/ironsheep/image-tune/internal/gateway"
	"github.com/ironsheep/image-tune/internal/imaging"
	"github.com/ironsheep/image-tune/internal/logging"
	"github.com/ironsheep/image-tune/internal/metrics"
	"github.com/ironsheep/image-tune/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("image-tune - MCP server for adjusting image saturation")
	fmt.Println()
	fmt.Println("Usage: image-tune [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config PATH    TOML configuration file")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  " + config.EnvConfigPath + "=PATH          Configuration file")
	fmt.Println("  " + config.EnvLogLevel + "=debug       Log level")
	fmt.Println("  " + config.EnvLogFormat + "=json       Log format (console or json)")
	fmt.Println("  " + config.EnvEngineModel + "=hcl      Saturation model (luma or hcl)")
	fmt.Println("  " + config.EnvStoreDir + "=DIR          Where saved images go")
	fmt.Println("  " + config.EnvMetricsListen + "=ADDR   Serve Prometheus metrics on ADDR")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-tune %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	configPath := flag.String("config", "", "TOML configuration file")
	flag.Usage = usage
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "image-tune: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// stdout is for the MCP protocol
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Stringer("config", cfg).
		Msg("starting image-tune")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	if cfg.Metrics.Listen != "" {
		shutdown := serveMetrics(cfg.Metrics.Listen, m, logger)
		defer shutdown()
	}

	clock := clockwork.NewRealClock()
	ed := editor.New(editor.Options{
		Engine:        imaging.Engine{Model: cfg.Engine.ColorModel()},
		Store:         gateway.NewFileStore(cfg.Store.Dir, cfg.Store.JPEGQuality, clock, logger),
		Clock:         clock,
		Observer:      m,
		Logger:        logger,
		RenderTimeout: cfg.Preview.RenderTimeoutDuration(),
	})
	defer ed.Close()

	picker := gateway.NewFilePicker(
		imaging.NewImageCache(cfg.Source.AutoOrient),
		cfg.Source.MaxImageSizeBytes(),
		cfg.Source.MaxPixels,
		logger,
	)

	server.Version = Version
	srv := server.New(ed, picker, cfg.Preview.MaxDimension, logger)
	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info().Msg("stdin closed, shutting down")
	return nil
}

// serveMetrics starts the Prometheus endpoint and returns a function that stops it.
func serveMetrics(addr string, m *metrics.Metrics, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("metrics server shutdown")
		}
	}
}
