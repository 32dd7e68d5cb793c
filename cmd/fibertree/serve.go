package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/fibertree/internal/config"
	"github.com/vango-dev/fibertree/internal/demo"
	"github.com/vango-dev/fibertree/pkg/fiber"
	"github.com/vango-dev/fibertree/pkg/idle"
	"github.com/vango-dev/fibertree/pkg/middleware"
	"github.com/vango-dev/fibertree/pkg/server"
	"github.com/vango-dev/fibertree/pkg/snapshot"
)

func serveCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		port     int
		hostName string
		demoName string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a demo with a live browser preview",
		Long: `Start the live preview server.

The demo component renders on a time-sliced loop. Every commit is
streamed to connected browsers over a WebSocket and browser events are
dispatched back to the component's handlers.

Examples:
  fibertree serve
  fibertree serve --demo todo --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = hostName
			}
			if cmd.Flags().Changed("demo") {
				cfg.Server.Demo = demoName
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 7070, "Port to listen on")
	cmd.Flags().StringVar(&hostName, "host", "localhost", "Host to bind to")
	cmd.Flags().StringVarP(&demoName, "demo", "d", "counter", "Demo to serve")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	d, err := demo.Lookup(cfg.Server.Demo)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := idle.NewLoop(
		idle.WithSlice(cfg.SliceDuration()),
		idle.WithQueueSize(cfg.Scheduler.QueueSize),
		idle.WithLogger(logger.With("component", "idle")),
	)
	remote := server.NewRemote()

	fiberOpts := []fiber.Option{
		fiber.WithLogger(logger.With("component", "fiber")),
		fiber.WithMinRemaining(cfg.MinRemainingDuration()),
		fiber.WithObserver(middleware.Logging(logger)),
	}
	serverOpts := []server.Option{server.WithLogger(logger)}

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := middleware.Prometheus(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(registry),
		)
		fiberOpts = append(fiberOpts, fiber.WithObserver(metrics))
		serverOpts = append(serverOpts, server.WithMetrics(metrics, registry))
	}

	if cfg.Tracing.Enabled {
		fiberOpts = append(fiberOpts, fiber.WithObserver(
			middleware.OpenTelemetry(middleware.WithTracerName(cfg.Tracing.TracerName)),
		))
	}

	var exporter *snapshot.Exporter
	if cfg.Snapshot.Enabled {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		exporter = snapshot.NewExporter(store, remote.Memory,
			snapshot.WithKeep(cfg.Snapshot.Keep),
			snapshot.WithLogger(logger),
		)
		exporter.Start(ctx)
		defer exporter.Close()
		fiberOpts = append(fiberOpts, fiber.WithObserver(exporter))
	}

	engine := fiber.NewEngine(remote, loop, fiberOpts...)
	srv := server.New(server.Config{
		Address: cfg.Address(),
		Title:   cfg.Server.Title,
	}, remote, loop, serverOpts...)

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- loop.Run(ctx)
	}()
	loop.Do(func() {
		engine.Render(d.Tree(), remote.Root())
	})

	printBanner()
	success("Serving the %s demo at %s", d.Name, cfg.URL())
	if cfg.Metrics.Enabled {
		info("Metrics at %s/metrics", cfg.URL())
	}
	if exporter != nil {
		info("Exporting snapshots to the %s store", cfg.Snapshot.Backend)
	}

	err = srv.Run(ctx)
	stop()
	<-loopDone
	return err
}

// openStore builds the snapshot store selected by the config.
func openStore(cfg *config.Config) (snapshot.Store, error) {
	switch cfg.Snapshot.Backend {
	case "s3":
		client := snapshot.NewS3Client(snapshot.S3Options{
			Region:    cfg.Snapshot.Region,
			Endpoint:  cfg.Snapshot.Endpoint,
			PathStyle: cfg.Snapshot.PathStyle,
		})
		return snapshot.NewS3Store(client, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix), nil
	default:
		return snapshot.NewFileStore(cfg.SnapshotDir())
	}
}
