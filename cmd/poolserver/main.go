package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/fluxorio/threadpool/pkg/config"
	"github.com/fluxorio/threadpool/pkg/core"
	"github.com/fluxorio/threadpool/pkg/observability/otel"
	"github.com/fluxorio/threadpool/pkg/observability/prometheus"
	"github.com/fluxorio/threadpool/pkg/web"
	"github.com/fluxorio/threadpool/pkg/worker"
)

const metricsNamespace = "poolserver"

func main() {
	os.Exit(start())
}

// start runs the server and returns the process exit code, so deferred
// cleanup completes before os.Exit
func start() int {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	envFile := flag.String("env", ".env", "path to a .env file with POOL_* overrides")
	dumpConfig := flag.Bool("dump-config", false, "print the effective configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "poolserver: %v\n", err)
		return 1
	}

	if *dumpConfig {
		if err := config.WriteYAML(os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "poolserver: %v\n", err)
			return 1
		}
		return 0
	}

	logger := core.NewLogger(core.LoggerConfig{
		JSONOutput: cfg.Log.JSON,
		Level:      cfg.Log.Level,
	})
	core.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(fmt.Sprintf("poolserver stopped: %v", err))
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, logger core.Logger) error {
	if cfg.Tracing.Exporter != "none" {
		tracing := otel.DefaultConfig()
		tracing.ServiceName = cfg.Tracing.ServiceName
		tracing.Exporter = cfg.Tracing.Exporter
		tracing.Endpoint = cfg.Tracing.Endpoint
		tracing.SampleRate = cfg.Tracing.SampleRate
		if err := otel.Initialize(ctx, tracing); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		defer func() {
			if err := otel.Shutdown(context.Background()); err != nil {
				logger.Error(fmt.Sprintf("tracing shutdown: %v", err))
			}
		}()
	}

	opts := []worker.Option{worker.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		metrics, err := prometheus.NewPoolMetrics(prometheus.DefaultRegistry, metricsNamespace)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		opts = append(opts, worker.WithObserver(metrics))
	}

	pool, err := worker.New(cfg.Pool.Size, opts...)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		if err := prometheus.RegisterPoolGauges(prometheus.DefaultRegistry, metricsNamespace, pool.Size(), pool.Pending); err != nil {
			_ = pool.Close()
			return fmt.Errorf("metrics: %w", err)
		}
	}

	serverCfg := web.DefaultServerConfig()
	serverCfg.StaticDir = cfg.Server.StaticDir
	serverCfg.SleepDelay = cfg.SleepDuration()
	if cfg.Metrics.Enabled {
		serverCfg.MetricsPath = cfg.Metrics.Path
		serverCfg.MetricsHandler = prometheus.FastHTTPHandler()
	}

	srv, err := web.NewServer(serverCfg, pool, logger)
	if err != nil {
		_ = pool.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(cfg.Server.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down: no longer accepting connections")
		return srv.Close()
	})
	serveErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownDuration())
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logger.Info(fmt.Sprintf("jobs still running after %s; waiting for them to finish", cfg.ShutdownDuration()))
		_ = pool.Close()
	}
	logger.Info("all workers shut down")

	return serveErr
}
