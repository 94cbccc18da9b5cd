package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/signalsfoundry/trajectory-plotter/core"
	"github.com/signalsfoundry/trajectory-plotter/internal/api"
	"github.com/signalsfoundry/trajectory-plotter/internal/logging"
	"github.com/signalsfoundry/trajectory-plotter/internal/observability"
	"github.com/signalsfoundry/trajectory-plotter/render"
)

// Config holds the server's command-line configuration.
type Config struct {
	ListenAddress   string
	MetricsAddress  string
	LogLevel        string
	LogFormat       string
	MaxRange        float64
	MaxGridCells    int
	ShutdownTimeout time.Duration
}

func main() {
	var cfg Config
	flag.StringVar(&cfg.ListenAddress, "listen-addr", ":8080", "HTTP address the trajectory API listens on")
	flag.StringVar(&cfg.MetricsAddress, "metrics-addr", ":9090", "HTTP address for Prometheus /metrics (empty disables)")
	flag.StringVar(&cfg.LogLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	flag.StringVar(&cfg.LogFormat, "log-format", envOr("LOG_FORMAT", "text"), "log format: text or json")
	flag.Float64Var(&cfg.MaxRange, "max-range", core.DefaultMaxRange, "largest range in metres that will be sampled")
	flag.IntVar(&cfg.MaxGridCells, "max-grid-cells", render.DefaultMaxGridCells, "largest plot size in cells")
	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 5*time.Second, "grace period for in-flight requests on shutdown")
	flag.Parse()

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, AddSource: true})

	lis, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Error(context.Background(), "failed to listen", logging.String("addr", cfg.ListenAddress), logging.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves the trajectory API on lis until ctx is cancelled.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener) error {
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := observability.NewTrajectoryCollector(reg)
	if err != nil {
		return err
	}

	svc := api.NewTrajectoryService(log,
		api.WithMetrics(collector),
		api.WithMaxRange(cfg.MaxRange),
		api.WithMaxGridCells(cfg.MaxGridCells),
	)
	srv := &http.Server{
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := serveMetrics(cfg.MetricsAddress, collector, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting trajectory API", logging.String("addr", lis.Addr().String()))
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down trajectory API")
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func serveMetrics(addr string, collector *observability.TrajectoryCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
