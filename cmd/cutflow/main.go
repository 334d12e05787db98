package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/cutflow/internal/adapters/http/api"
	app "github.com/okian/cutflow/internal/app"
	"github.com/okian/cutflow/internal/config"
	"github.com/okian/cutflow/pkg/logger"
	"github.com/okian/cutflow/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "YAML job file")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// defaults -> file -> env
	cfg, err := config.LoadFile(ctx, *configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := app.New(cfg, app.WithLogger(log))
	if err != nil {
		log.Error(ctx, "failed to create service", logger.Error(err))
		return 1
	}

	// First SIGINT/SIGTERM stops the job after the current partitions, a
	// second one cancels it.
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go handleSignals(ctx, cancel, sigs, svc, log)

	go startSystemMetricsUpdater(ctx)

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		api.NewServer(svc).Register(ctx, mux)
		srv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "HTTP server failed", logger.Error(err))
			}
		}()
	}

	report, err := svc.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "server shutdown failed", logger.Error(err))
		}
		cancel()
	}

	if err != nil {
		log.Error(ctx, "job failed", logger.Error(err))
		return 1
	}
	for _, ps := range report.Processes {
		last := ps.Cutflow[len(ps.Cutflow)-1]
		log.Info(ctx, "process done",
			logger.String("process", ps.Process),
			logger.Int64("events", ps.Events),
			logger.Int64("selected", ps.Selected),
			logger.Float64("selected_sumw", last.SumW),
		)
	}
	log.Info(ctx, "results written",
		logger.String("run_id", report.RunID.String()),
		logger.Int("files", len(report.Files)),
	)
	return 0
}

func handleSignals(ctx context.Context, cancel context.CancelFunc, sigs <-chan os.Signal, svc *app.Service, log logger.Logger) {
	select {
	case <-ctx.Done():
		return
	case sig := <-sigs:
		log.Warn(ctx, "signal received, stopping job", logger.String("signal", sig.String()))
		go func() {
			stopCtx, stopCancel := context.WithTimeout(ctx, shutdownTimeout)
			defer stopCancel()
			if err := svc.Stop(stopCtx); err != nil {
				log.Error(ctx, "stop failed", logger.Error(err))
			}
		}()
	}
	select {
	case <-ctx.Done():
	case sig := <-sigs:
		log.Warn(ctx, "second signal received, canceling job", logger.String("signal", sig.String()))
		cancel()
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
