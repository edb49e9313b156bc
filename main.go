// Fathom worker: hosts the research workflow and its activities, plus the
// admin HTTP surface (health, metrics).
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fathomlabs/fathom/internal/activities"
	"github.com/fathomlabs/fathom/internal/config"
	"github.com/fathomlabs/fathom/internal/health"
	"github.com/fathomlabs/fathom/internal/modes"
	"github.com/fathomlabs/fathom/internal/search"
	ftemporal "github.com/fathomlabs/fathom/internal/temporal"
	"github.com/fathomlabs/fathom/internal/tracing"
	"github.com/fathomlabs/fathom/internal/workflows"
)

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// dialTemporal retries until the server answers; workers usually start before
// the Temporal container in compose setups.
func dialTemporal(cfg config.TemporalConfig, logger *zap.Logger) (client.Client, error) {
	var lastErr error
	for attempt := 1; attempt <= 30; attempt++ {
		if conn, err := net.DialTimeout("tcp", cfg.HostPort, 2*time.Second); err == nil {
			conn.Close()
			c, err := client.Dial(client.Options{
				HostPort:  cfg.HostPort,
				Namespace: cfg.Namespace,
				Logger:    ftemporal.NewZapAdapter(logger),
			})
			if err == nil {
				return c, nil
			}
			lastErr = err
		} else {
			lastErr = err
		}
		logger.Warn("Temporal not ready, retrying",
			zap.String("host_port", cfg.HostPort),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("temporal unreachable at %s: %w", cfg.HostPort, lastErr)
}

func main() {
	cfgPath := config.Path()
	bootCfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(bootCfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Initialize(tracing.Config{
		Enabled:      bootCfg.Tracing.Enabled,
		OTLPEndpoint: bootCfg.Tracing.OTLPEndpoint,
		SamplingRate: bootCfg.Tracing.SamplingRate,
	}, logger)
	if err != nil {
		logger.Warn("Tracing init failed, continuing without traces", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	// Mode table follows the config file; edits apply to new sessions only.
	table := modes.NewTable()
	mgr, err := config.NewManager(cfgPath, logger)
	if err != nil {
		logger.Fatal("Config manager init failed", zap.Error(err))
	}
	mgr.OnReload(func(cfg *config.Config) {
		table.Apply(cfg.ModeOverrides())
	})
	if err := mgr.Start(ctx); err != nil {
		logger.Warn("Config watcher start failed, hot reload disabled", zap.Error(err))
	}
	cfg := mgr.Current()

	var provider search.Provider = search.NewSearxNG(search.SearxNGConfig{
		BaseURL:        cfg.Provider.BaseURL,
		Timeout:        cfg.Provider.Timeout,
		MaxResults:     cfg.Provider.MaxResults,
		RequestsPerSec: cfg.Provider.RequestsPerSec,
		Language:       cfg.Provider.Language,
	}, logger.Named("searxng"))

	healthMgr := health.NewManager(5*time.Second, logger.Named("health"))
	healthMgr.Register(&health.ProviderChecker{
		BaseURL: cfg.Provider.BaseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	})

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		provider = search.NewCachedProvider(provider, rdb, cfg.Redis.TTL, logger.Named("cache"))
		healthMgr.Register(&health.RedisChecker{Client: rdb})
		defer rdb.Close()
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", health.LivenessHandler())
	mux.Handle("/readyz", healthMgr.Handler())
	mux.Handle("/metrics", promhttp.Handler())
	admin := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Service.AdminPort),
		Handler: mux,
	}
	go func() {
		logger.Info("Admin HTTP server listening", zap.Int("port", cfg.Service.AdminPort))
		if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Admin HTTP server failed", zap.Error(err))
		}
	}()

	tClient, err := dialTemporal(cfg.Temporal, logger)
	if err != nil {
		logger.Fatal("Temporal dial failed", zap.Error(err))
	}
	defer tClient.Close()

	acts := activities.NewActivities(provider, table, logger.Named("activities"))
	w := worker.New(tClient, workflows.TaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(workflows.ResearchWorkflow, workflow.RegisterOptions{Name: "ResearchWorkflow"})
	w.RegisterActivityWithOptions(acts.SearchQuery, activity.RegisterOptions{Name: workflows.SearchQueryActivity})
	w.RegisterActivityWithOptions(acts.GetModeConfig, activity.RegisterOptions{Name: workflows.GetModeConfigActivity})
	w.RegisterActivityWithOptions(acts.RecordSessionOutcome, activity.RegisterOptions{Name: workflows.RecordSessionOutcomeActivity})

	if err := w.Start(); err != nil {
		logger.Fatal("Worker start failed", zap.Error(err))
	}
	logger.Info("Fathom worker started", zap.String("task_queue", workflows.TaskQueue))

	<-ctx.Done()
	logger.Info("Shutting down")

	w.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.GracefulTimeout)
	defer cancel()
	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Admin server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Tracing shutdown failed", zap.Error(err))
	}
}
