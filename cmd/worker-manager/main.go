// Command worker-manager connects to the workflow engine and serves every
// enabled job type of the readiness, discovery and application flows.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyabroad-workers/internal/backend"
	"studyabroad-workers/internal/common/camunda"
	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/common/database"
	httpclient "studyabroad-workers/internal/common/http"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/common/observability"
	"studyabroad-workers/internal/engine"
	"studyabroad-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// readinessCheck is one dependency probed by /ready.
type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("storeBackend", cfg.Store.Backend),
		zap.String("discoverySource", cfg.Discovery.Source),
	)

	obs := observability.New(observability.Options{Config: cfg.Observability, Logger: log.Named("observability")})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, cfg.Camunda.BrokerAddress, log.Named("camunda"))
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")
	checks := []readinessCheck{{"zeebe", zeebe.HealthCheck}}

	// --- Record store backends ---
	var backends store.Backends
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		backends.Redis = redis.Client
		checks = append(checks, readinessCheck{"redis", redis.Ping})
		zapLog.Info("Redis connected successfully")

	case config.StoreBackendPostgres:
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		if err := database.EnsureRecordsTable(ctx, pg.DB, cfg.Store.Table); err != nil {
			zapLog.Fatal("records table setup failed", zap.Error(err))
		}
		backends.Postgres = pg.DB
		checks = append(checks, readinessCheck{"postgres", pg.Ping})
		zapLog.Info("PostgreSQL connected successfully")
	}

	records, err := store.New(cfg.Store, backends, log.Named("store"))
	if err != nil {
		zapLog.Fatal("record store setup failed", zap.Error(err))
	}

	// --- Recommendation catalog ---
	catalog, catalogChecks, err := newCatalog(ctx, cfg, zapLog, log)
	if err != nil {
		zapLog.Fatal("catalog setup failed", zap.Error(err))
	}
	checks = append(checks, catalogChecks...)

	// --- Remote services ---
	api := backend.New(httpclient.NewClient(httpclient.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: time.Duration(cfg.Backend.Timeout) * time.Millisecond,
		Logger:  log.Named("backend"),
	}))

	eng := engine.New(engine.Options{
		Store:   records,
		Backend: api,
		Catalog: catalog,
		Logger:  log.Named("engine"),
	})

	// --- Workers ---
	handlers, err := buildHandlers(cfg, eng, log, obs)
	if err != nil {
		zapLog.Fatal("worker setup failed", zap.Error(err))
	}
	var jobWorkers []worker.JobWorker
	for _, h := range handlers {
		if !h.IsEnabled() {
			zapLog.Info("worker disabled", zap.String("taskType", h.GetTaskType()))
			continue
		}
		jobWorkers = append(jobWorkers, zeebe.Open(h.Registration(), h))
	}
	zapLog.Info("Workers registered", zap.Int("enabled", len(jobWorkers)), zap.Int("total", len(handlers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              cfg.App.HTTPAddress,
		Handler:           newMux(checks),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, jw := range jobWorkers {
		jw.Close()
		jw.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped")
}

func newMux(checks []readinessCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		failed := map[string]string{}
		for _, c := range checks {
			if err := c.check(ctx); err != nil {
				failed[c.name] = err.Error()
			}
		}
		if len(failed) > 0 {
			writeStatus(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "not ready", "failed": failed})
			return
		}
		writeStatus(w, http.StatusOK, map[string]interface{}{"status": "ready"})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
