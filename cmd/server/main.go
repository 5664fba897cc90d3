package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"training-orchestrator/api/rest/routes"
	"training-orchestrator/config"
	"training-orchestrator/core/audit"
	"training-orchestrator/core/executor"
	"training-orchestrator/core/monitoring"
	"training-orchestrator/core/notifier"
	"training-orchestrator/core/orchestrator"
	"training-orchestrator/core/registry"
	"training-orchestrator/core/repository"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// Initialize stores
	var (
		jobStore   repository.JobStore
		modelStore repository.ModelStore
		auditStore repository.AuditStore
	)
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := repository.NewDB(cfg.Storage.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
		jobStore = repository.NewPostgresJobStore(db)
		modelStore = repository.NewPostgresModelStore(db)
		auditStore = repository.NewPostgresAuditStore(db)
		logger.Info("database connected")
	default:
		jobStore = repository.NewMemoryJobStore()
		modelStore = repository.NewMemoryModelStore()
		auditStore = repository.NewMemoryAuditStore()
		logger.Info("using in-memory stores")
	}

	promRegistry := prometheus.NewRegistry()
	metrics := monitoring.New(promRegistry)

	trail := audit.NewTrail(auditStore, logger)
	modelRegistry := registry.New(modelStore, trail, metrics, logger)
	runner := executor.NewSimRunner(logger, cfg.Orchestrator.SimStageDuration, time.Now().UnixNano())
	dispatcher := notifier.NewDispatcher(logger, cfg.Callback.Timeout, cfg.Callback.Retries)

	orch := orchestrator.New(jobStore, modelRegistry, runner, dispatcher, trail, metrics, logger, orchestrator.Options{
		TickInterval: cfg.Orchestrator.TickInterval,
		StageTimeout: cfg.Orchestrator.StageTimeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orch.Start(ctx)
	defer orch.Stop()

	r := mux.NewRouter()
	routes.SetupRoutes(r, orch, modelRegistry, trail, promRegistry, logger)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
