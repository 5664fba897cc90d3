package routes

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"training-orchestrator/api/rest/handlers"
	"training-orchestrator/core/audit"
	"training-orchestrator/core/orchestrator"
	"training-orchestrator/core/registry"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	r *mux.Router,
	orch *orchestrator.Orchestrator,
	reg *registry.Registry,
	trail *audit.Trail,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) {
	jobHandler := handlers.NewJobHandler(orch, trail, logger)
	modelHandler := handlers.NewModelHandler(reg, logger)
	streamHandler := handlers.NewStreamHandler(orch, logger)
	overviewHandler := handlers.NewOverviewHandler(orch, reg, logger)

	api := r.PathPrefix("/v1").Subrouter()

	// Training job endpoints
	api.HandleFunc("/training/jobs", jobHandler.SubmitJob).Methods("POST")
	api.HandleFunc("/training/jobs", jobHandler.ListJobs).Methods("GET")
	api.HandleFunc("/training/jobs/{id}", jobHandler.GetJob).Methods("GET")
	api.HandleFunc("/training/jobs/{id}/cancel", jobHandler.CancelJob).Methods("POST")
	api.HandleFunc("/training/stream", streamHandler.StreamJobs).Methods("GET")

	// Model registry endpoints; promote is a backward-compatible alias of deploy
	api.HandleFunc("/models", modelHandler.ListModels).Methods("GET")
	api.HandleFunc("/models/rollback", modelHandler.RollbackModel).Methods("POST")
	api.HandleFunc("/models/{id}", modelHandler.GetModel).Methods("GET")
	api.HandleFunc("/models/{id}/deploy", modelHandler.DeployModel).Methods("POST")
	api.HandleFunc("/models/{id}/promote", modelHandler.DeployModel).Methods("POST")
	api.HandleFunc("/models/{id}/shadow/start", modelHandler.StartShadow).Methods("POST")
	api.HandleFunc("/models/{id}/shadow/stop", modelHandler.StopShadow).Methods("POST")
	api.HandleFunc("/models/{id}/shadow/tests", modelHandler.GetShadowTests).Methods("GET")

	// Governance and observability
	api.HandleFunc("/audit", jobHandler.GetAuditTrail).Methods("GET")
	api.HandleFunc("/overview", overviewHandler.GetOverview).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
