package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"training-orchestrator/core/orchestrator"
	"training-orchestrator/core/registry"
	"training-orchestrator/core/repository"
)

// OverviewHandler serves the dashboard summary
type OverviewHandler struct {
	orch     *orchestrator.Orchestrator
	registry *registry.Registry
	logger   *zap.Logger
}

// NewOverviewHandler creates a new overview handler
func NewOverviewHandler(orch *orchestrator.Orchestrator, reg *registry.Registry, logger *zap.Logger) *OverviewHandler {
	return &OverviewHandler{orch: orch, registry: reg, logger: logger}
}

// GetOverview handles GET /v1/overview: job counts by status plus the
// currently deployed model, if any
func (h *OverviewHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.orch.List(r.Context(), repository.JobFilter{})
	if err != nil {
		writeError(w, err)
		return
	}

	byStatus := make(map[string]int)
	active := 0
	for _, job := range jobs {
		byStatus[string(job.Status)]++
		if !job.Status.Terminal() {
			active++
		}
	}

	deployed, err := h.registry.Deployed(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{
		"jobs": map[string]interface{}{
			"total":     len(jobs),
			"active":    active,
			"by_status": byStatus,
		},
	}
	if deployed != nil {
		resp["deployed_model"] = modelView(deployed)
	}
	writeJSON(w, http.StatusOK, resp)
}
