package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"training-orchestrator/core/audit"
	"training-orchestrator/core/errs"
	"training-orchestrator/core/models"
	"training-orchestrator/core/orchestrator"
	"training-orchestrator/core/repository"
)

// parseLimit parses a ?limit= query value; fallback applies when absent
func parseLimit(r *http.Request, fallback int) (int, error) {
	limitParam := r.URL.Query().Get("limit")
	if limitParam == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(limitParam)
	if err != nil || n < 1 {
		return 0, (&errs.ValidationError{}).
			Add("limit", fmt.Sprintf("%q is not a positive integer", limitParam))
	}
	return n, nil
}

// JobHandler handles training-job HTTP requests
type JobHandler struct {
	orch   *orchestrator.Orchestrator
	trail  *audit.Trail
	logger *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(orch *orchestrator.Orchestrator, trail *audit.Trail, logger *zap.Logger) *JobHandler {
	return &JobHandler{orch: orch, trail: trail, logger: logger}
}

// SubmitJob handles POST /v1/training/jobs
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := h.orch.Submit(r.Context(), req, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, jobView(job))
}

// GetJob handles GET /v1/training/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.orch.Get(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobView(job))
}

// ListJobs handles GET /v1/training/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, 50)
	if err != nil {
		writeError(w, err)
		return
	}
	filter := repository.JobFilter{Limit: limit}
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		s := models.JobStatus(statusParam)
		filter.Status = &s
	}
	if typeParam := r.URL.Query().Get("model_type"); typeParam != "" {
		t := models.ModelType(typeParam)
		filter.ModelType = &t
	}

	jobs, err := h.orch.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]map[string]interface{}, len(jobs))
	for i, job := range jobs {
		items[i] = map[string]interface{}{
			"id":            job.ID,
			"model_type":    job.ModelType,
			"status":        job.Status,
			"current_stage": job.CurrentStage,
			"progress":      job.Progress,
			"created_at":    job.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// CancelJob handles POST /v1/training/jobs/{id}/cancel
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.orch.Cancel(r.Context(), jobID, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobView(job))
}

// GetAuditTrail handles GET /v1/audit
func (h *JobHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, 200)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.trail.Entries(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]map[string]interface{}, len(entries))
	for i, e := range entries {
		items[i] = map[string]interface{}{
			"id":       e.ID,
			"action":   e.Action,
			"subjects": e.Subjects,
			"actor":    e.Actor,
			"detail":   e.Detail,
			"at":       e.At,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
