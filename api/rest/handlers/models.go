package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"training-orchestrator/core/models"
	"training-orchestrator/core/registry"
	"training-orchestrator/core/repository"
)

// ModelHandler handles model-registry HTTP requests
type ModelHandler struct {
	registry *registry.Registry
	logger   *zap.Logger
}

// NewModelHandler creates a new model handler
func NewModelHandler(reg *registry.Registry, logger *zap.Logger) *ModelHandler {
	return &ModelHandler{registry: reg, logger: logger}
}

// approvalRequest carries the approval flag issued by the upstream
// governance sign-off
type approvalRequest struct {
	Approved bool `json:"approved"`
}

// ListModels handles GET /v1/models
func (h *ModelHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	filter := repository.ModelFilter{Limit: 50}
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		s := models.ModelStatus(statusParam)
		filter.Status = &s
	}
	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		t := models.ModelType(typeParam)
		filter.Type = &t
	}

	list, err := h.registry.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]map[string]interface{}, len(list))
	for i, m := range list {
		items[i] = modelView(m)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// GetModel handles GET /v1/models/{id}
func (h *ModelHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	m, err := h.registry.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modelView(m))
}

// DeployModel handles POST /v1/models/{id}/deploy and its promote alias
func (h *ModelHandler) DeployModel(w http.ResponseWriter, r *http.Request) {
	var req approvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	m, err := h.registry.Deploy(r.Context(), mux.Vars(r)["id"], req.Approved, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modelView(m))
}

// rollbackRequest names both sides of a rollback
type rollbackRequest struct {
	FromModelID string `json:"from_model_id"`
	ToModelID   string `json:"to_model_id"`
	Approved    bool   `json:"approved"`
}

// RollbackModel handles POST /v1/models/rollback
func (h *ModelHandler) RollbackModel(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.registry.Rollback(r.Context(), req.FromModelID, req.ToModelID, req.Approved, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"from": modelView(res.From),
		"to":   modelView(res.To),
	})
}

// StartShadow handles POST /v1/models/{id}/shadow/start
func (h *ModelHandler) StartShadow(w http.ResponseWriter, r *http.Request) {
	m, err := h.registry.StartShadow(r.Context(), mux.Vars(r)["id"], actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modelView(m))
}

// StopShadow handles POST /v1/models/{id}/shadow/stop
func (h *ModelHandler) StopShadow(w http.ResponseWriter, r *http.Request) {
	m, err := h.registry.StopShadow(r.Context(), mux.Vars(r)["id"], actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modelView(m))
}

// GetShadowTests handles GET /v1/models/{id}/shadow/tests
func (h *ModelHandler) GetShadowTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.registry.ShadowTests(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]map[string]interface{}, len(tests))
	for i, t := range tests {
		items[i] = map[string]interface{}{
			"at":              t.At,
			"symbol":          t.Symbol,
			"live_decision":   t.LiveDecision,
			"shadow_decision": t.ShadowDecision,
			"agreement":       t.Agreement,
			"pnl_delta":       t.PnLDelta,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
