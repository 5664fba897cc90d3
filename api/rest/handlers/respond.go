package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"training-orchestrator/core/errs"
	"training-orchestrator/core/models"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the core error taxonomy to HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	var (
		verr *errs.ValidationError
		cerr *errs.ConflictError
		nerr *errs.NotFoundError
		aerr *errs.ApprovalRequiredError
		serr *errs.StateError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation_error",
			"fields": verr.Fields,
		})
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":    "conflict",
			"resource": cerr.Resource,
			"id":       cerr.ID,
			"reason":   cerr.Reason,
		})
	case errors.As(err, &nerr):
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error":    "not_found",
			"resource": nerr.Resource,
			"id":       nerr.ID,
		})
	case errors.As(err, &aerr):
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"error":     "approval_required",
			"operation": aerr.Operation,
		})
	case errors.As(err, &serr):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":    "invalid_state",
			"resource": serr.Resource,
			"id":       serr.ID,
			"status":   serr.Status,
			"reason":   serr.Reason,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "internal",
		})
	}
}

// actorFrom extracts the opaque actor identity supplied by the upstream
// identity provider
func actorFrom(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "anonymous"
}

func jobView(job *models.TrainingJob) map[string]interface{} {
	stages := make(map[string]interface{}, len(job.Stages))
	for s, st := range job.Stages {
		stages[string(s)] = map[string]interface{}{
			"status":      st.Status,
			"progress":    st.Progress,
			"duration_ms": st.Duration.Milliseconds(),
		}
	}

	logs := make([]map[string]interface{}, len(job.Logs))
	for i, l := range job.Logs {
		logs[i] = map[string]interface{}{
			"at":      l.At,
			"level":   l.Level,
			"stage":   l.Stage,
			"message": l.Message,
		}
	}

	view := map[string]interface{}{
		"id":            job.ID,
		"model_type":    job.ModelType,
		"coins":         job.Coins,
		"lookback_days": job.LookbackDays,
		"interval":      job.Interval,
		"algorithm":     job.Algorithm,
		"status":        job.Status,
		"current_stage": job.CurrentStage,
		"progress":      job.Progress,
		"stages":        stages,
		"logs":          logs,
		"experiment": map[string]interface{}{
			"experiment_id": job.Experiment.ExperimentID,
			"run_id":        job.Experiment.RunID,
		},
		"submitted_by": job.SubmittedBy,
		"created_at":   job.CreatedAt,
		"started_at":   job.StartedAt,
		"ended_at":     job.EndedAt,
	}
	if job.ModelID != "" {
		view["model_id"] = job.ModelID
	}
	if job.Metrics != nil {
		view["metrics"] = metricsView(*job.Metrics)
	}
	if job.Curriculum != nil {
		view["curriculum"] = map[string]interface{}{
			"level": job.Curriculum.Level,
			"criteria": map[string]interface{}{
				"target": map[string]interface{}{
					"win_ratio":    job.Curriculum.Target.WinRatio,
					"min_trades":   job.Curriculum.Target.MinTrades,
					"max_drawdown": job.Curriculum.Target.MaxDrawdown,
					"sharpe_ratio": job.Curriculum.Target.SharpeRatio,
				},
				"measured": map[string]interface{}{
					"win_ratio":    job.Curriculum.Measured.WinRatio,
					"trades":       job.Curriculum.Measured.Trades,
					"max_drawdown": job.Curriculum.Measured.MaxDrawdown,
					"sharpe_ratio": job.Curriculum.Measured.SharpeRatio,
				},
				"passed": job.Curriculum.Passed,
			},
			"scheduler": map[string]interface{}{
				"next_level": job.Curriculum.NextLevel,
			},
		}
	}
	return view
}

func metricsView(m models.PerformanceMetrics) map[string]interface{} {
	return map[string]interface{}{
		"win_ratio":     m.WinRatio,
		"total_trades":  m.TotalTrades,
		"max_drawdown":  m.MaxDrawdown,
		"sharpe_ratio":  m.SharpeRatio,
		"profit_factor": m.ProfitFactor,
		"accuracy":      m.Accuracy,
	}
}

func modelView(m *models.Model) map[string]interface{} {
	return map[string]interface{}{
		"id":            m.ID,
		"name":          m.Name,
		"version":       m.Version,
		"type":          m.Type,
		"status":        m.Status,
		"performance":   metricsView(m.Performance),
		"risk_profile":  m.RiskProfile,
		"source_job_id": m.SourceJobID,
		"algorithm": map[string]interface{}{
			"name":    m.Algorithm.Name,
			"library": m.Algorithm.Library,
		},
		"experiment": map[string]interface{}{
			"experiment_id": m.Experiment.ExperimentID,
			"run_id":        m.Experiment.RunID,
		},
		"created_at":   m.CreatedAt,
		"deployed_at":  m.DeployedAt,
		"shadow_start": m.ShadowStart,
		"shadow_end":   m.ShadowEnd,
	}
}
