package models

import "time"

// Model is a registry entry produced by a completed training job. A model is
// created exactly once, never deleted; superseded models are archived.
type Model struct {
	ID             string
	Name           string
	Version        string
	Type           ModelType
	Status         ModelStatus
	Performance    PerformanceMetrics
	Algorithm      AlgorithmInfo
	Experiment     Experiment
	RiskProfile    string
	Explainability ExplainabilitySummary
	SourceJobID    string
	CreatedAt      time.Time
	DeployedAt     *time.Time
	ShadowStart    *time.Time
	ShadowEnd      *time.Time
}

// ModelStatus is the lifecycle state of a registry model
type ModelStatus string

const (
	ModelStatusTrained  ModelStatus = "trained"
	ModelStatusDeployed ModelStatus = "deployed"
	ModelStatusShadow   ModelStatus = "shadow"
	ModelStatusArchived ModelStatus = "archived"
)

// AlgorithmInfo describes how the model was trained
type AlgorithmInfo struct {
	Name            string
	Library         string
	Hyperparameters map[string]string
}

// ExplainabilitySummary carries feature-attribution output for the model
type ExplainabilitySummary struct {
	Method      string
	TopFeatures []FeatureWeight
}

// FeatureWeight is one feature's attribution weight
type FeatureWeight struct {
	Feature string
	Weight  float64
}

// ShadowTest is one comparison row from a shadow run: the decision the
// shadow model would have made next to the live one.
type ShadowTest struct {
	ModelID        string
	At             time.Time
	Symbol         string
	LiveDecision   string
	ShadowDecision string
	Agreement      bool
	PnLDelta       float64
}

// Clone returns a deep copy safe to hand to other goroutines
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	out := *m
	if m.Algorithm.Hyperparameters != nil {
		out.Algorithm.Hyperparameters = make(map[string]string, len(m.Algorithm.Hyperparameters))
		for k, v := range m.Algorithm.Hyperparameters {
			out.Algorithm.Hyperparameters[k] = v
		}
	}
	out.Explainability.TopFeatures = append([]FeatureWeight(nil), m.Explainability.TopFeatures...)
	if m.DeployedAt != nil {
		t := *m.DeployedAt
		out.DeployedAt = &t
	}
	if m.ShadowStart != nil {
		t := *m.ShadowStart
		out.ShadowStart = &t
	}
	if m.ShadowEnd != nil {
		t := *m.ShadowEnd
		out.ShadowEnd = &t
	}
	return &out
}
