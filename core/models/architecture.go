package models

// ArchitectureSpec is the tagged architecture payload of a submission.
// Exactly the section matching the job's model type may be set; the
// submission boundary validates this once so downstream code never sees a
// mismatched payload.
type ArchitectureSpec struct {
	Forecast  *ForecastArchitecture  `json:"forecast,omitempty" yaml:"forecast,omitempty"`
	RLAgent   *RLAgentArchitecture   `json:"rl_agent,omitempty" yaml:"rl_agent,omitempty"`
	Sentiment *SentimentArchitecture `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
	Ensemble  *EnsembleArchitecture  `json:"ensemble,omitempty" yaml:"ensemble,omitempty"`
}

// ForecastArchitecture configures a price-forecasting network
type ForecastArchitecture struct {
	Layers      int    `json:"layers" yaml:"layers"`
	HiddenUnits int    `json:"hidden_units" yaml:"hidden_units"`
	Horizon     int    `json:"horizon" yaml:"horizon"`
	Loss        string `json:"loss,omitempty" yaml:"loss,omitempty"`
}

// RLAgentArchitecture configures a reinforcement-learning agent
type RLAgentArchitecture struct {
	PolicyNetwork string  `json:"policy_network" yaml:"policy_network"`
	Gamma         float64 `json:"gamma" yaml:"gamma"`
	LearningRate  float64 `json:"learning_rate" yaml:"learning_rate"`
	BatchSize     int     `json:"batch_size" yaml:"batch_size"`
}

// SentimentArchitecture configures a sentiment model
type SentimentArchitecture struct {
	BaseModel string `json:"base_model" yaml:"base_model"`
	MaxTokens int    `json:"max_tokens" yaml:"max_tokens"`
}

// EnsembleArchitecture configures an ensemble combiner
type EnsembleArchitecture struct {
	Members  []string `json:"members" yaml:"members"`
	Combiner string   `json:"combiner" yaml:"combiner"`
}

// SectionFor returns whether a section is set for the given model type and
// whether any other section is set.
func (a ArchitectureSpec) SectionFor(mt ModelType) (match bool, other bool) {
	sections := map[ModelType]bool{
		ModelTypeForecast:  a.Forecast != nil,
		ModelTypeRLAgent:   a.RLAgent != nil,
		ModelTypeSentiment: a.Sentiment != nil,
		ModelTypeEnsemble:  a.Ensemble != nil,
	}
	for t, set := range sections {
		if !set {
			continue
		}
		if t == mt {
			match = true
		} else {
			other = true
		}
	}
	return match, other
}

// EnvironmentConfig tunes the simulated trading environment used during
// RL training and backtesting
type EnvironmentConfig struct {
	FeeRate        float64 `json:"fee_rate,omitempty" yaml:"fee_rate,omitempty"`
	SlippageBps    int     `json:"slippage_bps,omitempty" yaml:"slippage_bps,omitempty"`
	InitialBalance float64 `json:"initial_balance,omitempty" yaml:"initial_balance,omitempty"`
	MaxPositions   int     `json:"max_positions,omitempty" yaml:"max_positions,omitempty"`
}
