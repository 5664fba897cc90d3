package models

import "time"

// TrainingJob represents a multi-stage model training job submitted to the
// orchestrator. A job is created by Submit, mutated only by the progression
// loop and by Cancel, and becomes immutable once it reaches a terminal status.
type TrainingJob struct {
	ID              string
	ModelType       ModelType
	Coins           []string
	LookbackDays    int
	Interval        string
	Algorithm       string
	Architecture    ArchitectureSpec
	Environment     EnvironmentConfig
	Tune            bool
	RiskProfile     string
	DatasetVersion  string
	CurriculumLevel CurriculumLevel
	CallbackURL     string
	SubmittedBy     string
	Status          JobStatus
	CurrentStage    string
	Progress        int
	Stages          map[Stage]*StageState
	Logs            []LogEntry
	Metrics         *PerformanceMetrics
	Experiment      Experiment
	Curriculum      *CurriculumState
	ModelID         string
	CreatedAt       time.Time
	StartedAt       *time.Time
	EndedAt         *time.Time
	UpdatedAt       time.Time
}

// ModelType represents the kind of model a job trains
type ModelType string

const (
	ModelTypeForecast  ModelType = "forecast"
	ModelTypeRLAgent   ModelType = "rl_agent"
	ModelTypeSentiment ModelType = "sentiment"
	ModelTypeEnsemble  ModelType = "ensemble"
)

// KnownModelType reports whether mt is one of the supported model types
func KnownModelType(mt ModelType) bool {
	switch mt {
	case ModelTypeForecast, ModelTypeRLAgent, ModelTypeSentiment, ModelTypeEnsemble:
		return true
	}
	return false
}

// JobStatus represents the current status of a training job
type JobStatus string

const (
	JobStatusPending     JobStatus = "pending"
	JobStatusDataPrep    JobStatus = "data_prep"
	JobStatusForecasting JobStatus = "forecasting"
	JobStatusRLTraining  JobStatus = "rl_training"
	JobStatusBacktesting JobStatus = "backtesting"
	JobStatusValidation  JobStatus = "validation"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusFailed      JobStatus = "failed"
	JobStatusCancelled   JobStatus = "cancelled"
)

// Terminal reports whether the status is one a job can never leave
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// CurriculumLevel is a difficulty tier an RL training job progresses through
type CurriculumLevel string

const (
	CurriculumSimple     CurriculumLevel = "simple"
	CurriculumVolatile   CurriculumLevel = "volatile"
	CurriculumMultiAsset CurriculumLevel = "multi_asset"
)

// StageStatus represents the status of a single pipeline stage
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageSkipped   StageStatus = "skipped"
	StageFailed    StageStatus = "failed"
)

// StageState tracks per-stage progress within a job
type StageState struct {
	Status   StageStatus
	Progress int
	Duration time.Duration
}

// LogEntry is one line of a job's append-only log
type LogEntry struct {
	At      time.Time
	Level   string
	Stage   string
	Message string
}

// PerformanceMetrics is a snapshot of measured model performance
type PerformanceMetrics struct {
	WinRatio     float64
	TotalTrades  int
	MaxDrawdown  float64
	SharpeRatio  float64
	ProfitFactor float64
	Accuracy     float64
}

// Experiment carries external experiment-tracking identifiers
type Experiment struct {
	ExperimentID string
	RunID        string
}

// CurriculumState is the optional curriculum sub-state of an RL training job.
// Passing the target is advisory: the gate sets Passed and NextLevel, but the
// level itself only changes when the caller submits the next job with it.
type CurriculumState struct {
	Level     CurriculumLevel
	Target    CurriculumCriteria
	Measured  CurriculumMeasurement
	Passed    bool
	NextLevel CurriculumLevel
}

// CurriculumCriteria are the thresholds a level requires
type CurriculumCriteria struct {
	WinRatio    float64
	MinTrades   int
	MaxDrawdown float64
	SharpeRatio float64 // 0 means not required for the level
}

// CurriculumMeasurement are the values measured so far for the current level
type CurriculumMeasurement struct {
	WinRatio    float64
	Trades      int
	MaxDrawdown float64
	SharpeRatio float64
}

// AppendLog appends one log line; the log is never reordered or truncated
func (j *TrainingJob) AppendLog(level, stage, message string) {
	j.Logs = append(j.Logs, LogEntry{
		At:      time.Now(),
		Level:   level,
		Stage:   stage,
		Message: message,
	})
}

// Clone returns a deep copy safe to hand to other goroutines
func (j *TrainingJob) Clone() *TrainingJob {
	if j == nil {
		return nil
	}
	out := *j
	out.Coins = append([]string(nil), j.Coins...)
	out.Logs = append([]LogEntry(nil), j.Logs...)
	if j.Stages != nil {
		out.Stages = make(map[Stage]*StageState, len(j.Stages))
		for s, st := range j.Stages {
			cp := *st
			out.Stages[s] = &cp
		}
	}
	if j.Metrics != nil {
		m := *j.Metrics
		out.Metrics = &m
	}
	if j.Curriculum != nil {
		c := *j.Curriculum
		out.Curriculum = &c
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.EndedAt != nil {
		t := *j.EndedAt
		out.EndedAt = &t
	}
	return &out
}
