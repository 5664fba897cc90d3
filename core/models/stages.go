package models

// Stage is one ordered phase of a training job's pipeline
type Stage string

const (
	StageDataPrep    Stage = "data_prep"
	StageForecasting Stage = "forecasting"
	StageRLTraining  Stage = "rl_training"
	StageBacktesting Stage = "backtesting"
	StageValidation  Stage = "validation"
)

// stageOrder is the canonical pipeline order
var stageOrder = []Stage{
	StageDataPrep,
	StageForecasting,
	StageRLTraining,
	StageBacktesting,
	StageValidation,
}

// stageWeights drive the overall progress computation. Fixed: data_prep 15,
// forecasting 20, rl_training 35, backtesting 20, validation 10. When a
// pipeline omits forecasting the remaining weights are renormalized so
// progress still reaches 100.
var stageWeights = map[Stage]int{
	StageDataPrep:    15,
	StageForecasting: 20,
	StageRLTraining:  35,
	StageBacktesting: 20,
	StageValidation:  10,
}

// stageLabels are the human-readable stage names surfaced as CurrentStage
var stageLabels = map[Stage]string{
	StageDataPrep:    "Preparing dataset",
	StageForecasting: "Training forecaster",
	StageRLTraining:  "Training RL agent",
	StageBacktesting: "Running backtests",
	StageValidation:  "Validating model",
}

// StagesFor returns the ordered pipeline for a model type. Sentiment models
// have no price forecaster, so their pipeline skips the forecasting stage.
func StagesFor(mt ModelType) []Stage {
	if mt != ModelTypeSentiment {
		return append([]Stage(nil), stageOrder...)
	}
	out := make([]Stage, 0, len(stageOrder)-1)
	for _, s := range stageOrder {
		if s == StageForecasting {
			continue
		}
		out = append(out, s)
	}
	return out
}

// StageWeight returns the fixed progress weight of a stage
func StageWeight(s Stage) int {
	return stageWeights[s]
}

// StageLabel returns the human label for a stage
func StageLabel(s Stage) string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// StatusForStage maps a running stage to the job status it implies
func StatusForStage(s Stage) JobStatus {
	return JobStatus(s)
}

// NewStageStates initializes the per-stage state map for a model type.
// Stages outside the pipeline (forecasting for sentiment) are marked skipped
// up front so readers see the full picture.
func NewStageStates(mt ModelType) map[Stage]*StageState {
	pipeline := StagesFor(mt)
	inPipeline := make(map[Stage]bool, len(pipeline))
	for _, s := range pipeline {
		inPipeline[s] = true
	}

	out := make(map[Stage]*StageState, len(stageOrder))
	for _, s := range stageOrder {
		if inPipeline[s] {
			out[s] = &StageState{Status: StagePending}
		} else {
			out[s] = &StageState{Status: StageSkipped}
		}
	}
	return out
}

// OverallProgress computes the weighted progress over the job's pipeline,
// normalized to [0,100]. Skipped stages contribute no weight.
func (j *TrainingJob) OverallProgress() int {
	total := 0
	acc := 0
	for _, s := range StagesFor(j.ModelType) {
		w := stageWeights[s]
		total += w * 100
		if st, ok := j.Stages[s]; ok {
			acc += w * st.Progress
		}
	}
	if total == 0 {
		return 0
	}
	return acc * 100 / total
}

// NextStage returns the first pipeline stage not yet completed, or false
// when every stage is done
func (j *TrainingJob) NextStage() (Stage, bool) {
	for _, s := range StagesFor(j.ModelType) {
		st, ok := j.Stages[s]
		if !ok || (st.Status != StageCompleted && st.Status != StageSkipped) {
			return s, true
		}
	}
	return "", false
}
