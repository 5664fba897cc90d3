// Package curriculum holds the static curriculum-stage catalog and the pure
// gate that compares a job's measured metrics against its level's thresholds.
// The gate is advisory: it never mutates the job or the catalog, and callers
// decide what to do with the result.
package curriculum

import (
	"fmt"

	"training-orchestrator/core/models"
)

// Stage is one entry of the read-only curriculum catalog
type Stage struct {
	Level       models.CurriculumLevel
	Criteria    models.CurriculumCriteria
	Description string
}

// catalog is consulted, never mutated
var catalog = []Stage{
	{
		Level: models.CurriculumSimple,
		Criteria: models.CurriculumCriteria{
			WinRatio:    0.55,
			MinTrades:   20,
			MaxDrawdown: 0.15,
		},
		Description: "Single liquid asset, trending market",
	},
	{
		Level: models.CurriculumVolatile,
		Criteria: models.CurriculumCriteria{
			WinRatio:    0.60,
			MinTrades:   30,
			MaxDrawdown: 0.12,
		},
		Description: "Single asset, high-volatility regimes",
	},
	{
		Level: models.CurriculumMultiAsset,
		Criteria: models.CurriculumCriteria{
			WinRatio:    0.65,
			MinTrades:   50,
			MaxDrawdown: 0.10,
			SharpeRatio: 1.2,
		},
		Description: "Full multi-asset portfolio",
	},
}

// Stages returns a copy of the catalog in level order
func Stages() []Stage {
	return append([]Stage(nil), catalog...)
}

// StageFor looks up the catalog entry for a level
func StageFor(level models.CurriculumLevel) (Stage, bool) {
	for _, s := range catalog {
		if s.Level == level {
			return s, true
		}
	}
	return Stage{}, false
}

// NextLevel returns the level after the given one, if any
func NextLevel(level models.CurriculumLevel) (models.CurriculumLevel, bool) {
	for i, s := range catalog {
		if s.Level == level && i+1 < len(catalog) {
			return catalog[i+1].Level, true
		}
	}
	return "", false
}

// Result is the gate's verdict for a job's current level
type Result struct {
	TargetMet bool
	NextLevel models.CurriculumLevel // empty when the target is unmet or the job is at the last level
}

// Evaluate compares the job's measured curriculum metrics against its
// level's thresholds. The target is met when winRatio and trade count reach
// their minimums and drawdown stays under its maximum; a level may
// additionally require a Sharpe ratio.
func Evaluate(job *models.TrainingJob) (Result, error) {
	if job.Curriculum == nil {
		return Result{}, nil
	}

	stage, ok := StageFor(job.Curriculum.Level)
	if !ok {
		return Result{}, fmt.Errorf("unknown curriculum level %q", job.Curriculum.Level)
	}

	measured := job.Curriculum.Measured
	target := stage.Criteria

	met := measured.WinRatio >= target.WinRatio &&
		measured.Trades >= target.MinTrades &&
		measured.MaxDrawdown <= target.MaxDrawdown
	if target.SharpeRatio > 0 {
		met = met && measured.SharpeRatio >= target.SharpeRatio
	}

	res := Result{TargetMet: met}
	if met {
		if next, ok := NextLevel(stage.Level); ok {
			res.NextLevel = next
		}
	}
	return res, nil
}
