package validate

import (
	"fmt"

	"github.com/Harshitk031/dbadvisor/internal/plan"
)

// Assessment is the overall verdict on a validated recommendation.
type Assessment string

const (
	AssessmentExcellent Assessment = "EXCELLENT"
	AssessmentGood      Assessment = "GOOD"
	AssessmentModerate  Assessment = "MODERATE"
	AssessmentMinimal   Assessment = "MINIMAL"
	AssessmentNegative  Assessment = "NEGATIVE"
)

// Improvement is the measured difference between baseline and after runs.
type Improvement struct {
	TimeDeltaMs  float64    `json:"time_delta_ms"`
	TimePercent  float64    `json:"time_percent"`
	CostDelta    float64    `json:"cost_delta"`
	CostPercent  float64    `json:"cost_percent"`
	PlanChange   string     `json:"plan_change"`
	PlanImproved bool       `json:"plan_improved"`
	Assessment   Assessment `json:"assessment"`
}

// goodTransitions are before→after node-type pairs known to be improvements.
var goodTransitions = map[plan.NodeType]map[plan.NodeType]bool{
	plan.FullScan: {
		plan.IndexScan:     true,
		plan.IndexOnlyScan: true,
		plan.BitmapScan:    true,
		plan.RangeScan:     true,
	},
	plan.IndexScan: {
		plan.IndexOnlyScan: true,
	},
}

// computeImprovement derives the delta record from two measurements.
func computeImprovement(baseline, after *Metrics) *Improvement {
	imp := &Improvement{
		TimeDeltaMs: baseline.ExecutionTimeMs - after.ExecutionTimeMs,
		CostDelta:   baseline.Cost - after.Cost,
		PlanChange:  fmt.Sprintf("%s → %s", baseline.NodeType, after.NodeType),
	}

	if baseline.ExecutionTimeMs > 0 {
		imp.TimePercent = imp.TimeDeltaMs / baseline.ExecutionTimeMs * 100
	}
	if baseline.Cost > 0 {
		imp.CostPercent = imp.CostDelta / baseline.Cost * 100
	}

	imp.PlanImproved = goodTransitions[baseline.NodeType][after.NodeType]
	imp.Assessment = Assess(imp.PlanImproved, imp.TimePercent)
	return imp
}

// Assess classifies an improvement from the plan transition and the
// measured time reduction percentage.
func Assess(planImproved bool, timePercent float64) Assessment {
	switch {
	case planImproved && timePercent > 50:
		return AssessmentExcellent
	case timePercent > 50 || (planImproved && timePercent > 20):
		return AssessmentGood
	case timePercent > 10:
		return AssessmentModerate
	case timePercent > 0:
		return AssessmentMinimal
	default:
		return AssessmentNegative
	}
}
