// Package scoring assigns a confidence value and an impact tier to each
// recommendation based on the available evidence. Scoring is deterministic
// and degrades to defined defaults when evidence is absent.
package scoring

import (
	"github.com/Harshitk031/dbadvisor/internal/plan"
	"github.com/Harshitk031/dbadvisor/internal/rules"
)

// Impact buckets the estimated magnitude of benefit.
type Impact string

const (
	ImpactLow    Impact = "LOW"
	ImpactMedium Impact = "MEDIUM"
	ImpactHigh   Impact = "HIGH"
)

// AggregateStats summarizes the historical workload of the query being
// analyzed, typically sourced from pg_stat_statements or equivalent.
type AggregateStats struct {
	Calls        int64   `json:"calls"`
	MeanTimeMs   float64 `json:"mean_time_ms"`
	StddevTimeMs float64 `json:"stddev_time_ms"`
}

// HypotheticalDelta is the before/after cost pair from a what-if index
// simulation.
type HypotheticalDelta struct {
	BaselineCost     float64 `json:"baseline_cost"`
	HypotheticalCost float64 `json:"hypothetical_cost"`
}

// ReductionPercent returns the simulated cost reduction, 0 when the baseline
// cost is not meaningful.
func (d *HypotheticalDelta) ReductionPercent() float64 {
	if d == nil || d.BaselineCost <= 0 {
		return 0
	}
	return (d.BaselineCost - d.HypotheticalCost) / d.BaselineCost * 100
}

// Evidence weights. The base value is what a bare rule trigger is worth; the
// simulation carries the most weight because it is the closest thing to a
// real measurement.
const (
	baseConfidence = 0.3
	costWeight     = 0.2
	hypoWeight     = 0.4
	statsWeight    = 0.1
)

// Score computes (confidence, impact) for one recommendation. Absent stats
// or delta lower the confidence rather than causing an error.
func Score(rec *rules.Recommendation, node *plan.Node, stats *AggregateStats, delta *HypotheticalDelta) (float64, Impact) {
	confidence := baseConfidence

	if node != nil && node.TotalCost > 0 {
		confidence += costWeight * clamp01(node.TotalCost/1000)
	}
	if pct := delta.ReductionPercent(); pct > 0 {
		confidence += hypoWeight * clamp01(pct/100)
	}
	if stats != nil && stats.Calls > 0 {
		confidence += statsWeight * clamp01(float64(stats.Calls)/100)
	}

	return clamp01(confidence), impactTier(rec, delta)
}

// Enrich scores rec and writes the result back onto it.
func Enrich(rec *rules.Recommendation, node *plan.Node, stats *AggregateStats, delta *HypotheticalDelta) {
	confidence, impact := Score(rec, node, stats, delta)
	rec.Confidence = confidence
	rec.Impact = string(impact)
}

// impactTier buckets the estimated benefit. A simulated cost reduction is
// authoritative; otherwise the rule severity stands in.
func impactTier(rec *rules.Recommendation, delta *HypotheticalDelta) Impact {
	if pct := delta.ReductionPercent(); pct > 0 {
		switch {
		case pct > 50:
			return ImpactHigh
		case pct > 20:
			return ImpactMedium
		default:
			return ImpactLow
		}
	}

	if rec == nil {
		return ImpactLow
	}
	switch rec.Severity {
	case rules.SeverityHigh, rules.SeverityCritical:
		return ImpactHigh
	case rules.SeverityMedium:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
