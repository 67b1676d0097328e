package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Harshitk031/dbadvisor/internal/plan"
	"github.com/Harshitk031/dbadvisor/internal/rules"
)

func TestScoreDefaultsWithoutEvidence(t *testing.T) {
	rec := &rules.Recommendation{Type: rules.TypeMissingIndex, Severity: rules.SeverityLow}

	confidence, impact := Score(rec, nil, nil, nil)
	assert.Equal(t, 0.3, confidence)
	assert.Equal(t, ImpactLow, impact)
}

func TestScoreWithFullEvidence(t *testing.T) {
	rec := &rules.Recommendation{Type: rules.TypeMissingIndex, Severity: rules.SeverityHigh}
	node := &plan.Node{NodeType: plan.FullScan, TotalCost: 5000}
	stats := &AggregateStats{Calls: 500, MeanTimeMs: 120}
	delta := &HypotheticalDelta{BaselineCost: 5000, HypotheticalCost: 500}

	confidence, impact := Score(rec, node, stats, delta)
	// 0.3 base + 0.2 cost + 0.4*0.9 hypo + 0.1 stats = 0.96
	assert.InDelta(t, 0.96, confidence, 1e-9)
	assert.Equal(t, ImpactHigh, impact)
}

func TestScoreConfidenceAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	severities := []rules.Severity{rules.SeverityLow, rules.SeverityMedium, rules.SeverityHigh, rules.SeverityCritical}

	for i := 0; i < 500; i++ {
		rec := &rules.Recommendation{Severity: severities[rng.Intn(len(severities))]}

		var node *plan.Node
		if rng.Intn(2) == 0 {
			node = &plan.Node{TotalCost: rng.Float64()*1e6 - 1000}
		}
		var stats *AggregateStats
		if rng.Intn(2) == 0 {
			stats = &AggregateStats{Calls: rng.Int63n(1e6) - 100}
		}
		var delta *HypotheticalDelta
		if rng.Intn(2) == 0 {
			delta = &HypotheticalDelta{
				BaselineCost:     rng.Float64()*1e4 - 100,
				HypotheticalCost: rng.Float64() * 1e4,
			}
		}

		confidence, impact := Score(rec, node, stats, delta)
		assert.GreaterOrEqual(t, confidence, 0.0)
		assert.LessOrEqual(t, confidence, 1.0)
		assert.Contains(t, []Impact{ImpactLow, ImpactMedium, ImpactHigh}, impact)
	}
}

func TestImpactFromHypotheticalDelta(t *testing.T) {
	rec := &rules.Recommendation{Severity: rules.SeverityLow}
	tests := []struct {
		baseline, hypothetical float64
		want                   Impact
	}{
		{1000, 100, ImpactHigh},   // 90% reduction
		{1000, 700, ImpactMedium}, // 30% reduction
		{1000, 900, ImpactLow},    // 10% reduction
	}
	for _, tt := range tests {
		_, impact := Score(rec, nil, nil, &HypotheticalDelta{BaselineCost: tt.baseline, HypotheticalCost: tt.hypothetical})
		assert.Equal(t, tt.want, impact)
	}
}

func TestImpactFallsBackToSeverity(t *testing.T) {
	tests := []struct {
		severity rules.Severity
		want     Impact
	}{
		{rules.SeverityLow, ImpactLow},
		{rules.SeverityMedium, ImpactMedium},
		{rules.SeverityHigh, ImpactHigh},
		{rules.SeverityCritical, ImpactHigh},
	}
	for _, tt := range tests {
		_, impact := Score(&rules.Recommendation{Severity: tt.severity}, nil, nil, nil)
		assert.Equal(t, tt.want, impact, tt.severity)
	}
}

func TestEnrichWritesBack(t *testing.T) {
	rec := &rules.Recommendation{Severity: rules.SeverityHigh}
	Enrich(rec, &plan.Node{TotalCost: 2000}, nil, nil)

	assert.Equal(t, 0.5, rec.Confidence)
	assert.Equal(t, string(ImpactHigh), rec.Impact)
}

func TestReductionPercentDegenerateBaseline(t *testing.T) {
	assert.Zero(t, (&HypotheticalDelta{BaselineCost: 0, HypotheticalCost: 10}).ReductionPercent())
	assert.Zero(t, (&HypotheticalDelta{BaselineCost: -5, HypotheticalCost: 10}).ReductionPercent())
	var nilDelta *HypotheticalDelta
	assert.Zero(t, nilDelta.ReductionPercent())
}
