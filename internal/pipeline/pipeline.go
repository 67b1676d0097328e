// Package pipeline composes the advisory stages: feature extraction, plan
// normalization, rule evaluation, and scoring. One Advisor serves one engine.
package pipeline

import (
	"context"
	"fmt"

	"github.com/Harshitk031/dbadvisor/internal/features"
	"github.com/Harshitk031/dbadvisor/internal/logger"
	"github.com/Harshitk031/dbadvisor/internal/plan"
	"github.com/Harshitk031/dbadvisor/internal/rules"
	"github.com/Harshitk031/dbadvisor/internal/scoring"
	"github.com/Harshitk031/dbadvisor/internal/tracer"
)

// Report is the output of one analysis call.
type Report struct {
	Engine          string                  `json:"engine"`
	Query           string                  `json:"query"`
	Features        *features.QueryFeatures `json:"features"`
	Plan            *plan.Node              `json:"plan,omitempty"`
	Recommendations []*rules.Recommendation `json:"recommendations"`
	Warnings        []string                `json:"warnings,omitempty"`
	Summary         string                  `json:"summary"`
}

// Evidence carries the optional inputs that sharpen scoring: unused-index
// rows from the inspector, workload statistics, and a what-if delta from
// the hypothetical-index simulator.
type Evidence struct {
	UnusedIndexes []rules.UnusedIndex
	Stats         *scoring.AggregateStats
	Hypothetical  *scoring.HypotheticalDelta
}

// Advisor runs the recommendation pipeline for one engine.
type Advisor struct {
	engine string
	rules  *rules.Engine
	log    logger.Logger
	trace  tracer.Tracer
}

// NewAdvisor creates an advisor for the named engine. A nil logger or
// tracer falls back to the no-op implementation.
func NewAdvisor(engine string, log logger.Logger, trace tracer.Tracer) (*Advisor, error) {
	if log == nil {
		log = &logger.NoopLogger{}
	}
	if trace == nil {
		trace = &tracer.NoopTracer{}
	}
	eng, err := rules.NewEngine(engine, log)
	if err != nil {
		return nil, fmt.Errorf("advisor: %w", err)
	}
	return &Advisor{engine: engine, rules: eng, log: log, trace: trace}, nil
}

// AnalyzeQuery runs the full pipeline over one query and its captured plan
// payload. rawPlan may be nil when only text-level analysis is wanted; the
// rule evaluator then sees no plan nodes and only evidence-driven rules
// fire. Extraction and normalization errors abort this call only.
func (a *Advisor) AnalyzeQuery(ctx context.Context, query string, rawPlan []byte, ev *Evidence) (*Report, error) {
	_, span := a.trace.StartSpan(ctx, "advisor.analyze")
	defer span.End()

	report := &Report{Engine: a.engine, Query: query}
	if ev == nil {
		ev = &Evidence{}
	}

	f, err := features.Extract(query)
	if err != nil {
		a.traceOutcome(span, report, err)
		return nil, err
	}
	report.Features = f

	if len(rawPlan) > 0 {
		node, err := plan.Normalize(a.engine, rawPlan)
		if err != nil {
			a.traceOutcome(span, report, err)
			return nil, err
		}
		report.Plan = node
	}

	recs, warnings := a.rules.Evaluate(report.Plan, f, ev.UnusedIndexes)
	report.Recommendations = recs
	report.Warnings = warnings

	for _, rec := range recs {
		scoring.Enrich(rec, report.Plan, ev.Stats, ev.Hypothetical)
	}

	report.Summary = summarize(recs)
	a.log.Info("analysis complete",
		"engine", a.engine,
		"recommendations", len(recs),
		"warnings", len(warnings),
		"statement", logger.MaskStatement(query),
	)
	a.traceOutcome(span, report, nil)
	return report, nil
}

func (a *Advisor) traceOutcome(span tracer.Span, report *Report, err error) {
	tracer.AddAnalysisAttributes(span, &tracer.AnalysisMetadata{
		SQL:             logger.MaskStatement(report.Query),
		Engine:          a.engine,
		Recommendations: len(report.Recommendations),
		Warnings:        len(report.Warnings),
		Error:           err,
	})
}

// summarize condenses the recommendation list into one line, leading with
// the highest severity present.
func summarize(recs []*rules.Recommendation) string {
	if len(recs) == 0 {
		return "no recommendations"
	}

	worst := recs[0].Severity
	counts := make(map[rules.Type]int)
	for _, rec := range recs {
		counts[rec.Type]++
		if rec.Severity.Rank() > worst.Rank() {
			worst = rec.Severity
		}
	}

	return fmt.Sprintf("%d recommendation(s), highest severity %s (%d missing index, %d unused index, %d sort, %d join, %d statistics)",
		len(recs), worst,
		counts[rules.TypeMissingIndex],
		counts[rules.TypeUnusedIndex],
		counts[rules.TypeInefficientSort],
		counts[rules.TypeNestedLoopJoin],
		counts[rules.TypeMissingStatistic],
	)
}
