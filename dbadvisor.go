// Package dbadvisor analyzes SQL queries and their execution plans, producing
// index and statistics recommendations, validating them against a live
// database, and detecting performance regressions in historical series. It
// supports PostgreSQL, MySQL, and SQLite.
package dbadvisor

import (
	"github.com/Harshitk031/dbadvisor/internal/config"
	"github.com/Harshitk031/dbadvisor/internal/features"
	"github.com/Harshitk031/dbadvisor/internal/hypo"
	"github.com/Harshitk031/dbadvisor/internal/indexes"
	"github.com/Harshitk031/dbadvisor/internal/logger"
	"github.com/Harshitk031/dbadvisor/internal/pipeline"
	"github.com/Harshitk031/dbadvisor/internal/plan"
	"github.com/Harshitk031/dbadvisor/internal/regress"
	"github.com/Harshitk031/dbadvisor/internal/rules"
	"github.com/Harshitk031/dbadvisor/internal/scoring"
	"github.com/Harshitk031/dbadvisor/internal/tracer"
	"github.com/Harshitk031/dbadvisor/internal/validate"
)

type (
	// Advisor runs the recommendation pipeline for one engine.
	Advisor = pipeline.Advisor
	// Report is the output of one analysis call.
	Report = pipeline.Report
	// Evidence carries optional scoring inputs for an analysis call.
	Evidence = pipeline.Evidence

	// QueryFeatures holds the structural features of one statement.
	QueryFeatures = features.QueryFeatures
	// ParseError reports query text that could not be analyzed.
	ParseError = features.ParseError

	// PlanNode is one operator in the canonical plan tree.
	PlanNode = plan.Node
	// PlanDecodeError reports a plan payload that could not be decoded.
	PlanDecodeError = plan.DecodeError

	// Recommendation is one advisory finding.
	Recommendation = rules.Recommendation
	// UnusedIndex is one evidence row from the index-usage inspector.
	UnusedIndex = rules.UnusedIndex

	// AggregateStats summarizes a query's historical workload.
	AggregateStats = scoring.AggregateStats
	// HypotheticalDelta is the cost pair from a what-if simulation.
	HypotheticalDelta = scoring.HypotheticalDelta

	// Harness validates one (query, recommendation) pair per run.
	Harness = validate.Harness
	// ValidationOptions tunes one validation run.
	ValidationOptions = validate.Options
	// ValidationResult is the outcome of one validation run.
	ValidationResult = validate.Result

	// RegressionSample is one historical observation of a query.
	RegressionSample = regress.Sample
	// RegressionRecord is the outcome of analyzing one query's series.
	RegressionRecord = regress.Record

	// IndexInspector finds candidate indexes for removal.
	IndexInspector = indexes.Inspector
	// HypoSimulator runs what-if index experiments via HypoPG.
	HypoSimulator = hypo.Simulator

	// Config is the advisor configuration.
	Config = config.Config
	// Logger is the pluggable logging interface.
	Logger = logger.Logger
	// Tracer is the pluggable tracing interface.
	Tracer = tracer.Tracer
)

// Re-export constructors and top-level operations.
var (
	NewAdvisor        = pipeline.NewAdvisor
	NewHarness        = validate.NewHarness
	NewIndexInspector = indexes.NewInspector
	NewHypoSimulator  = hypo.NewSimulator

	ExtractFeatures   = features.Extract
	NormalizePlan     = plan.Normalize
	AnalyzeRegression = regress.Analyze
	FindRegressions   = regress.FindRegressions

	DefaultConfig   = config.Default
	LoadConfig      = config.LoadFile
	NormalizeEngine = config.NormalizeEngine

	NewSlogLogger = logger.NewSlogAdapter
	NewOtelTracer = tracer.NewOtelTracer
)
