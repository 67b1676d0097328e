// Command advisor analyzes a SQL query against a live database or a captured
// plan file and prints the recommendations as JSON.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Harshitk031/dbadvisor/internal/config"
	"github.com/Harshitk031/dbadvisor/internal/dialects"
	"github.com/Harshitk031/dbadvisor/internal/features"
	"github.com/Harshitk031/dbadvisor/internal/hypo"
	"github.com/Harshitk031/dbadvisor/internal/indexes"
	"github.com/Harshitk031/dbadvisor/internal/logger"
	"github.com/Harshitk031/dbadvisor/internal/pipeline"
	"github.com/Harshitk031/dbadvisor/internal/plan"
	"github.com/Harshitk031/dbadvisor/internal/rules"
	"github.com/Harshitk031/dbadvisor/internal/scoring"
	"github.com/Harshitk031/dbadvisor/internal/validate"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to advisor YAML config")
		engine      = flag.String("engine", "", "database engine (postgres, mysql, sqlite); overrides config")
		dsn         = flag.String("dsn", "", "database DSN; overrides config")
		query       = flag.String("query", "", "SQL query to analyze (required)")
		planFile    = flag.String("plan-file", "", "captured EXPLAIN output; skips the live explain")
		runValidate = flag.Bool("validate", false, "empirically validate the first index recommendation")
		simulate    = flag.Bool("simulate", false, "score with a HypoPG what-if simulation (postgres only)")
		verbose     = flag.Bool("verbose", false, "debug logging")
		timeout     = flag.Duration("timeout", 60*time.Second, "overall operation timeout")
	)
	flag.Parse()

	if err := run(*configPath, *engine, *dsn, *query, *planFile, *runValidate, *simulate, *verbose, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "advisor:", err)
		os.Exit(1)
	}
}

func run(configPath, engineFlag, dsnFlag, query, planFile string, runValidate, simulate, verbose bool, timeout time.Duration) error {
	if query == "" {
		return fmt.Errorf("-query is required")
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if engineFlag != "" {
		cfg.Database.Engine = engineFlag
	}
	if dsnFlag != "" {
		cfg.Database.DSN = dsnFlag
	}
	engine := config.NormalizeEngine(cfg.Database.Engine)
	if engine == "" {
		return fmt.Errorf("no database engine configured")
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := logger.NewSlogAdapter(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	advisor, err := pipeline.NewAdvisor(engine, log, nil)
	if err != nil {
		return err
	}

	var rawPlan []byte
	if planFile != "" {
		rawPlan, err = os.ReadFile(planFile)
		if err != nil {
			return fmt.Errorf("read plan file: %w", err)
		}
	}

	ddl, err := dialects.Get(engine)
	if err != nil {
		return err
	}

	// A live connection is needed unless a plan file covers the analysis
	// and no validation or simulation was requested.
	var db *sql.DB
	if planFile == "" || runValidate || simulate {
		driver, dsn, err := cfg.Database.DriverAndDSN()
		if err != nil {
			if planFile == "" {
				return err
			}
			log.Warn("no usable database connection; analyzing plan file only", "error", err)
		} else {
			db, err = sql.Open(driver, dsn)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			if err := db.PingContext(ctx); err != nil {
				if planFile == "" {
					return fmt.Errorf("connect to %s: %w", logger.MaskDSN(dsn), err)
				}
				log.Warn("database unreachable; analyzing plan file only", "error", err)
				db = nil
			}
		}
	}

	if rawPlan == nil && db != nil {
		rawPlan, err = plan.Capture(ctx, db, engine, ddl.ExplainSQL(query))
		if err != nil {
			return fmt.Errorf("capture plan: %w", err)
		}
	}

	ev := gatherEvidence(ctx, db, engine, query, simulate, log)

	report, err := advisor.AnalyzeQuery(ctx, query, rawPlan, ev)
	if err != nil {
		return err
	}

	var validation *validate.Result
	if runValidate {
		validation, err = validateFirst(ctx, db, engine, query, report.Recommendations, cfg, log)
		if err != nil {
			return err
		}
	}

	return printJSON(report, validation)
}

// gatherEvidence collects best-effort scoring inputs. Failures degrade the
// analysis rather than aborting it.
func gatherEvidence(ctx context.Context, db *sql.DB, engine, query string, simulate bool, log logger.Logger) *pipeline.Evidence {
	ev := &pipeline.Evidence{}
	if db == nil {
		return ev
	}

	if inspector, err := indexes.NewInspector(db, engine, log); err == nil {
		if unused, err := inspector.Unused(ctx, 0); err != nil {
			log.Warn("unused index inspection failed", "error", err)
		} else {
			ev.UnusedIndexes = unused
		}
	}

	if simulate && engine == "postgres" {
		sim := hypo.NewSimulator(db, log)
		if ok, err := sim.Available(ctx); err == nil && ok {
			ev.Hypothetical = simulateFirstCandidate(ctx, sim, query, log)
		} else {
			log.Warn("hypopg unavailable; skipping what-if simulation", "error", err)
		}
	}

	return ev
}

// simulateFirstCandidate extracts the query's WHERE columns and simulates
// an index on them.
func simulateFirstCandidate(ctx context.Context, sim *hypo.Simulator, query string, log logger.Logger) *scoring.HypotheticalDelta {
	f, err := features.Extract(query)
	if err != nil || f.TableName == "" || len(f.WhereColumns) == 0 {
		return nil
	}
	delta, err := sim.Simulate(ctx, query, f.TableName, f.WhereColumns)
	if err != nil {
		log.Warn("what-if simulation failed", "error", err)
		return nil
	}
	return delta
}

// validateFirst runs the harness against the first index recommendation.
func validateFirst(ctx context.Context, db *sql.DB, engine, query string, recs []*rules.Recommendation, cfg config.Config, log logger.Logger) (*validate.Result, error) {
	if db == nil {
		return nil, fmt.Errorf("-validate requires a database connection")
	}

	var target *rules.Recommendation
	for _, rec := range recs {
		if rec.Type == rules.TypeMissingIndex {
			target = rec
			break
		}
	}
	if target == nil {
		log.Info("no index recommendation to validate")
		return nil, nil
	}

	harness, err := validate.NewHarness(db, engine, log, nil)
	if err != nil {
		return nil, err
	}
	return harness.Validate(ctx, query, target.SuggestedAction, validate.Options{
		Iterations:  cfg.Validation.Iterations,
		SettleDelay: cfg.Validation.SettleDelay,
	})
}

func printJSON(report *pipeline.Report, validation *validate.Result) error {
	out := struct {
		*pipeline.Report
		Validation *validate.Result `json:"validation,omitempty"`
	}{Report: report, Validation: validation}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
