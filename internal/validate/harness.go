// Package validate empirically verifies a recommendation against a live
// database: measure a baseline, apply the suggested DDL, measure again, and
// always restore the schema to its starting state.
package validate

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Harshitk031/dbadvisor/internal/dialects"
	"github.com/Harshitk031/dbadvisor/internal/logger"
	"github.com/Harshitk031/dbadvisor/internal/security"
	"github.com/Harshitk031/dbadvisor/internal/tracer"
)

// State is the harness lifecycle position. A run always ends Disconnected.
type State string

const (
	StateDisconnected     State = "Disconnected"
	StateConnected        State = "Connected"
	StateBaselineMeasured State = "BaselineMeasured"
	StateApplied          State = "Applied"
	StateAfterMeasured    State = "AfterMeasured"
	StateCleanedUp        State = "CleanedUp"
)

// Options tunes one validation run.
type Options struct {
	// Iterations is the measurement pass count (default 3).
	Iterations int
	// SettleDelay separates measurement passes (default 100ms).
	SettleDelay time.Duration
	// OriginalDefinition is the full CREATE statement of an object a
	// destructive action removes. Required for DROP INDEX actions; the
	// harness refuses to guess an inverse from the object name.
	OriginalDefinition string
}

// Result is the outcome of one validation run. Baseline is present whenever
// baseline measurement succeeded, even if apply failed afterwards.
type Result struct {
	Action      string       `json:"action"`
	Baseline    *Metrics     `json:"baseline,omitempty"`
	After       *Metrics     `json:"after,omitempty"`
	Improvement *Improvement `json:"improvement,omitempty"`
	Success     bool         `json:"success"`
	Error       string       `json:"error,omitempty"`
}

// undoEntry pairs an applied statement with its precomputed inverse.
type undoEntry struct {
	applied string
	inverse string
}

// Harness validates one (query, recommendation) pair per run on a dedicated
// connection.
type Harness struct {
	db        *sql.DB
	engine    string
	ddl       dialects.Dialect
	validator *security.Validator
	log       logger.Logger
	trace     tracer.Tracer
	state     State
}

// NewHarness creates a validation harness for the named engine. A nil
// logger or tracer falls back to the no-op implementation.
func NewHarness(db *sql.DB, engine string, log logger.Logger, trace tracer.Tracer) (*Harness, error) {
	ddl, err := dialects.Get(engine)
	if err != nil {
		return nil, fmt.Errorf("validation harness: %w", err)
	}
	if log == nil {
		log = &logger.NoopLogger{}
	}
	if trace == nil {
		trace = &tracer.NoopTracer{}
	}
	return &Harness{
		db:        db,
		engine:    engine,
		ddl:       ddl,
		validator: security.NewValidator(),
		log:       log,
		trace:     trace,
		state:     StateDisconnected,
	}, nil
}

// State returns the harness lifecycle position.
func (h *Harness) State() State { return h.state }

// Validate measures query before and after applying action, then restores
// the schema. Schema mutations are always unwound, on success and failure
// alike; only the returned Result reports which happened.
func (h *Harness) Validate(ctx context.Context, query, action string, opts Options) (*Result, error) {
	if opts.Iterations <= 0 {
		opts.Iterations = 3
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}

	result := &Result{Action: action}

	act, err := classifyAction(action)
	if err != nil {
		return nil, err
	}
	if act.kind == actionDropIndex && opts.OriginalDefinition == "" {
		return nil, fmt.Errorf("destructive action %q requires the original index definition for rollback", strings.TrimSpace(action))
	}
	if err := h.validator.ValidateStatement(query); err != nil {
		return nil, fmt.Errorf("query rejected: %w", err)
	}
	if err := h.validator.ValidateStatement(action); err != nil {
		return nil, fmt.Errorf("action rejected: %w", err)
	}

	ctx, span := h.trace.StartSpan(ctx, "advisor.validate")
	defer span.End()
	start := time.Now()

	conn, err := h.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	h.state = StateConnected

	var undo []undoEntry
	defer func() {
		h.cleanup(conn, undo)
		h.state = StateCleanedUp
		if cerr := conn.Close(); cerr != nil {
			h.log.Warn("failed to release validation connection", "error", cerr)
		}
		h.state = StateDisconnected

		tracer.AddValidationAttributes(span, &tracer.ValidationMetadata{
			Engine:    h.engine,
			Phase:     "cleanup",
			Statement: action,
			Duration:  time.Since(start),
			Error:     resultError(result),
		})
	}()

	baseline, err := measureN(ctx, conn, h.engine, h.ddl, query, opts.Iterations, opts.SettleDelay)
	if err != nil {
		result.Error = fmt.Sprintf("baseline measurement: %v", err)
		return result, nil
	}
	result.Baseline = baseline
	h.state = StateBaselineMeasured

	undo, err = h.apply(ctx, conn, act, opts.OriginalDefinition)
	if err != nil {
		result.Error = fmt.Sprintf("apply: %v", err)
		return result, nil
	}
	h.state = StateApplied

	after, err := measureN(ctx, conn, h.engine, h.ddl, query, opts.Iterations, opts.SettleDelay)
	if err != nil {
		result.Error = fmt.Sprintf("after measurement: %v", err)
		return result, nil
	}
	result.After = after
	h.state = StateAfterMeasured

	result.Improvement = computeImprovement(baseline, after)
	result.Success = true

	h.log.Info("validation run complete",
		"engine", h.engine,
		"assessment", string(result.Improvement.Assessment),
		"time_percent", result.Improvement.TimePercent,
		"plan_change", result.Improvement.PlanChange,
	)
	return result, nil
}

// apply executes the action's DDL and returns the undo list recorded at
// apply time. Each entry carries the inverse statement decided now, never
// reconstructed later.
func (h *Harness) apply(ctx context.Context, conn *sql.Conn, act *action, originalDefinition string) ([]undoEntry, error) {
	var undo []undoEntry

	switch act.kind {
	case actionCreateIndex:
		if err := security.ValidateIdentifiers(act.indexName); err != nil {
			return nil, err
		}
		// Drop a leftover index of the same name so apply is idempotent.
		dropSQL := h.ddl.DropIndexSQL(act.table, act.indexName)
		if _, err := conn.ExecContext(ctx, dropSQL); err == nil {
			h.log.Debug("dropped conflicting index before apply", "index", act.indexName)
		}

		if _, err := conn.ExecContext(ctx, act.statement); err != nil {
			return nil, err
		}
		undo = append(undo, undoEntry{applied: act.statement, inverse: dropSQL})

	case actionDropIndex:
		if _, err := conn.ExecContext(ctx, act.statement); err != nil {
			return nil, err
		}
		undo = append(undo, undoEntry{applied: act.statement, inverse: originalDefinition})

	default:
		// Statistics refreshes and other non-structural statements need
		// no inverse.
		if _, err := conn.ExecContext(ctx, act.statement); err != nil {
			return nil, err
		}
	}

	return undo, nil
}

// cleanup unwinds the undo list in reverse order. Failures are logged and
// the remaining entries still run.
func (h *Harness) cleanup(conn *sql.Conn, undo []undoEntry) {
	// The run's context may already be canceled; cleanup must still run.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for i := len(undo) - 1; i >= 0; i-- {
		entry := undo[i]
		if entry.inverse == "" {
			continue
		}
		if _, err := conn.ExecContext(ctx, entry.inverse); err != nil {
			h.log.Error("cleanup statement failed; schema may need manual repair",
				"applied", entry.applied,
				"inverse", entry.inverse,
				"error", err,
			)
			continue
		}
		h.log.Debug("cleanup statement succeeded", "inverse", entry.inverse)
	}
}

func resultError(r *Result) error {
	if r.Error == "" {
		return nil
	}
	return fmt.Errorf("%s", r.Error)
}

type actionKind int

const (
	actionOther actionKind = iota
	actionCreateIndex
	actionDropIndex
)

// action is a classified suggested_action statement.
type action struct {
	kind      actionKind
	statement string
	indexName string
	table     string
}

var (
	createIndexPattern = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:UNIQUE\s+)?INDEX\s+(?:IF\s+NOT\s+EXISTS\s+)?([^\s(]+)\s+ON\s+([^\s(]+)`)
	dropIndexPattern   = regexp.MustCompile(`(?is)^\s*DROP\s+INDEX\s+(?:IF\s+EXISTS\s+)?([^\s;]+)(?:\s+ON\s+([^\s;]+))?`)
)

// classifyAction parses the statement kind and the object names it touches.
func classifyAction(statement string) (*action, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(statement), ";"))
	if trimmed == "" {
		return nil, fmt.Errorf("empty suggested action")
	}

	if m := createIndexPattern.FindStringSubmatch(trimmed); m != nil {
		return &action{
			kind:      actionCreateIndex,
			statement: trimmed,
			indexName: unquoteIdentifier(m[1]),
			table:     unquoteIdentifier(m[2]),
		}, nil
	}
	if m := dropIndexPattern.FindStringSubmatch(trimmed); m != nil {
		return &action{
			kind:      actionDropIndex,
			statement: trimmed,
			indexName: unquoteIdentifier(m[1]),
			table:     unquoteIdentifier(m[2]),
		}, nil
	}
	return &action{kind: actionOther, statement: trimmed}, nil
}

// unquoteIdentifier strips dialect quoting and any schema qualifier.
func unquoteIdentifier(s string) string {
	s = strings.Trim(s, "\"`")
	s = strings.ReplaceAll(s, `""`, `"`)
	s = strings.ReplaceAll(s, "``", "`")
	if idx := strings.LastIndex(s, "."); idx != -1 {
		s = s[idx+1:]
	}
	return strings.Trim(s, "\"`")
}
