// Package hypo simulates candidate indexes with the HypoPG extension. A
// hypothetical index costs nothing to create and lets the planner report
// what the plan would look like if the index existed.
package hypo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Harshitk031/dbadvisor/internal/logger"
	"github.com/Harshitk031/dbadvisor/internal/plan"
	"github.com/Harshitk031/dbadvisor/internal/scoring"
	"github.com/Harshitk031/dbadvisor/internal/security"
)

// Simulator runs what-if index experiments on a PostgreSQL database with
// HypoPG installed. Other engines have no equivalent facility.
type Simulator struct {
	db  *sql.DB
	log logger.Logger
}

// NewSimulator creates a HypoPG simulator. Call Available before Simulate.
func NewSimulator(db *sql.DB, log logger.Logger) *Simulator {
	if log == nil {
		log = &logger.NoopLogger{}
	}
	return &Simulator{db: db, log: log}
}

// Available reports whether the HypoPG extension is installed.
func (s *Simulator) Available(ctx context.Context) (bool, error) {
	var installed bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'hypopg')`).Scan(&installed)
	if err != nil {
		return false, fmt.Errorf("probe hypopg: %w", err)
	}
	return installed, nil
}

// Simulate measures the planner cost of query before and after creating a
// hypothetical index on table(columns). The hypothetical index is always
// discarded before returning; it never touches the real schema.
func (s *Simulator) Simulate(ctx context.Context, query, table string, columns []string) (*scoring.HypotheticalDelta, error) {
	if err := security.ValidateIdentifiers(append([]string{table}, columns...)...); err != nil {
		return nil, fmt.Errorf("hypothetical index: %w", err)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	baseline, err := planCost(ctx, conn, query)
	if err != nil {
		return nil, fmt.Errorf("baseline plan: %w", err)
	}

	// Hypothetical indexes are session-scoped; reset drops them all.
	defer func() {
		if _, rerr := conn.ExecContext(ctx, "SELECT hypopg_reset()"); rerr != nil {
			s.log.Warn("hypopg reset failed", "error", rerr)
		}
	}()

	createSQL := buildCreateIndex(table, columns)
	if _, err := conn.ExecContext(ctx, "SELECT hypopg_create_index($1)", createSQL); err != nil {
		return nil, fmt.Errorf("create hypothetical index: %w", err)
	}

	hypothetical, err := planCost(ctx, conn, query)
	if err != nil {
		return nil, fmt.Errorf("hypothetical plan: %w", err)
	}

	delta := &scoring.HypotheticalDelta{BaselineCost: baseline, HypotheticalCost: hypothetical}
	s.log.Debug("hypothetical index simulated",
		"table", table,
		"baseline_cost", baseline,
		"hypothetical_cost", hypothetical,
		"reduction_percent", delta.ReductionPercent(),
	)
	return delta, nil
}

// planCost explains query and returns the root plan cost.
func planCost(ctx context.Context, conn *sql.Conn, query string) (float64, error) {
	var raw string
	if err := conn.QueryRowContext(ctx, "EXPLAIN (FORMAT JSON) "+query).Scan(&raw); err != nil {
		return 0, err
	}
	node, err := plan.Normalize("postgres", []byte(raw))
	if err != nil {
		return 0, err
	}
	return node.TotalCost, nil
}

// buildCreateIndex builds the CREATE INDEX text handed to hypopg. The
// identifiers are validated by the caller; hypopg parses but never executes
// the statement.
func buildCreateIndex(table string, columns []string) string {
	cols := ""
	for i, c := range columns {
		if i > 0 {
			cols += ", "
		}
		cols += c
	}
	return fmt.Sprintf("CREATE INDEX ON %s (%s)", table, cols)
}
