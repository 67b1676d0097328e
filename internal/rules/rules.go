// Package rules evaluates normalized query plans against a registry of
// advisory rules, producing index and statistics recommendations.
package rules

import "fmt"

// Severity ranks how urgent a recommendation is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of s. Unknown severities rank lowest.
func (s Severity) Rank() int { return severityRank[s] }

// Type identifies the kind of recommendation.
type Type string

const (
	TypeMissingIndex     Type = "MISSING_INDEX"
	TypeUnusedIndex      Type = "UNUSED_INDEX_CANDIDATE"
	TypeInefficientSort  Type = "INEFFICIENT_SORT"
	TypeNestedLoopJoin   Type = "NESTED_LOOP_JOIN"
	TypeMissingStatistic Type = "MISSING_STATISTICS"
)

// Recommendation is one advisory finding. Confidence and Impact start at
// their zero values and are filled in by the scorer.
type Recommendation struct {
	RuleID          string         `json:"rule_id"`
	Type            Type           `json:"type"`
	Severity        Severity       `json:"severity"`
	Table           string         `json:"table,omitempty"`
	Columns         []string       `json:"columns,omitempty"`
	IndexName       string         `json:"index_name,omitempty"`
	Rationale       string         `json:"rationale"`
	SuggestedAction string         `json:"suggested_action"`
	Caveats         []string       `json:"caveats"`
	Evidence        map[string]any `json:"evidence"`
	Confidence      float64        `json:"confidence"`
	Impact          string         `json:"impact,omitempty"`
}

// UnusedIndex is one evidence row from the index-usage inspector.
type UnusedIndex struct {
	Engine    string `json:"engine"`
	Database  string `json:"database,omitempty"`
	Table     string `json:"table"`
	IndexName string `json:"index_name"`
	TimesUsed int64  `json:"times_used"`
	IndexSize string `json:"index_size,omitempty"`
}

// RuleError reports a single rule that failed during evaluation. The batch
// continues; the error surfaces as a warning.
type RuleError struct {
	RuleID string
	Err    error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s failed: %v", e.RuleID, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }
