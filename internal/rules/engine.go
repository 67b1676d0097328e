package rules

import (
	"fmt"

	"github.com/Harshitk031/dbadvisor/internal/dialects"
	"github.com/Harshitk031/dbadvisor/internal/features"
	"github.com/Harshitk031/dbadvisor/internal/logger"
	"github.com/Harshitk031/dbadvisor/internal/plan"
)

// Input is the context handed to each rule for one plan node.
type Input struct {
	Node     *plan.Node
	Features *features.QueryFeatures
	DDL      dialects.Dialect
}

// Rule is one independent advisory check, applied to every node of the plan
// tree. A rule that does not fire returns nil.
type Rule struct {
	ID    string
	Check func(in Input) []*Recommendation
}

// Engine evaluates the registered rules against a plan.
type Engine struct {
	rules []Rule
	ddl   dialects.Dialect
	log   logger.Logger
}

// NewEngine creates an evaluator for the named engine's dialect with the
// built-in rule set.
func NewEngine(engine string, log logger.Logger) (*Engine, error) {
	ddl, err := dialects.Get(engine)
	if err != nil {
		return nil, fmt.Errorf("rules engine: %w", err)
	}
	if log == nil {
		log = &logger.NoopLogger{}
	}
	return &Engine{rules: builtinRules(), ddl: ddl, log: log}, nil
}

// Register appends a custom rule to the engine.
func (e *Engine) Register(r Rule) {
	e.rules = append(e.rules, r)
}

// Evaluate walks the plan tree and applies every rule to every node, then
// emits one unused-index candidate per evidence row. A failing rule is
// isolated: its error becomes a warning and the batch continues.
func (e *Engine) Evaluate(root *plan.Node, f *features.QueryFeatures, unused []UnusedIndex) ([]*Recommendation, []string) {
	var recs []*Recommendation
	var warnings []string

	plan.Walk(root, func(n *plan.Node) {
		in := Input{Node: n, Features: f, DDL: e.ddl}
		for _, rule := range e.rules {
			out, err := e.applyRule(rule, in)
			if err != nil {
				e.log.Warn("rule evaluation failed", "rule_id", rule.ID, "error", err)
				warnings = append(warnings, err.Error())
				continue
			}
			recs = append(recs, out...)
		}
	})

	for i := range unused {
		recs = append(recs, unusedIndexCandidate(&unused[i], e.ddl))
	}

	return recs, warnings
}

// applyRule runs one rule on one node, converting a panic into a RuleError.
func (e *Engine) applyRule(rule Rule, in Input) (out []*Recommendation, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &RuleError{RuleID: rule.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return rule.Check(in), nil
}
