// Package security validates schema object names and statements before the
// advisor interpolates them into DDL or executes them against a live
// connection.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// maxIdentifierLength matches the PostgreSQL limit, the strictest of the
// supported engines.
const maxIdentifierLength = 63

// identifierPattern accepts plain unquoted SQL identifiers.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// ValidateIdentifier checks that name is safe to interpolate into DDL.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier is empty")
	}
	if len(name) > maxIdentifierLength {
		return fmt.Errorf("identifier %q exceeds %d characters", name, maxIdentifierLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("identifier %q contains invalid characters", name)
	}
	return nil
}

// ValidateIdentifiers checks every name, reporting the first failure.
func ValidateIdentifiers(names ...string) error {
	for _, name := range names {
		if err := ValidateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}

// Validator screens statements for stacked-query and command-execution
// constructs before the harness runs them on a dedicated connection.
type Validator struct {
	patterns []*regexp.Regexp
}

// dangerousPatterns are constructs a single advisor statement never needs.
var dangerousPatterns = []string{
	`;\s*DROP\s+`,
	`;\s*DELETE\s+`,
	`;\s*TRUNCATE\s+`,
	`;\s*ALTER\s+`,
	`;\s*UPDATE\s+`,
	`;\s*INSERT\s+`,
	`;\s*GRANT\s+`,
	`\bXP_CMDSHELL\b`,
	`\bEXEC\s*\(`,
	`\bEXECUTE\s*\(`,
	`\bPG_SLEEP\s*\(`,
	`\bBENCHMARK\s*\(`,
	`\bWAITFOR\s+DELAY\b`,
	`\bINTO\s+OUTFILE\b`,
}

// NewValidator creates a statement validator with the default pattern set.
func NewValidator() *Validator {
	v := &Validator{}
	for _, p := range dangerousPatterns {
		v.patterns = append(v.patterns, regexp.MustCompile(p))
	}
	return v
}

// ValidateStatement checks a statement for dangerous constructs.
func (v *Validator) ValidateStatement(stmt string) error {
	normalized := strings.ToUpper(stmt)
	for _, pattern := range v.patterns {
		if pattern.MatchString(normalized) {
			return fmt.Errorf("statement contains unsafe construct")
		}
	}
	return nil
}
