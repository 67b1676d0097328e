package dialects

import "strings"

// indexName builds the conventional idx_<table>_<columns> name shared by all
// dialects. Dots from qualified column references are flattened.
func indexName(table string, columns []string) string {
	parts := append([]string{"idx", table}, columns...)
	name := strings.Join(parts, "_")
	return strings.ReplaceAll(name, ".", "_")
}

// quoteJoin quotes each column with the dialect and joins with commas.
func quoteJoin(d Dialect, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}
