package exporter

import (
	"fmt"
	"sort"
)

// formatFloat formats a float64 value for the report with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatPct renders a percentage with one decimal
func formatPct(f float64) string {
	return fmt.Sprintf("%.1f%%", f)
}

// sortedKeys returns the keys of m in order so reports are stable
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
