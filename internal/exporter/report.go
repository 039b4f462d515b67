package exporter

import (
	"fmt"
	"strings"
	"time"

	"salesprep/internal/cleaning"
	"salesprep/internal/validation"
)

// ReportData is everything the plain-text report describes
type ReportData struct {
	RunID       string
	GeneratedAt time.Time
	Source      string
	OutputPath  string

	Rows    int
	Columns int

	Before   *validation.QualityReport
	After    *validation.QualityReport
	Cleaning *cleaning.Summary
	Derived  []string
}

// RenderReport renders the quality report as plain text
func RenderReport(d *ReportData) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("SALES DATA QUALITY REPORT")
	line("=========================")
	line("Generated: %s", d.GeneratedAt.Format("2006-01-02 15:04:05"))
	if d.RunID != "" {
		line("Run ID:    %s", d.RunID)
	}
	if d.Source != "" {
		line("Source:    %s", d.Source)
	}
	if d.OutputPath != "" {
		line("Output:    %s", d.OutputPath)
	}
	line("Final rows: %d, columns: %d", d.Rows, d.Columns)

	writeQuality(&b, "Quality before cleaning", d.Before)
	writeCleaning(&b, d.Cleaning)
	writeQuality(&b, "Quality after cleaning", d.After)

	if len(d.Derived) > 0 {
		line("")
		line("Derived columns (%d)", len(d.Derived))
		line("--------------------")
		for _, name := range d.Derived {
			line("  %s", name)
		}
	}
	return b.String()
}

func writeQuality(b *strings.Builder, title string, r *validation.QualityReport) {
	if r == nil {
		return
	}
	fmt.Fprintf(b, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
	fmt.Fprintf(b, "  Rows: %d, columns: %d\n", r.TotalRows, r.TotalColumns)
	fmt.Fprintf(b, "  Duplicate rows: %d\n", r.DuplicateRows)
	if r.InvalidDates > 0 {
		fmt.Fprintf(b, "  Invalid dates: %d (%s)\n", r.InvalidDates, formatPct(r.InvalidDatePct))
	}

	var nulls []string
	for _, name := range sortedKeys(r.NullCounts) {
		if n := r.NullCounts[name]; n > 0 {
			nulls = append(nulls, fmt.Sprintf("%s=%d", name, n))
		}
	}
	if len(nulls) > 0 {
		fmt.Fprintf(b, "  Null values: %s\n", strings.Join(nulls, ", "))
	} else {
		fmt.Fprintf(b, "  Null values: none\n")
	}

	negatives := r.NegativeCounts()
	for _, name := range sortedKeys(negatives) {
		fmt.Fprintf(b, "  Negative values in %s: %d\n", name, negatives[name])
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(b, "  WARNING: %s\n", w)
	}
	verdict := "yes"
	if !r.IsAcceptable {
		verdict = "NO"
	}
	fmt.Fprintf(b, "  Acceptable: %s\n", verdict)
}

func writeCleaning(b *strings.Builder, s *cleaning.Summary) {
	if s == nil {
		return
	}
	fmt.Fprintf(b, "\nCleaning\n--------\n")
	fmt.Fprintf(b, "  Rows in: %d, rows out: %d\n", s.RowsIn, s.RowsOut)
	fmt.Fprintf(b, "  Invalid dates dropped: %d\n", s.InvalidDatesDropped)
	fmt.Fprintf(b, "  Duplicates removed: %d\n", s.DuplicatesRemoved)
	for _, name := range sortedKeys(s.ImputedNumeric) {
		fmt.Fprintf(b, "  Imputed %d values in %s with %s\n",
			s.ImputedNumeric[name], name, formatFloat(s.FillValues[name]))
	}
	for _, name := range sortedKeys(s.ImputedText) {
		fmt.Fprintf(b, "  Imputed %d values in %s with %q\n", s.ImputedText[name], name, cleaning.Sentinel)
	}
	if s.NegativeUnitsClipped > 0 {
		fmt.Fprintf(b, "  Negative units clipped to 0: %d\n", s.NegativeUnitsClipped)
	}
	if s.NegativePricesRepaired > 0 {
		fmt.Fprintf(b, "  Negative prices replaced with %s: %d\n",
			formatFloat(s.PriceReplacement), s.NegativePricesRepaired)
	}
}
