package validation

import (
	"fmt"
	"strings"

	apperrors "salesprep/internal/errors"
	"salesprep/internal/progress"
	"salesprep/internal/table"
)

const qualityStage = "quality"

// Issue keys used in QualityReport.Issues
const (
	IssueDuplicates      = "duplicates"
	IssueInvalidDates    = "invalid_dates"
	IssueInvalidDatesPct = "invalid_dates_pct"
	issueNullPctPrefix   = "null_pct."
	issueNegativePrefix  = "negative_values."
)

// Thresholds are the percentages above which data is unacceptable
type Thresholds struct {
	NullPct        float64
	InvalidDatePct float64
}

// DefaultThresholds rejects more than half missing or invalid
var DefaultThresholds = Thresholds{NullPct: 50, InvalidDatePct: 50}

// QualityReport summarizes completeness and validity of a table. It is a
// value: building one never touches the table it describes.
type QualityReport struct {
	TotalRows    int `json:"total_rows"`
	TotalColumns int `json:"total_columns"`

	NullCounts          map[string]int     `json:"null_counts"`
	CriticalNullColumns []string           `json:"critical_null_columns,omitempty"`
	Issues              map[string]float64 `json:"issues"`

	DuplicateRows  int     `json:"duplicate_rows"`
	InvalidDates   int     `json:"invalid_dates"`
	InvalidDatePct float64 `json:"invalid_date_pct"`

	Warnings     []string `json:"warnings,omitempty"`
	IsAcceptable bool     `json:"is_acceptable"`
}

// NegativeCounts returns the negative-value findings keyed by column
func (r *QualityReport) NegativeCounts() map[string]int {
	out := make(map[string]int)
	for k, v := range r.Issues {
		if col, ok := strings.CutPrefix(k, issueNegativePrefix); ok {
			out[col] = int(v)
		}
	}
	return out
}

// Err returns a DataQualityError carrying the metrics that made the report
// unacceptable, or nil when it is acceptable.
func (r *QualityReport) Err() error {
	if r == nil || r.IsAcceptable {
		return nil
	}
	offending := make(map[string]float64)
	for k, v := range r.Issues {
		if k == IssueInvalidDatesPct || strings.HasPrefix(k, issueNullPctPrefix) {
			offending[k] = v
		}
	}
	return apperrors.NewDataQualityError("data quality is below the acceptance threshold", offending)
}

// Assessor computes quality reports and post-clean checks for one schema.
type Assessor struct {
	Schema     table.Schema
	Sink       progress.Sink
	Thresholds Thresholds
}

// NewAssessor creates an assessor with the default thresholds
func NewAssessor(schema table.Schema, sink progress.Sink) *Assessor {
	return &Assessor{Schema: schema, Sink: sink, Thresholds: DefaultThresholds}
}

// AssessQuality assesses t with the default schema and thresholds
func AssessQuality(t *table.Table) (*QualityReport, error) {
	return NewAssessor(table.DefaultSchema(), nil).Assess(t)
}

// Assess builds the quality report for t. It fails only for a nil or
// zero-row table; every finding is reported, not raised.
func (a *Assessor) Assess(t *table.Table) (*QualityReport, error) {
	if t.NumRows() == 0 {
		return nil, apperrors.NewEmptyDataError("cannot assess the quality of an empty table")
	}
	sink := progress.OrDiscard(a.Sink)
	th := a.thresholds()
	rows := t.NumRows()

	report := &QualityReport{
		TotalRows:    rows,
		TotalColumns: t.NumCols(),
		NullCounts:   make(map[string]int, t.NumCols()),
		Issues:       make(map[string]float64),
		IsAcceptable: true,
	}
	warn := func(column string, count int, msg string) {
		report.Warnings = append(report.Warnings, msg)
		sink.Emit(progress.Event{Stage: qualityStage, Level: progress.LevelWarning, Message: msg, Column: column, Count: count})
	}

	// duplicates
	seen := make(map[string]struct{}, rows)
	for i := 0; i < rows; i++ {
		key := t.RowKey(i)
		if _, dup := seen[key]; dup {
			report.DuplicateRows++
			continue
		}
		seen[key] = struct{}{}
	}
	if report.DuplicateRows > 0 {
		report.Issues[IssueDuplicates] = float64(report.DuplicateRows)
		warn("", report.DuplicateRows, fmt.Sprintf("found %d duplicate rows", report.DuplicateRows))
	}

	// nulls
	for _, col := range t.Columns() {
		n := col.MissingCount()
		report.NullCounts[col.Name] = n
		pct := percent(n, rows)
		if n > 0 && pct > th.NullPct {
			report.CriticalNullColumns = append(report.CriticalNullColumns, col.Name)
			report.Issues[issueNullPctPrefix+col.Name] = pct
			report.IsAcceptable = false
		}
	}
	if len(report.CriticalNullColumns) > 0 {
		warn("", len(report.CriticalNullColumns), fmt.Sprintf("columns with more than %.0f%% null values: %v",
			th.NullPct, report.CriticalNullColumns))
	}

	// dates
	if name, ok := a.Schema.Resolve(t, table.RoleDate); ok {
		col, _ := t.Column(name)
		for i := 0; i < rows; i++ {
			if !table.ValidDate(col, i) {
				report.InvalidDates++
			}
		}
		if report.InvalidDates > 0 {
			report.InvalidDatePct = percent(report.InvalidDates, rows)
			report.Issues[IssueInvalidDates] = float64(report.InvalidDates)
			report.Issues[IssueInvalidDatesPct] = report.InvalidDatePct
			if report.InvalidDatePct > th.InvalidDatePct {
				report.IsAcceptable = false
				warn(name, report.InvalidDates, fmt.Sprintf("%.1f%% of dates in '%s' are invalid",
					report.InvalidDatePct, name))
			}
		}
	}

	// negatives
	for _, role := range []table.Role{table.RolePrice, table.RoleUnits, table.RoleTotal} {
		col, ok := a.Schema.ResolveColumn(t, role, table.KindNumber)
		if !ok {
			continue
		}
		n := 0
		for i := 0; i < rows; i++ {
			if !col.IsMissing(i) && col.Number(i) < 0 {
				n++
			}
		}
		if n > 0 {
			report.Issues[issueNegativePrefix+col.Name] = float64(n)
			warn(col.Name, n, fmt.Sprintf("found %d negative values in '%s'", n, col.Name))
		}
	}

	return report, nil
}

func (a *Assessor) thresholds() Thresholds {
	th := a.Thresholds
	if th.NullPct == 0 && th.InvalidDatePct == 0 {
		return DefaultThresholds
	}
	return th
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
