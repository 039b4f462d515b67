// Package cleaning turns a loaded sales table into one with valid dates, no
// duplicate rows, no missing numeric or text cells and no negative prices or
// units. The caller's table is never modified.
package cleaning

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"salesprep/internal/progress"
	"salesprep/internal/table"
)

// Sentinel replaces missing text cells
const Sentinel = "Desconocido"

const stage = "clean"

// Summary counts the corrections made by one Clean call
type Summary struct {
	RowsIn  int `json:"rows_in"`
	RowsOut int `json:"rows_out"`

	InvalidDatesDropped int `json:"invalid_dates_dropped"`
	DuplicatesRemoved   int `json:"duplicates_removed"`

	// ImputedNumeric and ImputedText count filled cells per column
	ImputedNumeric map[string]int     `json:"imputed_numeric,omitempty"`
	ImputedText    map[string]int     `json:"imputed_text,omitempty"`
	FillValues     map[string]float64 `json:"fill_values,omitempty"`

	NegativeUnitsClipped   int     `json:"negative_units_clipped"`
	NegativePricesRepaired int     `json:"negative_prices_repaired"`
	PriceReplacement       float64 `json:"price_replacement,omitempty"`
}

// ValuesImputed returns the total number of filled cells
func (s Summary) ValuesImputed() int {
	n := 0
	for _, c := range s.ImputedNumeric {
		n += c
	}
	for _, c := range s.ImputedText {
		n += c
	}
	return n
}

// NegativesRepaired returns the total number of repaired negative cells
func (s Summary) NegativesRepaired() int {
	return s.NegativeUnitsClipped + s.NegativePricesRepaired
}

// Cleaner applies the cleaning steps. Each step is skipped when the column
// role it needs is unbound or absent.
type Cleaner struct {
	Schema table.Schema
	Sink   progress.Sink
}

// New creates a cleaner
func New(schema table.Schema, sink progress.Sink) *Cleaner {
	return &Cleaner{Schema: schema, Sink: sink}
}

// Clean cleans t with the default schema and no sink
func Clean(t *table.Table) (*table.Table, Summary) {
	return New(table.DefaultSchema(), nil).Clean(t)
}

// Clean returns a cleaned copy of t and what was changed
func (c *Cleaner) Clean(t *table.Table) (*table.Table, Summary) {
	sum := Summary{
		RowsIn:         t.NumRows(),
		ImputedNumeric: make(map[string]int),
		ImputedText:    make(map[string]int),
		FillValues:     make(map[string]float64),
	}
	if t == nil {
		return nil, sum
	}
	out := t.Clone()

	out = c.normalizeDates(out, &sum)
	out = c.dropDuplicates(out, &sum)
	c.imputeNumeric(out, &sum)
	c.imputeText(out, &sum)
	c.repairUnits(out, &sum)
	c.repairPrices(out, &sum)

	sum.RowsOut = out.NumRows()
	return out, sum
}

func (c *Cleaner) emit(level progress.Level, column string, count int, format string, args ...any) {
	progress.OrDiscard(c.Sink).Emit(progress.Event{
		Stage:   stage,
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		Column:  column,
		Count:   count,
	})
}

func (c *Cleaner) normalizeDates(t *table.Table, sum *Summary) *table.Table {
	name, ok := c.Schema.Resolve(t, table.RoleDate)
	if !ok {
		return t
	}
	col, _ := t.Column(name)
	dates := toTimeColumn(col)
	t, err := t.WithColumn(dates)
	if err != nil {
		// same length by construction
		panic(err)
	}

	keep := presentRows(dates)
	dropped := t.NumRows() - len(keep)
	if dropped == 0 {
		return t
	}
	sum.InvalidDatesDropped = dropped
	c.emit(progress.LevelWarning, name, dropped, "dropped %d rows with invalid dates in '%s'", dropped, name)
	return t.Take(keep)
}

func (c *Cleaner) dropDuplicates(t *table.Table, sum *Summary) *table.Table {
	rows := t.NumRows()
	seen := make(map[string]struct{}, rows)
	keep := make([]int, 0, rows)
	for i := 0; i < rows; i++ {
		key := t.RowKey(i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	removed := rows - len(keep)
	if removed == 0 {
		return t
	}
	sum.DuplicatesRemoved = removed
	c.emit(progress.LevelInfo, "", removed, "removed %d duplicate rows", removed)
	return t.Take(keep)
}

func (c *Cleaner) imputeNumeric(t *table.Table, sum *Summary) {
	for _, col := range t.Columns() {
		if col.Kind != table.KindNumber {
			continue
		}
		missing := col.MissingCount()
		if missing == 0 {
			continue
		}

		fill := 0.0
		if present := col.Numbers(); len(present) > 0 {
			fill = stat.Mean(present, nil)
		} else {
			c.emit(progress.LevelWarning, col.Name, missing, "column '%s' has no values; filled with 0", col.Name)
		}
		for i := 0; i < col.Len(); i++ {
			if col.IsMissing(i) {
				col.SetNumber(i, fill)
			}
		}
		sum.ImputedNumeric[col.Name] = missing
		sum.FillValues[col.Name] = fill
		c.emit(progress.LevelInfo, col.Name, missing, "filled %d missing values in '%s' with mean %.4g", missing, col.Name, fill)
	}
}

func (c *Cleaner) imputeText(t *table.Table, sum *Summary) {
	for _, col := range t.Columns() {
		if col.Kind != table.KindText {
			continue
		}
		missing := col.MissingCount()
		if missing == 0 {
			continue
		}
		for i := 0; i < col.Len(); i++ {
			if col.IsMissing(i) {
				col.SetText(i, Sentinel)
			}
		}
		sum.ImputedText[col.Name] = missing
		c.emit(progress.LevelInfo, col.Name, missing, "filled %d missing values in '%s' with %q", missing, col.Name, Sentinel)
	}
}

func (c *Cleaner) repairUnits(t *table.Table, sum *Summary) {
	col, ok := c.Schema.ResolveColumn(t, table.RoleUnits, table.KindNumber)
	if !ok {
		return
	}
	n := 0
	for i := 0; i < col.Len(); i++ {
		if col.Number(i) < 0 {
			col.SetNumber(i, 0)
			n++
		}
	}
	if n > 0 {
		sum.NegativeUnitsClipped = n
		c.emit(progress.LevelWarning, col.Name, n, "clipped %d negative values in '%s' to 0", n, col.Name)
	}
}

// repairPrices replaces negative prices with the mean of the non-negative
// ones. The mean is read from the column before any cell is written.
func (c *Cleaner) repairPrices(t *table.Table, sum *Summary) {
	col, ok := c.Schema.ResolveColumn(t, table.RolePrice, table.KindNumber)
	if !ok {
		return
	}
	var nonNegative []float64
	var negative []int
	for i := 0; i < col.Len(); i++ {
		if v := col.Number(i); v < 0 {
			negative = append(negative, i)
		} else {
			nonNegative = append(nonNegative, v)
		}
	}
	if len(negative) == 0 {
		return
	}

	replacement := 0.0
	if len(nonNegative) > 0 {
		replacement = stat.Mean(nonNegative, nil)
	}
	for _, i := range negative {
		col.SetNumber(i, replacement)
	}
	sum.NegativePricesRepaired = len(negative)
	sum.PriceReplacement = replacement
	c.emit(progress.LevelWarning, col.Name, len(negative),
		"replaced %d negative values in '%s' with %.4g", len(negative), col.Name, replacement)
}
