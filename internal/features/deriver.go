// Package features derives secondary columns from a cleaned sales table:
// temporal parts, monetary totals, product tags, per-category and
// per-customer aggregates. Every derivation is skipped when its inputs are
// absent, so Derive never fails.
package features

import (
	"time"

	"salesprep/internal/table"
)

// Derived column names
const (
	ColYear        = "year"
	ColMonth       = "month"
	ColDay         = "day"
	ColWeekdayName = "weekday_name"
	ColIsWeekend   = "is_weekend"
	ColMonthSin    = "month_sin"
	ColMonthCos    = "month_cos"
	ColSeason      = "season"
	ColTotalAmount = "total_amount"
	ColUnitPrice   = "unit_price"
	ColLogTotal    = "log_total_amount"
	ColCategory    = "category"
	ColNameLength  = "product_name_length"
	ColHasDigit    = "product_has_digit"
	ColBrand       = "product_brand"
	ColCategoryAvg = "category_avg_price"
	ColRecency     = "recency"
	ColFrequency   = "frequency"
	ColMonetary    = "monetary"
	missingSuffix  = "_missing"
)

// Deriver adds feature columns using the column names bound in Schema.
type Deriver struct {
	Schema table.Schema
}

// New creates a deriver
func New(schema table.Schema) *Deriver {
	return &Deriver{Schema: schema}
}

// Derive adds features with the default schema
func Derive(t *table.Table) *table.Table {
	return New(table.DefaultSchema()).Derive(t)
}

// Derive returns a new table with the derivable feature columns appended.
// A nil or zero-row table is returned unchanged. The input is not modified.
func (d *Deriver) Derive(t *table.Table) *table.Table {
	if t.NumRows() == 0 {
		return t
	}
	b := &builder{t: t}

	d.missingFlags(b)
	d.temporal(b)
	d.monetary(b)
	d.productText(b)
	d.categoryAverage(b)
	d.rfm(b)

	return b.t
}

// Added lists the columns of after that are not in before, in order
func Added(before, after *table.Table) []string {
	var out []string
	if after == nil {
		return out
	}
	for _, name := range after.Names() {
		if !before.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// builder accumulates derived columns. Each WithColumn call shares the
// existing columns, so the caller's table stays untouched.
type builder struct {
	t *table.Table
}

func (b *builder) add(col *table.Column) {
	t, err := b.t.WithColumn(col)
	if err != nil {
		// derived columns always have the table's length
		panic(err)
	}
	b.t = t
}

func (b *builder) rows() int {
	return b.t.NumRows()
}

// dateAt reads cell i of a date column of either kind
func dateAt(col *table.Column, i int) (time.Time, bool) {
	if col.IsMissing(i) {
		return time.Time{}, false
	}
	switch col.Kind {
	case table.KindTime:
		return col.Time(i), true
	case table.KindText:
		return table.ParseTime(col.Text(i))
	case table.KindNumber:
		return table.ParseTime(col.String(i))
	default:
		return time.Time{}, false
	}
}

func (d *Deriver) missingFlags(b *builder) {
	for _, role := range []table.Role{table.RolePrice, table.RoleUnits, table.RoleProduct, table.RoleDate} {
		name, ok := d.Schema.Resolve(b.t, role)
		if !ok {
			continue
		}
		col, _ := b.t.Column(name)
		flags := make([]bool, col.Len())
		for i := range flags {
			flags[i] = col.IsMissing(i)
		}
		b.add(table.NewBool(name+missingSuffix, flags, nil))
	}
}
