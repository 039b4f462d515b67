package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"salesprep/internal/table"
)

// totalName is where price*units is written: the column bound to the total
// role, or total_amount when that role is unbound.
func (d *Deriver) totalName() string {
	if name := d.Schema.Name(table.RoleTotal); name != "" {
		return name
	}
	return ColTotalAmount
}

func (d *Deriver) monetary(b *builder) {
	price, hasPrice := d.Schema.ResolveColumn(b.t, table.RolePrice, table.KindNumber)
	units, hasUnits := d.Schema.ResolveColumn(b.t, table.RoleUnits, table.KindNumber)
	n := b.rows()

	if hasPrice && hasUnits {
		total := make([]float64, n)
		unitPrice := make([]float64, n)
		for i := 0; i < n; i++ {
			p, u := price.Number(i), units.Number(i)
			total[i] = p * u
			unitPrice[i] = math.NaN()
			if u > 0 {
				unitPrice[i] = p / u
			}
		}
		b.add(table.NewNumber(d.totalName(), total))
		b.add(table.NewNumber(ColUnitPrice, unitPrice))
	}

	total, ok := b.t.Column(d.totalName())
	if !ok || total.Kind != table.KindNumber {
		return
	}
	logTotal := make([]float64, n)
	for i := 0; i < n; i++ {
		logTotal[i] = math.Log1p(math.Max(total.Number(i), 0))
	}
	b.add(table.NewNumber(ColLogTotal, logTotal))
}

// categoryAverage broadcasts the mean price of each category to its rows
func (d *Deriver) categoryAverage(b *builder) {
	price, ok := d.Schema.ResolveColumn(b.t, table.RolePrice, table.KindNumber)
	if !ok {
		return
	}
	category, ok := b.t.Column(ColCategory)
	if !ok {
		return
	}

	groups := make(map[string][]float64)
	for i := 0; i < b.rows(); i++ {
		if category.IsMissing(i) || price.IsMissing(i) {
			continue
		}
		groups[category.Text(i)] = append(groups[category.Text(i)], price.Number(i))
	}
	means := make(map[string]float64, len(groups))
	for k, v := range groups {
		means[k] = stat.Mean(v, nil)
	}

	avg := make([]float64, b.rows())
	for i := range avg {
		avg[i] = math.NaN()
		if category.IsMissing(i) {
			continue
		}
		if m, ok := means[category.Text(i)]; ok {
			avg[i] = m
		}
	}
	b.add(table.NewNumber(ColCategoryAvg, avg))
}
