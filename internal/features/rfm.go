package features

import (
	"math"
	"time"

	"salesprep/internal/table"
)

var nanValue = math.NaN()

// customerStats accumulates one customer's purchases
type customerStats struct {
	latest    time.Time
	frequency int
	monetary  float64
}

// rfm adds recency, frequency and monetary per customer. Values are looked
// up by customer key for every row, so the row count never changes.
func (d *Deriver) rfm(b *builder) {
	customerName, ok := d.Schema.Resolve(b.t, table.RoleCustomer)
	if !ok {
		return
	}
	dateName, ok := d.Schema.Resolve(b.t, table.RoleDate)
	if !ok {
		return
	}
	customer, _ := b.t.Column(customerName)
	dates, _ := b.t.Column(dateName)
	total, hasTotal := b.t.Column(d.totalName())
	if hasTotal && total.Kind != table.KindNumber {
		hasTotal = false
	}

	n := b.rows()
	stats := make(map[string]*customerStats)
	// reference date comes from every row, customer or not
	var maxDate time.Time
	for i := 0; i < n; i++ {
		if ts, ok := dateAt(dates, i); ok && ts.After(maxDate) {
			maxDate = ts
		}
		if customer.IsMissing(i) {
			continue
		}
		key := customer.String(i)
		s, ok := stats[key]
		if !ok {
			s = &customerStats{}
			stats[key] = s
		}
		s.frequency++
		if hasTotal && !total.IsMissing(i) {
			s.monetary += total.Number(i)
		}
		if ts, ok := dateAt(dates, i); ok && ts.After(s.latest) {
			s.latest = ts
		}
	}
	if len(stats) == 0 {
		return
	}
	reference := maxDate.AddDate(0, 0, 1)

	recency := make([]float64, n)
	frequency := make([]float64, n)
	monetary := make([]float64, n)
	for i := 0; i < n; i++ {
		recency[i], frequency[i], monetary[i] = nanValue, nanValue, nanValue
		if customer.IsMissing(i) {
			continue
		}
		s := stats[customer.String(i)]
		frequency[i] = float64(s.frequency)
		if !s.latest.IsZero() {
			recency[i] = math.Floor(reference.Sub(s.latest).Hours() / 24)
		}
		if hasTotal {
			monetary[i] = s.monetary
		}
	}

	b.add(table.NewNumber(ColRecency, recency))
	b.add(table.NewNumber(ColFrequency, frequency))
	if hasTotal {
		b.add(table.NewNumber(ColMonetary, monetary))
	}
}
