// Package profile computes describe-style summaries of a table: count, mean,
// spread and quartiles for numeric columns, cardinality and the most frequent
// values for everything else.
package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"salesprep/internal/table"
)

// topN is the number of most frequent values kept per categorical column
const topN = 3

// NumericSummary describes a numeric column. Statistics are NaN when the
// column has no present values.
type NumericSummary struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std"`
	Min     float64 `json:"min"`
	Q25     float64 `json:"q25"`
	Median  float64 `json:"median"`
	Q75     float64 `json:"q75"`
	Max     float64 `json:"max"`
}

// MarshalJSON writes NaN statistics as null
func (s NumericSummary) MarshalJSON() ([]byte, error) {
	opt := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		Name    string   `json:"name"`
		Count   int      `json:"count"`
		Missing int      `json:"missing"`
		Mean    *float64 `json:"mean"`
		StdDev  *float64 `json:"std"`
		Min     *float64 `json:"min"`
		Q25     *float64 `json:"q25"`
		Median  *float64 `json:"median"`
		Q75     *float64 `json:"q75"`
		Max     *float64 `json:"max"`
	}{
		s.Name, s.Count, s.Missing,
		opt(s.Mean), opt(s.StdDev), opt(s.Min), opt(s.Q25), opt(s.Median), opt(s.Q75), opt(s.Max),
	})
}

// ValueCount is a value and how often it occurs
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalSummary describes a text, boolean or temporal column
type CategoricalSummary struct {
	Name    string       `json:"name"`
	Kind    string       `json:"kind"`
	Count   int          `json:"count"`
	Missing int          `json:"missing"`
	Unique  int          `json:"unique"`
	Top     []ValueCount `json:"top"`
	First   string       `json:"first,omitempty"`
	Last    string       `json:"last,omitempty"`
}

// Profile is the summary of a whole table
type Profile struct {
	Rows        int                  `json:"rows"`
	Columns     int                  `json:"columns"`
	Numeric     []NumericSummary     `json:"numeric"`
	Categorical []CategoricalSummary `json:"categorical"`
}

// Describe summarizes every column of t in column order.
func Describe(t *table.Table) *Profile {
	p := &Profile{}
	if t == nil {
		return p
	}
	p.Rows = t.NumRows()
	p.Columns = t.NumCols()
	for _, col := range t.Columns() {
		if col.Kind == table.KindNumber {
			p.Numeric = append(p.Numeric, describeNumeric(col))
			continue
		}
		p.Categorical = append(p.Categorical, describeCategorical(col))
	}
	return p
}

func describeNumeric(col *table.Column) NumericSummary {
	vals := col.Numbers()
	s := NumericSummary{Name: col.Name, Count: len(vals), Missing: col.MissingCount()}
	if len(vals) == 0 {
		nan := math.NaN()
		s.Mean, s.StdDev, s.Min, s.Q25, s.Median, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	sort.Float64s(vals)
	s.Mean = stat.Mean(vals, nil)
	s.StdDev = math.NaN()
	if len(vals) > 1 {
		s.StdDev = stat.StdDev(vals, nil)
	}
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	s.Q25 = quantile(vals, 0.25)
	s.Median = quantile(vals, 0.5)
	s.Q75 = quantile(vals, 0.75)
	return s
}

// quantile interpolates linearly between the closest ranks of sorted, the
// same estimate spreadsheet tools report.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func describeCategorical(col *table.Column) CategoricalSummary {
	s := CategoricalSummary{Name: col.Name, Kind: col.Kind.String(), Missing: col.MissingCount()}
	counts := map[string]int{}
	var first, last time.Time
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		s.Count++
		counts[col.String(i)]++
		if col.Kind == table.KindTime {
			ts := col.Time(i)
			if first.IsZero() || ts.Before(first) {
				first = ts
			}
			if last.IsZero() || ts.After(last) {
				last = ts
			}
		}
	}
	s.Unique = len(counts)
	if !first.IsZero() {
		s.First = table.FormatTime(first)
		s.Last = table.FormatTime(last)
	}

	top := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		top = append(top, ValueCount{Value: v, Count: c})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Value < top[j].Value
	})
	if len(top) > topN {
		top = top[:topN]
	}
	s.Top = top
	return s
}

// Render writes p as aligned text tables
func Render(w io.Writer, p *Profile) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Rows: %d\tColumns: %d\n\n", p.Rows, p.Columns)

	if len(p.Numeric) > 0 {
		fmt.Fprintln(tw, "column\tcount\tmissing\tmean\tstd\tmin\t25%\t50%\t75%\tmax")
		for _, s := range p.Numeric {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				s.Name, s.Count, s.Missing,
				num(s.Mean), num(s.StdDev), num(s.Min), num(s.Q25), num(s.Median), num(s.Q75), num(s.Max))
		}
		fmt.Fprintln(tw)
	}

	if len(p.Categorical) > 0 {
		fmt.Fprintln(tw, "column\tkind\tcount\tmissing\tunique\ttop\trange")
		for _, s := range p.Categorical {
			tops := make([]string, len(s.Top))
			for i, vc := range s.Top {
				tops[i] = fmt.Sprintf("%s (%d)", vc.Value, vc.Count)
			}
			span := ""
			if s.First != "" {
				span = s.First + " .. " + s.Last
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
				s.Name, s.Kind, s.Count, s.Missing, s.Unique, strings.Join(tops, ", "), span)
		}
	}
	return tw.Flush()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}

// RenderHead writes the header and the first n rows of t. Missing cells
// print as NaN.
func RenderHead(w io.Writer, t *table.Table, n int) error {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\t"+strings.Join(t.Names(), "\t"))
	cols := t.Columns()
	for i := 0; i < n; i++ {
		rec := t.Record(i)
		for j, c := range cols {
			if c.IsMissing(i) {
				rec[j] = "NaN"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\n", i, strings.Join(rec, "\t"))
	}
	return tw.Flush()
}
