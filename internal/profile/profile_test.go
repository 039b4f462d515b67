package profile

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesprep/internal/table"
)

func salesTable() *table.Table {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return table.MustNew(
		table.NewTime("date", []time.Time{day(3), day(1), day(2), {}}),
		table.NewText("product", []string{"Silla", "Mesa", "Silla", ""}, []bool{true, true, true, false}),
		table.NewNumber("price", []float64{1, 2, 3, 4}),
		table.NewNumber("units", []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()}),
	)
}

func TestDescribe_Numeric(t *testing.T) {
	p := Describe(salesTable())
	assert.Equal(t, 4, p.Rows)
	assert.Equal(t, 4, p.Columns)
	require.Len(t, p.Numeric, 2)

	price := p.Numeric[0]
	assert.Equal(t, "price", price.Name)
	assert.Equal(t, 4, price.Count)
	assert.Equal(t, 0, price.Missing)
	assert.InDelta(t, 2.5, price.Mean, 1e-9)
	assert.InDelta(t, 1.2909944, price.StdDev, 1e-6)
	assert.Equal(t, 1.0, price.Min)
	assert.InDelta(t, 1.75, price.Q25, 1e-9)
	assert.InDelta(t, 2.5, price.Median, 1e-9)
	assert.InDelta(t, 3.25, price.Q75, 1e-9)
	assert.Equal(t, 4.0, price.Max)

	units := p.Numeric[1]
	assert.Equal(t, 0, units.Count)
	assert.Equal(t, 4, units.Missing)
	assert.True(t, math.IsNaN(units.Mean))
}

func TestDescribe_Categorical(t *testing.T) {
	p := Describe(salesTable())
	require.Len(t, p.Categorical, 2)

	date := p.Categorical[0]
	assert.Equal(t, "time", date.Kind)
	assert.Equal(t, 3, date.Count)
	assert.Equal(t, 1, date.Missing)
	assert.Equal(t, "2024-01-01", date.First)
	assert.Equal(t, "2024-01-03", date.Last)

	product := p.Categorical[1]
	assert.Equal(t, 2, product.Unique)
	assert.Equal(t, []ValueCount{{Value: "Silla", Count: 2}, {Value: "Mesa", Count: 1}}, product.Top)
	assert.Empty(t, product.First)
}

func TestQuantile(t *testing.T) {
	vals := []float64{10, 20, 30, 40, 50}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10}, {0.25, 20}, {0.5, 30}, {0.9, 46}, {1, 50},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, quantile(vals, tt.p), 1e-9, "p=%v", tt.p)
	}
	assert.Equal(t, 7.0, quantile([]float64{7}, 0.75))
}

func TestDescribe_Nil(t *testing.T) {
	p := Describe(nil)
	assert.Zero(t, p.Rows)
	assert.Empty(t, p.Numeric)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Describe(salesTable())))
	out := buf.String()
	assert.Contains(t, out, "Rows: 4")
	assert.Contains(t, out, "25%")
	assert.Contains(t, out, "2.50")
	assert.Contains(t, out, "Silla (2), Mesa (1)")
	assert.Contains(t, out, "2024-01-01 .. 2024-01-03")
	assert.Contains(t, out, "NaN")
}

func TestNumericSummary_JSON(t *testing.T) {
	data, err := json.Marshal(Describe(salesTable()))
	require.NoError(t, err)

	var decoded struct {
		Numeric []map[string]any `json:"numeric"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Numeric, 2)
	assert.Equal(t, 2.5, decoded.Numeric[0]["mean"])
	assert.Nil(t, decoded.Numeric[1]["mean"])
	assert.Contains(t, decoded.Numeric[1], "mean")
}

func TestRenderHead(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		wantRows int
	}{
		{"first two", 2, 2},
		{"more than the table", 10, 4},
		{"header only", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderHead(&buf, salesTable(), tt.n))
			lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
			require.Len(t, lines, tt.wantRows+1)
			assert.Equal(t, []string{"date", "product", "price", "units"}, strings.Fields(lines[0]))
			if tt.wantRows > 0 {
				assert.Equal(t, []string{"0", "2024-01-03", "Silla", "1", "NaN"}, strings.Fields(lines[1]))
			}
		})
	}
}
