package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesprep/internal/table"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func number(t *testing.T, tbl *table.Table, name string, row int) float64 {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "column %s", name)
	require.Equal(t, table.KindNumber, col.Kind, name)
	return col.Number(row)
}

func text(t *testing.T, tbl *table.Table, name string, row int) string {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "column %s", name)
	return col.Text(row)
}

func boolean(t *testing.T, tbl *table.Table, name string, row int) bool {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "column %s", name)
	require.Equal(t, table.KindBool, col.Kind, name)
	return col.Bool(row)
}

func TestDerive_Monetary(t *testing.T) {
	in := table.MustNew(
		table.NewNumber("price", []float64{10, 5, -3}),
		table.NewNumber("units", []float64{4, 0, 2}),
	)
	out := Derive(in)

	assert.Equal(t, 40.0, number(t, out, ColTotalAmount, 0))
	assert.Equal(t, 2.5, number(t, out, ColUnitPrice, 0))
	assert.InDelta(t, math.Log(41), number(t, out, ColLogTotal, 0), 1e-12)

	unitPrice, _ := out.Column(ColUnitPrice)
	assert.True(t, unitPrice.IsMissing(1), "no division by zero units")
	assert.Equal(t, 0.0, number(t, out, ColLogTotal, 2), "negative totals clamp to zero")

	assert.False(t, in.Has(ColTotalAmount), "input untouched")
}

func TestDerive_ProductText(t *testing.T) {
	tests := []struct {
		product  string
		category string
		brand    string
		hasDigit bool
		length   float64
	}{
		{product: "Smart TV 55in", category: CategoryElectronics, brand: "other", hasDigit: true, length: 13},
		{product: "Samsung Phone", category: CategoryElectronics, brand: "samsung", hasDigit: false, length: 13},
		{product: "Sofa cama", category: CategoryHome, brand: "other", length: 9},
		{product: "Tablet", category: CategoryElectronics, brand: "other", length: 6},
		{product: "KITCHEN TABLE", category: CategoryHome, brand: "other", length: 13},
		{product: "Café", category: CategoryOther, brand: "other", length: 4},
		{product: "Sony LG combo", category: CategoryOther, brand: "sony", length: 13},
	}

	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			out := Derive(table.MustNew(table.NewText("product", []string{tt.product}, nil)))
			assert.Equal(t, tt.category, text(t, out, ColCategory, 0))
			assert.Equal(t, tt.brand, text(t, out, ColBrand, 0))
			assert.Equal(t, tt.hasDigit, boolean(t, out, ColHasDigit, 0))
			assert.Equal(t, tt.length, number(t, out, ColNameLength, 0))
		})
	}
}

func TestDerive_Temporal(t *testing.T) {
	in := table.MustNew(table.NewTime("date", []time.Time{
		day(15),
		time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}))
	out := Derive(in)

	assert.Equal(t, 2024.0, number(t, out, ColYear, 0))
	assert.Equal(t, 1.0, number(t, out, ColMonth, 0))
	assert.Equal(t, 15.0, number(t, out, ColDay, 0))
	assert.Equal(t, "Monday", text(t, out, ColWeekdayName, 0))
	assert.False(t, boolean(t, out, ColIsWeekend, 0))
	assert.True(t, boolean(t, out, ColIsWeekend, 1), "2024-01-06 is a Saturday")

	assert.Equal(t, "summer", text(t, out, ColSeason, 0))
	assert.InDelta(t, math.Sin(math.Pi/6), number(t, out, ColMonthSin, 0), 1e-12)
	assert.InDelta(t, math.Cos(math.Pi/6), number(t, out, ColMonthCos, 0), 1e-12)
	assert.Equal(t, "winter", text(t, out, ColSeason, 2))
}

func TestSeason(t *testing.T) {
	want := map[time.Month]string{
		time.December: "summer", time.February: "summer",
		time.March: "autumn", time.May: "autumn",
		time.June: "winter", time.August: "winter",
		time.September: "spring", time.November: "spring",
	}
	for m, s := range want {
		assert.Equal(t, s, Season(m), m.String())
	}
}

func TestDerive_RFM(t *testing.T) {
	in := table.MustNew(
		table.NewTime("date", []time.Time{day(1), day(2), day(3)}),
		table.NewText("customer_id", []string{"C1", "C2", "C1"}, nil),
		table.NewNumber("price", []float64{10, 7, 20}),
		table.NewNumber("units", []float64{1, 1, 1}),
	)
	out := Derive(in)
	require.Equal(t, 3, out.NumRows())

	for _, row := range []int{0, 2} {
		assert.Equal(t, 1.0, number(t, out, ColRecency, row))
		assert.Equal(t, 2.0, number(t, out, ColFrequency, row))
		assert.Equal(t, 30.0, number(t, out, ColMonetary, row))
	}
	assert.Equal(t, 2.0, number(t, out, ColRecency, 1))
	assert.Equal(t, 1.0, number(t, out, ColFrequency, 1))
	assert.Equal(t, 7.0, number(t, out, ColMonetary, 1))
}

func TestDerive_RFMReferenceIncludesAnonymousRows(t *testing.T) {
	in := table.MustNew(
		table.NewTime("date", []time.Time{day(1), day(2), day(10)}),
		table.NewText("customer_id", []string{"C1", "C2", ""}, []bool{true, true, false}),
		table.NewNumber("price", []float64{10, 7, 5}),
		table.NewNumber("units", []float64{1, 1, 1}),
	)
	out := Derive(in)

	// reference is day 11, the latest sale plus one day
	assert.Equal(t, 10.0, number(t, out, ColRecency, 0))
	assert.Equal(t, 9.0, number(t, out, ColRecency, 1))
	recency, _ := out.Column(ColRecency)
	assert.True(t, recency.IsMissing(2))
}

func TestDerive_RFMWithoutTotal(t *testing.T) {
	in := table.MustNew(
		table.NewTime("date", []time.Time{day(1)}),
		table.NewText("customer_id", []string{"C1"}, nil),
	)
	out := Derive(in)
	assert.True(t, out.Has(ColRecency))
	assert.True(t, out.Has(ColFrequency))
	assert.False(t, out.Has(ColMonetary))
}

func TestDerive_CategoryAverage(t *testing.T) {
	in := table.MustNew(
		table.NewText("product", []string{"TV", "Phone", "Chair"}, nil),
		table.NewNumber("price", []float64{100, 50, 30}),
	)
	out := Derive(in)
	assert.Equal(t, 75.0, number(t, out, ColCategoryAvg, 0))
	assert.Equal(t, 75.0, number(t, out, ColCategoryAvg, 1))
	assert.Equal(t, 30.0, number(t, out, ColCategoryAvg, 2))
}

func TestDerive_MissingFlagsAreInertOnCleanData(t *testing.T) {
	in := table.MustNew(
		table.NewTime("date", []time.Time{day(1)}),
		table.NewText("product", []string{"TV"}, nil),
		table.NewNumber("price", []float64{1}),
		table.NewNumber("units", []float64{1}),
	)
	out := Derive(in)
	for _, name := range []string{"price_missing", "units_missing", "product_missing", "date_missing"} {
		assert.False(t, boolean(t, out, name, 0), name)
	}
}

func TestDerive_SkipsAbsentInputs(t *testing.T) {
	in := table.MustNew(table.NewText("note", []string{"x"}, nil))
	out := Derive(in)
	assert.Equal(t, []string{"note"}, out.Names())
	assert.Empty(t, Added(in, out))

	empty := table.MustNew(table.NewNumber("price", nil))
	assert.Same(t, empty, Derive(empty))
	assert.Nil(t, Derive(nil))
}

func TestDerive_SpanishSchema(t *testing.T) {
	in := table.MustNew(
		table.NewTime("fecha", []time.Time{day(1)}),
		table.NewText("producto", []string{"Silla"}, nil),
		table.NewNumber("precio", []float64{10}),
		table.NewNumber("unidades", []float64{3}),
		table.NewText("cliente_id", []string{"C9"}, nil),
	)
	out := New(table.SpanishSchema()).Derive(in)

	assert.Equal(t, 30.0, number(t, out, "importe_total", 0))
	assert.Equal(t, 30.0, number(t, out, ColMonetary, 0))
	assert.True(t, out.Has("precio_missing"))
	assert.Contains(t, Added(in, out), ColSeason)
}
