// Package chart renders the units-per-product bar chart of a cleaned table.
package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"salesprep/internal/table"
)

// FilePrefix names chart files: <FilePrefix>_<stamp>.png
const FilePrefix = "units_by_product"

// maxBars caps the number of products drawn; the rest are summed into "other".
const maxBars = 20

// ProductUnits is the total of units sold for one product
type ProductUnits struct {
	Product string
	Units   float64
}

// UnitsByProduct sums the units column per product, largest first. Rows with
// a missing product or missing units are skipped. It returns nil when either
// role is not present in t.
func UnitsByProduct(t *table.Table, schema table.Schema) []ProductUnits {
	if t == nil {
		return nil
	}
	products, ok := schema.ResolveColumn(t, table.RoleProduct, table.KindText)
	if !ok {
		return nil
	}
	units, ok := schema.ResolveColumn(t, table.RoleUnits, table.KindNumber)
	if !ok {
		return nil
	}

	totals := map[string]float64{}
	for i := 0; i < t.NumRows(); i++ {
		if products.IsMissing(i) || units.IsMissing(i) {
			continue
		}
		totals[products.Text(i)] += units.Number(i)
	}

	out := make([]ProductUnits, 0, len(totals))
	for p, u := range totals {
		out = append(out, ProductUnits{Product: p, Units: u})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Units != out[j].Units {
			return out[i].Units > out[j].Units
		}
		return out[i].Product < out[j].Product
	})

	if len(out) > maxBars {
		var rest float64
		for _, pu := range out[maxBars-1:] {
			rest += pu.Units
		}
		out = append(out[:maxBars-1], ProductUnits{Product: "other", Units: rest})
	}
	return out
}

// Render draws data as a PNG bar chart at path. Existing files are never
// replaced.
func Render(path string, data []ProductUnits) error {
	if len(data) == 0 {
		return fmt.Errorf("no product units to chart")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("chart file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}

	values := make(plotter.Values, len(data))
	names := make([]string, len(data))
	for i, pu := range data {
		values[i] = pu.Units
		names[i] = pu.Product
	}

	p := plot.New()
	p.Title.Text = "Units sold by product"
	p.Y.Label.Text = "Units"

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = color.RGBA{R: 50, G: 90, B: 200, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 0.8
	p.X.Tick.Label.XAlign = -0.9

	width := vg.Length(len(data))*vg.Points(30) + 2*vg.Inch
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}
	return nil
}

// FileName returns the chart file name for a run stamp
func FileName(stamp string) string {
	return fmt.Sprintf("%s_%s.png", FilePrefix, stamp)
}
