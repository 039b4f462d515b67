package cleaning

import (
	"time"

	"salesprep/internal/table"
)

// toTimeColumn coerces a date column of any kind to KindTime. Cells that do
// not parse become missing.
func toTimeColumn(col *table.Column) *table.Column {
	if col.Kind == table.KindTime {
		return col.Clone()
	}
	values := make([]time.Time, col.Len())
	for i := range values {
		if col.IsMissing(i) {
			continue
		}
		switch col.Kind {
		case table.KindText:
			values[i], _ = table.ParseTime(col.Text(i))
		case table.KindNumber:
			values[i], _ = table.ParseTime(col.String(i))
		}
	}
	return table.NewTime(col.Name, values)
}

// presentRows returns the indexes of rows whose cell in col is present
func presentRows(col *table.Column) []int {
	rows := make([]int, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if !col.IsMissing(i) {
			rows = append(rows, i)
		}
	}
	return rows
}
