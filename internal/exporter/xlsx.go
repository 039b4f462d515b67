package exporter

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"salesprep/internal/table"
)

const xlsxSheet = "sales_clean"

// cellValue converts cell i of col to the value stored in a workbook or
// database. Missing cells are nil; timestamps are rendered as text.
func cellValue(col *table.Column, i int) interface{} {
	if col.IsMissing(i) {
		return nil
	}
	switch col.Kind {
	case table.KindNumber:
		return col.Number(i)
	case table.KindBool:
		return col.Bool(i)
	case table.KindTime:
		return table.FormatTime(col.Time(i))
	default:
		return col.Text(i)
	}
}

// WriteXLSX writes t to a single-sheet workbook. An existing file is never
// replaced.
func WriteXLSX(filePath string, t *table.Table) error {
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("file %s already exists", filePath)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]interface{}, t.NumCols())
	for j, name := range t.Names() {
		header[j] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	cols := t.Columns()
	for i := 0; i < t.NumRows(); i++ {
		row := make([]interface{}, len(cols))
		for j, col := range cols {
			row[j] = cellValue(col, i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush workbook: %w", err)
	}
	if err := f.SaveAs(filePath); err != nil {
		removePartial(filePath)
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
