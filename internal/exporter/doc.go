// Package exporter persists a processed sales table and its quality report.
//
// Writer picks a collision-free, timestamped file name and delegates to one
// of three formats:
//
//	csv    - encoding/csv, optional UTF-8 BOM for Excel
//	xlsx   - a single-sheet workbook via excelize
//	sqlite - one sales_clean table via modernc.org/sqlite
//
// RenderReport produces the plain-text quality report written next to the
// data file.
package exporter
