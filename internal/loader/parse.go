package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	apperrors "salesprep/internal/errors"
	"salesprep/internal/table"
	"salesprep/internal/validation"
)

// DefaultNAValues are the cell tokens read as missing
var DefaultNAValues = []string{"", "na", "nan", "n/a", "null", "none", "missing"}

// gotaNaN is the token gota itself treats as not-available
const gotaNaN = "NaN"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse converts raw source bytes into a table. name selects the format by
// extension: workbooks go through excelize, everything else is delimited text.
func Parse(data []byte, name string, opts Options) (*table.Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperrors.NewEmptyDataError(fmt.Sprintf("source %s is empty", name))
	}

	var (
		records [][]string
		err     error
	)
	if validation.IsSpreadsheet(name) {
		records, err = readWorkbook(data)
	} else {
		records, err = readDelimited(data, opts.Delimiter)
	}
	if err != nil {
		return nil, apperrors.NewFileLoadError(fmt.Sprintf("failed to parse %s", name), err)
	}
	if len(records) < 2 {
		return nil, apperrors.NewEmptyDataError(fmt.Sprintf("source %s has no data rows", name))
	}

	return fromRecords(records, naSet(opts.NAValues))
}

// readDelimited parses delimited text. Every record must have as many
// fields as the header.
func readDelimited(data []byte, delimiter rune) ([][]string, error) {
	if delimiter == 0 {
		delimiter = DetectDelimiter(data)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// DetectDelimiter picks the most frequent of , ; tab | in the first line.
// Ties and lines without any candidate resolve to a comma.
func DetectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []rune{';', '\t', '|'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// readWorkbook returns the rows of the first sheet, padded to the header width
func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	width := len(rows[0])
	out := make([][]string, 0, len(rows))
	for i, row := range rows {
		if i > 0 && isBlankRow(row) {
			continue
		}
		if len(row) > width {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), width)
		}
		padded := make([]string, width)
		copy(padded, row)
		out = append(out, padded)
	}
	return out, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func naSet(values []string) map[string]bool {
	if values == nil {
		values = DefaultNAValues
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return set
}

// fromRecords runs gota type inference over the records and converts each
// series into a typed column. Cells matching the NA set are normalised to
// gota's NaN token first.
func fromRecords(records [][]string, na map[string]bool) (*table.Table, error) {
	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	for _, rec := range records[1:] {
		for j, cell := range rec {
			cell = strings.TrimSpace(cell)
			if na[strings.ToLower(cell)] {
				cell = gotaNaN
			}
			rec[j] = cell
		}
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues([]string{gotaNaN}),
	)
	if df.Err != nil {
		return nil, apperrors.NewFileLoadError("failed to infer column types", df.Err)
	}
	if df.Nrow() == 0 {
		return nil, apperrors.NewEmptyDataError("source has no data rows")
	}

	names := df.Names()
	types := df.Types()
	cols := make([]*table.Column, len(names))
	for i, name := range names {
		cols[i] = convertSeries(name, types[i], df.Col(name))
	}

	t, err := table.New(cols...)
	if err != nil {
		return nil, apperrors.NewFileLoadError("inconsistent columns", err)
	}
	return t, nil
}

// convertSeries maps a gota series onto a table column. Boolean columns with
// missing cells become text so the cleaner can fill them.
func convertSeries(name string, typ series.Type, s series.Series) *table.Column {
	n := s.Len()
	switch typ {
	case series.Int, series.Float:
		return table.NewNumber(name, s.Float())
	case series.Bool:
		values := make([]bool, n)
		for i := 0; i < n; i++ {
			e := s.Elem(i)
			if e.IsNA() {
				return textColumn(name, s)
			}
			values[i], _ = e.Bool()
		}
		return table.NewBool(name, values, nil)
	default:
		return textColumn(name, s)
	}
}

func textColumn(name string, s series.Series) *table.Column {
	n := s.Len()
	values := make([]string, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		values[i] = e.String()
		valid[i] = true
	}
	return table.NewText(name, values, valid)
}
