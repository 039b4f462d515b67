package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	apperrors "salesprep/internal/errors"
	"salesprep/internal/infrastructure"
	"salesprep/internal/table"
	"salesprep/internal/validation"
)

// Output formats
const (
	FormatCSV    = "csv"
	FormatXLSX   = "xlsx"
	FormatSQLite = "sqlite"
)

const stampLayout = "20060102_150405"

// ReportPrefix starts the name of every quality report
const ReportPrefix = "quality_report"

// Result describes the files one Write produced
type Result struct {
	DataPath   string `json:"data_path"`
	ReportPath string `json:"report_path,omitempty"`
	Stamp      string `json:"stamp"`
	Format     string `json:"format"`
	Rows       int    `json:"rows"`
}

// Writer persists the final table under a fresh, timestamped name.
type Writer struct {
	Format string
	BOM    bool
	Prefix string

	// Clock and IDFunc are overridable for tests
	Clock  func() time.Time
	IDFunc func() string

	logger *slog.Logger
}

// NewWriter creates a writer with the real clock and random ids
func NewWriter(format, prefix string, bom bool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		Format: format,
		BOM:    bom,
		Prefix: prefix,
		Clock:  time.Now,
		IDFunc: uuid.NewString,
		logger: logger.With(slog.String("component", "writer")),
	}
}

// Stamp returns the timestamp-qualified suffix shared by every file of a run
func (w *Writer) Stamp() string {
	clock, idFunc := w.Clock, w.IDFunc
	if clock == nil {
		clock = time.Now
	}
	if idFunc == nil {
		idFunc = uuid.NewString
	}
	return clock().Format(stampLayout) + "_" + infrastructure.ShortRunID(idFunc())
}

// Extension returns the data file extension of format
func Extension(format string) string {
	switch format {
	case FormatXLSX:
		return ".xlsx"
	case FormatSQLite:
		return ".sqlite"
	default:
		return ".csv"
	}
}

// Write creates dir when needed, writes t and, when report is not nil, the
// plain-text quality report with the same stamp. Nothing is retried.
func (w *Writer) Write(ctx context.Context, t *table.Table, dir string, report *ReportData) (*Result, error) {
	if t == nil {
		return nil, apperrors.NewEmptyDataError("nothing to write")
	}
	if err := validation.NewFileValidator(w.log()).ValidateOutputDirectory(dir); err != nil {
		return nil, apperrors.NewStorageError("output directory is not usable", err).WithContext("directory", dir)
	}

	format := w.Format
	if format == "" {
		format = FormatCSV
	}
	prefix := w.Prefix
	if prefix == "" {
		prefix = "sales_clean"
	}
	stamp := w.Stamp()
	res := &Result{
		DataPath: filepath.Join(dir, fmt.Sprintf("%s_%s%s", prefix, stamp, Extension(format))),
		Stamp:    stamp,
		Format:   format,
		Rows:     t.NumRows(),
	}

	var err error
	switch format {
	case FormatCSV:
		err = NewCSVWriter(w.log()).WriteTable(res.DataPath, t, w.BOM)
	case FormatXLSX:
		err = WriteXLSX(res.DataPath, t)
	case FormatSQLite:
		err = WriteSQLite(ctx, res.DataPath, t)
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown output format %q", format), nil)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to write output", err).WithContext("path", res.DataPath)
	}
	w.log().InfoContext(ctx, "Output written",
		slog.String("path", res.DataPath),
		slog.String("format", format),
		slog.Int("rows", res.Rows))

	if report != nil {
		report.OutputPath = res.DataPath
		if report.GeneratedAt.IsZero() {
			report.GeneratedAt = w.now()
		}
		res.ReportPath = filepath.Join(dir, ReportPrefix+"_"+stamp+".txt")
		if err := writeExclusive(res.ReportPath, []byte(RenderReport(report))); err != nil {
			// a run writes all of its files or none
			removePartial(res.DataPath)
			return nil, apperrors.NewStorageError("failed to write quality report", err).
				WithContext("path", res.ReportPath)
		}
		w.log().InfoContext(ctx, "Quality report written", slog.String("path", res.ReportPath))
	}
	return res, nil
}

func (w *Writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.Default()
	}
	return w.logger
}

func (w *Writer) now() time.Time {
	if w.Clock != nil {
		return w.Clock()
	}
	return time.Now()
}

// writeExclusive creates path with data. It never replaces an existing file
// and removes what it created when the write fails.
func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		removePartial(path)
	}
	return err
}
