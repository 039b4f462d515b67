package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Reasons a local source is refused
var (
	ErrSourceMissing   = errors.New("source file does not exist")
	ErrSourceDirectory = errors.New("source path is a directory")
	ErrSourceLockFile  = errors.New("source is an Excel lock file")
)

// FileValidator checks a local source before it is read and the output
// directory before anything is written to it.
type FileValidator struct {
	logger *slog.Logger
}

func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateSourceFile refuses missing paths, directories and the ~$name.xlsx
// lock files Excel leaves next to open workbooks. Empty files pass; the loader
// reports them as empty data.
func (v *FileValidator) ValidateSourceFile(path string) error {
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping Excel lock file", slog.String("file", path))
		return fmt.Errorf("%w: %s", ErrSourceLockFile, path)
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrSourceMissing, path)
	case err != nil:
		return fmt.Errorf("cannot stat %s: %w", path, err)
	case info.IsDir():
		return fmt.Errorf("%w: %s", ErrSourceDirectory, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("source %s is not readable: %w", path, err)
	}
	f.Close()

	v.logger.Debug("Source file checked",
		slog.String("file", path),
		slog.Int64("bytes", info.Size()),
		slog.Bool("spreadsheet", IsSpreadsheet(path)))
	return nil
}

// IsSpreadsheet reports whether name is parsed as an Excel workbook
func IsSpreadsheet(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// ValidateOutputDirectory creates dir when needed and probes that a file can
// be created in it.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".salesprep_probe_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("cannot remove write probe %s: %w", name, err)
	}
	return nil
}
