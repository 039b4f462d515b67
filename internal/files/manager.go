package files

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Manager provides output directory housekeeping
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// EarlierRuns lists the files earlier runs left in dir. Anything else in dir
// is never listed. A missing directory yields no files.
func (m *Manager) EarlierRuns(dir string, a Artifacts) ([]FileInfo, error) {
	if dir == "" || filepath.Clean(dir) == string(filepath.Separator) {
		return nil, fmt.Errorf("refusing to clean directory %q", dir)
	}
	found, err := FindArtifacts(dir, a)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.logger.Debug("Earlier run files found",
		slog.String("directory", dir),
		slog.Int("files", len(found)))
	return found, nil
}

// RemoveFiles deletes the listed regular files and returns how many were
// removed. Files already gone are skipped.
func (m *Manager) RemoveFiles(list []FileInfo) (int, error) {
	removed := 0
	for _, f := range list {
		if err := os.Remove(f.Path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("failed to remove %s: %w", f.Path, err)
		}
		m.logger.Debug("Removed earlier run file", slog.String("file", f.Path))
		removed++
	}
	if removed > 0 {
		m.logger.Info("Removed earlier run files", slog.Int("files", removed))
	}
	return removed, nil
}
