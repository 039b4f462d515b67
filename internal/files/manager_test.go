package files

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesprep/internal/shared/testutil"
)

var runArtifacts = Artifacts{
	DataPrefix:   "sales_clean",
	ReportPrefix: "quality_report",
	ChartPrefix:  "units_by_product",
}

func TestNewManager(t *testing.T) {
	manager := NewManager(nil)
	require.NotNil(t, manager)
	assert.NotNil(t, manager.logger)
}

func TestManager_RemoveEarlierRuns(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	m := NewManager(logger)

	dir := t.TempDir()
	earlier := []string{
		"sales_clean_20240309_140507_aaaaaaaa.csv",
		"quality_report_20240309_140507_aaaaaaaa.txt",
		"units_by_product_20240309_140507_aaaaaaaa.png",
	}
	kept := []string{"ventas.csv", "my_notes.txt", "sales_clean_final.csv"}
	for _, n := range append(append([]string{}, earlier...), kept...) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "old", "nested"), 0755))

	found, err := m.EarlierRuns(dir, runArtifacts)
	require.NoError(t, err)
	require.Len(t, found, 3)

	removed, err := m.RemoveFiles(found)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	for _, n := range earlier {
		assert.NoFileExists(t, filepath.Join(dir, n))
	}
	for _, n := range kept {
		assert.FileExists(t, filepath.Join(dir, n))
	}
	assert.DirExists(t, filepath.Join(dir, "old", "nested"))
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Removed earlier run files")

	// already gone
	removed, err = m.RemoveFiles(found)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestManager_EarlierRunsEdges(t *testing.T) {
	m := NewManager(nil)

	found, err := m.EarlierRuns(filepath.Join(t.TempDir(), "never-created"), runArtifacts)
	require.NoError(t, err)
	assert.Empty(t, found)

	for _, dir := range []string{"", "/"} {
		_, err := m.EarlierRuns(dir, runArtifacts)
		assert.Error(t, err, "dir %q", dir)
	}

	_, err = m.EarlierRuns(t.TempDir(), Artifacts{})
	assert.Error(t, err)
}
