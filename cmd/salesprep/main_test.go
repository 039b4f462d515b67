package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesprep/internal/config"
	apperrors "salesprep/internal/errors"
	"salesprep/internal/infrastructure"
)

const salesCSV = `date,product,price,units,customer_id
2024-01-05,Smart TV 55in,10,4,C1
2024-01-06,Silla,-10,2,C2
not-a-date,Mesa,20,1,C1
2024-01-05,Smart TV 55in,10,4,C1
2024-01-07,,30,-5,C2
`

const sparseCSV = `date,product,price,units
2024-01-01,A,,1
2024-01-02,B,,1
2024-01-03,C,,1
2024-01-04,D,5,1
2024-01-05,E,6,1
`

// runCLI executes the CLI in-process and returns stdout, stderr and exit code
func runCLI(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func outputs(t *testing.T, dir, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	require.NoError(t, err)
	return matches
}

func TestCLI_Version(t *testing.T) {
	stdout, _, code := runCLI(t, "", "version")
	assert.Equal(t, ExitSuccess, code)
	assert.True(t, strings.HasPrefix(stdout, "salesprep "+config.Version))
}

func TestCLI_Help(t *testing.T) {
	stdout, _, code := runCLI(t, "", "--help")
	assert.Equal(t, ExitSuccess, code)
	for _, sub := range []string{"run", "validate", "describe", "version"} {
		assert.Contains(t, stdout, sub)
	}
}

func TestCLI_Run(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "ventas.csv", salesCSV)
	out := filepath.Join(dir, "processed")

	stdout, _, code := runCLI(t, "", "run", "--local-path", src, "--output-dir", out, "--chart")
	require.Equal(t, ExitSuccess, code)

	assert.Contains(t, stdout, "✓ Pipeline completed")
	assert.Contains(t, stdout, "Rows:    3 of 5 kept (1 invalid dates, 1 duplicates dropped)")
	assert.Len(t, outputs(t, out, "sales_clean_*.csv"), 1)
	assert.Len(t, outputs(t, out, "quality_report_*.txt"), 1)
	assert.Len(t, outputs(t, out, "units_by_product_*.png"), 1)
}

func TestCLI_RunWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "ventas.csv",
		"fecha;producto;precio;unidades\n2024-01-05;Silla;10;4\n2024-01-06;Mesa;20;1\n")
	out := filepath.Join(dir, "out")
	cfgPath := writeFile(t, dir, "salesprep.yaml", `
source: local
local_path: `+src+`
output_directory: `+out+`
schema_preset: spanish
delimiter: ";"
output:
  format: sqlite
  report: false
  prefix: ventas_limpias
`)

	_, _, code := runCLI(t, "", "run", "--config", cfgPath)
	require.Equal(t, ExitSuccess, code)
	assert.Len(t, outputs(t, out, "ventas_limpias_*.sqlite"), 1)
	assert.Empty(t, outputs(t, out, "quality_report_*"))
}

func TestCLI_RunQuiet(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "ventas.csv", salesCSV)

	stdout, _, code := runCLI(t, "", "run", "-q", "--local-path", src, "--output-dir", filepath.Join(dir, "out"))
	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, stdout)
}

func TestCLI_RunDryRunKeepsOutputDir(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "ventas.csv", salesCSV)
	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(out, 0755))
	old := writeFile(t, out, "sales_clean_20240101_000000_aaaaaaaa.csv", "x")

	stdout, _, code := runCLI(t, "", "run", "--dry-run", "--clean-output", "--local-path", src, "--output-dir", out)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "dry run")
	assert.FileExists(t, old)
	assert.Equal(t, []string{old}, outputs(t, out, "sales_clean_*"))
}

func TestCLI_RunCleanOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "ventas.csv", salesCSV)
	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(out, 0755))
	earlier := []string{
		writeFile(t, out, "sales_clean_20240101_000000_aaaaaaaa.csv", "x"),
		writeFile(t, out, "sales_clean_20240101_000000_aaaaaaaa.sqlite", "x"),
		writeFile(t, out, "quality_report_20240101_000000_aaaaaaaa.txt", "x"),
		writeFile(t, out, "units_by_product_20240101_000000_aaaaaaaa.png", "x"),
	}
	notes := writeFile(t, out, "my_notes.txt", "keep me")
	lookalike := writeFile(t, out, "sales_clean_final.csv", "keep me")

	_, _, code := runCLI(t, "", "run", "--clean-output", "--local-path", src, "--output-dir", out)
	require.Equal(t, ExitSuccess, code)
	for _, p := range earlier {
		assert.NoFileExists(t, p)
	}
	assert.FileExists(t, notes)
	assert.FileExists(t, lookalike)
	assert.FileExists(t, src)
	assert.Len(t, outputs(t, out, "sales_clean_2*.csv"), 1)
	assert.Len(t, outputs(t, out, "quality_report_*.txt"), 1)
}

func TestCLI_RunCleanOutputSourceInside(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "ventas.csv", salesCSV)
	notes := writeFile(t, dir, "my_notes.txt", "keep me")
	earlier := writeFile(t, dir, "sales_clean_20240101_000000_aaaaaaaa.csv", "x")

	_, stderr, code := runCLI(t, "", "run", "--clean-output", "--local-path", src, "--output-dir", dir)
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "contains the source")
	assert.FileExists(t, src)
	assert.FileExists(t, notes)
	assert.FileExists(t, earlier)
	assert.Empty(t, outputs(t, dir, "quality_report_*"))

	// an unclean spelling of the same directory
	_, _, code = runCLI(t, "", "run", "--clean-output", "--local-path", src, "--output-dir", dir+string(filepath.Separator)+".")
	assert.Equal(t, ExitConfigError, code)
	assert.FileExists(t, src)
}

func TestCLI_RunCleanOutputConfirm(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		removed bool
	}{
		{"declined", "n\n", false},
		{"empty answer", "\n", false},
		{"confirmed", "yes\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := writeFile(t, dir, "ventas.csv", salesCSV)
			out := filepath.Join(dir, "out")
			require.NoError(t, os.MkdirAll(out, 0755))
			earlier := writeFile(t, out, "sales_clean_20240101_000000_aaaaaaaa.csv", "x")

			_, stderr, code := runCLI(t, "1\n"+tt.answer, "run", "--interactive", "--clean-output",
				"--local-path", src, "--output-dir", out)
			require.Equal(t, ExitSuccess, code, stderr)
			assert.Contains(t, stderr, "Delete 1 earlier output files in "+out+"? [y/N]: ")
			if tt.removed {
				assert.NoFileExists(t, earlier)
			} else {
				assert.FileExists(t, earlier)
			}
		})
	}
}

func TestCLI_RunInteractiveRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(salesCSV))
	}))
	defer srv.Close()

	stdout, stderr, code := runCLI(t, "2\n"+srv.URL+"/ventas.csv\n", "run", "--interactive", "--dry-run")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stderr, "1) local file")
	assert.Contains(t, stderr, "Remote URL: ")
	assert.Contains(t, stdout, "Source:  remote:"+srv.URL+"/ventas.csv")
}

func TestCLI_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "ventas.csv", salesCSV)
	noProduct := writeFile(t, dir, "no_product.csv", "date,price,units\n2024-01-05,10,1\n")
	sparse := writeFile(t, dir, "sparse.csv", sparseCSV)
	out := filepath.Join(dir, "out")

	tests := []struct {
		name     string
		stdin    string
		args     []string
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing required column",
			args:     []string{"run", "--local-path", noProduct, "--output-dir", out},
			wantCode: ExitValidationError,
			wantErr:  "Missing columns: [product]",
		},
		{
			name:     "quality gate",
			args:     []string{"run", "--fail-on-quality", "--local-path", sparse, "--output-dir", out},
			wantCode: ExitValidationError,
			wantErr:  "null_pct.price: 60.0",
		},
		{
			name:     "invalid format",
			args:     []string{"run", "--format", "parquet", "--local-path", good},
			wantCode: ExitConfigError,
			wantErr:  "output.format",
		},
		{
			name:     "unknown flag",
			args:     []string{"run", "--nope"},
			wantCode: ExitConfigError,
		},
		{
			name:     "positional argument",
			args:     []string{"run", "extra"},
			wantCode: ExitConfigError,
		},
		{
			name:     "invalid interactive choice",
			stdin:    "9\n",
			args:     []string{"run", "--interactive", "--local-path", good},
			wantCode: ExitConfigError,
			wantErr:  `invalid source choice "9"`,
		},
		{
			name:     "missing source file",
			args:     []string{"run", "--local-path", filepath.Join(dir, "nope.csv"), "--output-dir", out},
			wantCode: ExitRuntimeError,
		},
		{
			name:     "missing config file",
			args:     []string{"run", "--config", filepath.Join(dir, "nope.yaml")},
			wantCode: ExitConfigError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCLI(t, tt.stdin, tt.args...)
			assert.Equal(t, tt.wantCode, code, stderr)
			if tt.wantErr != "" {
				assert.Contains(t, stderr, tt.wantErr)
			}
		})
	}
}

func TestCLI_Validate(t *testing.T) {
	dir := t.TempDir()

	stdout, _, code := runCLI(t, "", "validate", "--local-path", writeFile(t, dir, "ventas.csv", salesCSV))
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Rows:    5, columns: 5")
	assert.Contains(t, stdout, "Duplicates: 1")
	assert.Contains(t, stdout, "✓ Data quality is acceptable")

	stdout, stderr, code := runCLI(t, "", "validate", "--local-path", writeFile(t, dir, "sparse.csv", sparseCSV))
	assert.Equal(t, ExitValidationError, code)
	assert.Contains(t, stdout, "price: 3")
	assert.Contains(t, stdout, "✗ Data quality is not acceptable")
	assert.Contains(t, stderr, "Data quality below the acceptance threshold")
}

func TestCLI_Describe(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "ventas.csv", salesCSV)

	stdout, _, code := runCLI(t, "", "describe", "--local-path", src)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Source: local:"+src)
	assert.Contains(t, stdout, "25%")
	assert.Contains(t, stdout, "Smart TV 55in (2)")
	assert.NotContains(t, stdout, "First")

	stdout, _, code = runCLI(t, "", "describe", "--head", "2", "--local-path", src)
	require.Equal(t, ExitSuccess, code)
	_, preview, found := strings.Cut(stdout, "First 2 rows:\n")
	require.True(t, found, stdout)
	assert.Len(t, strings.Split(strings.TrimRight(preview, "\n"), "\n"), 3)
	assert.Contains(t, preview, "Silla")
	assert.NotContains(t, preview, "Mesa")

	stdout, _, code = runCLI(t, "", "describe", "--json", "--local-path", src)
	require.Equal(t, ExitSuccess, code)
	var p struct {
		Rows    int `json:"rows"`
		Columns int `json:"columns"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &p))
	assert.Equal(t, 5, p.Rows)
	assert.Equal(t, 5, p.Columns)
}

func TestCLI_DescribeLatest(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "ventas.csv", salesCSV)
	out := filepath.Join(dir, "out")

	_, _, code := runCLI(t, "", "describe", "--latest", "--output-dir", out)
	assert.Equal(t, ExitRuntimeError, code)

	_, _, code = runCLI(t, "", "run", "--local-path", src, "--output-dir", out)
	require.Equal(t, ExitSuccess, code)
	written := outputs(t, out, "sales_clean_*.csv")
	require.Len(t, written, 1)

	stdout, _, code := runCLI(t, "", "describe", "--latest", "--output-dir", out)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Source: local:"+written[0])
	assert.Contains(t, stdout, "Rows: 3")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.NewSchemaValidationError([]string{"a"}, []string{"a"}), ExitValidationError},
		{apperrors.NewEmptyDataError("empty"), ExitValidationError},
		{apperrors.NewDataQualityError("bad", nil), ExitValidationError},
		{apperrors.NewConfigError("bad", nil), ExitConfigError},
		{apperrors.NewFileLoadError("gone", nil), ExitRuntimeError},
		{apperrors.NewStorageError("disk", nil), ExitRuntimeError},
		{assert.AnError, ExitRuntimeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}
