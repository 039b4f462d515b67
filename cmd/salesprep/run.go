package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"salesprep/internal/chart"
	"salesprep/internal/config"
	apperrors "salesprep/internal/errors"
	"salesprep/internal/exporter"
	"salesprep/internal/files"
	"salesprep/internal/infrastructure"
	"salesprep/internal/pipeline"
)

type runFlags struct {
	src         sourceFlags
	outputDir   string
	format      string
	prefix      string
	report      bool
	chart       bool
	bom         bool
	cleanOutput bool
	dryRun      bool
	failOnBad   bool
}

func (c *cli) runCommand() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full cleaning pipeline",
		Long: `Load, validate, clean, enrich and write the configured dataset.

The output file is named <prefix>_<YYYYmmdd_HHMMSS>_<run id>.<ext> and is
never overwritten. With --report a quality_report_<same stamp>.txt is written
next to it, with --chart a units_by_product_<same stamp>.png.

--clean-output deletes only files named like those. It refuses to run when
the local source lies inside the output directory, and with --interactive
it asks before deleting.

Exit codes:
  0 - Pipeline completed
  1 - Data validation failed (schema, empty data, quality)
  2 - Configuration error
  3 - Load or write failure

Examples:
  salesprep run --local-path Data/Raw/ventas.csv --schema spanish
  salesprep run --interactive --clean-output
  salesprep run --dry-run --verbose`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runPipeline(cmd, f)
		},
	}

	f.src.register(cmd)
	fl := cmd.Flags()
	fl.StringVarP(&f.outputDir, "output-dir", "o", "", "Directory for the processed files")
	fl.StringVar(&f.format, "format", "", "Output format: csv, xlsx or sqlite")
	fl.StringVar(&f.prefix, "prefix", "", "Output file name prefix")
	fl.BoolVar(&f.report, "report", true, "Write the plain-text quality report")
	fl.BoolVar(&f.chart, "chart", false, "Write the units-by-product bar chart")
	fl.BoolVar(&f.bom, "bom", false, "Prefix CSV output with a UTF-8 byte order mark")
	fl.BoolVar(&f.cleanOutput, "clean-output", false, "Delete files written by earlier runs from the output directory first")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Run every stage except writing")
	fl.BoolVar(&f.failOnBad, "fail-on-quality", false, "Fail when a quality report is unacceptable")
	return cmd
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("output-dir") {
		cfg.OutputDirectory = f.outputDir
	}
	if fl.Changed("format") {
		cfg.Output.Format = f.format
	}
	if fl.Changed("prefix") {
		cfg.Output.Prefix = f.prefix
	}
	if fl.Changed("report") {
		cfg.Output.Report = f.report
	}
	if fl.Changed("chart") {
		cfg.Output.Chart = f.chart
	}
	if fl.Changed("bom") {
		cfg.Output.BOM = f.bom
	}
	if fl.Changed("fail-on-quality") {
		cfg.Quality.FailWhenUnacceptable = f.failOnBad
	}
}

func (c *cli) runPipeline(cmd *cobra.Command, f *runFlags) error {
	ctx := cmd.Context()
	cfg, logger, err := c.loadConfig(cmd, &f.src, func(cfg *config.Config) { f.apply(cmd, cfg) })
	if err != nil {
		return err
	}

	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.RunIDFromContext(ctx)

	tel, err := infrastructure.InitTelemetry(cfg.Telemetry, logger)
	if err != nil {
		return apperrors.NewConfigError("failed to initialize telemetry", err)
	}
	defer func() {
		if err := tel.WriteMetrics(); err != nil {
			logger.WarnContext(ctx, "Metrics not written", slog.String("error", err.Error()))
		}
		if err := tel.Shutdown(ctx); err != nil {
			logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if f.cleanOutput {
		if err := c.cleanEarlierOutputs(ctx, cfg, logger, f); err != nil {
			return err
		}
	}

	runner := pipeline.NewRunner(cfg, logger, tel)
	runner.DryRun = f.dryRun

	res, err := runner.Run(ctx)
	if err != nil {
		logFailure(ctx, logger, "run", err)
		return err
	}

	if !c.quiet {
		c.printRunSummary(runID, res, f.dryRun)
	}
	return nil
}

// cleanEarlierOutputs removes the files earlier runs left in the output directory.
// Other files are never touched, and a local source inside the directory
// stops the run before anything is removed.
func (c *cli) cleanEarlierOutputs(ctx context.Context, cfg *config.Config, logger *slog.Logger, f *runFlags) error {
	dir := cfg.OutputDirectory
	if cfg.Source != config.SourceRemote && cfg.LocalPath != "" && files.Within(dir, cfg.LocalPath) {
		return apperrors.NewConfigError(
			fmt.Sprintf("refusing to clean %s: it contains the source %s", dir, cfg.LocalPath), nil)
	}

	m := files.NewManager(logger)
	earlier, err := m.EarlierRuns(dir, files.Artifacts{
		DataPrefix:   cfg.Output.Prefix,
		ReportPrefix: exporter.ReportPrefix,
		ChartPrefix:  chart.FilePrefix,
	})
	if err != nil {
		return apperrors.NewStorageError("failed to list earlier outputs", err)
	}
	if len(earlier) == 0 {
		logger.DebugContext(ctx, "No earlier outputs to clean", slog.String("directory", dir))
		return nil
	}
	if f.dryRun {
		logger.InfoContext(ctx, "Dry run: output directory not cleaned",
			slog.String("directory", dir),
			slog.Int("files", len(earlier)))
		return nil
	}

	if f.src.interactive {
		answer, err := promptLine(c.stdin, c.stderr,
			fmt.Sprintf("Delete %d earlier output files in %s? [y/N]: ", len(earlier), dir))
		if err != nil {
			return err
		}
		if a := strings.ToLower(answer); a != "y" && a != "yes" {
			logger.InfoContext(ctx, "Output directory not cleaned", slog.String("directory", dir))
			return nil
		}
	}

	removed, err := m.RemoveFiles(earlier)
	if err != nil {
		return apperrors.NewStorageError("failed to clean output directory", err)
	}
	logger.InfoContext(ctx, "Output directory cleaned",
		slog.String("directory", dir),
		slog.Int("removed", removed))
	return nil
}

func (c *cli) printRunSummary(runID string, res *pipeline.Result, dryRun bool) {
	out := c.stdout
	if dryRun {
		fmt.Fprintln(out, "✓ Pipeline completed (dry run, nothing written)")
	} else {
		fmt.Fprintln(out, "✓ Pipeline completed")
	}
	fmt.Fprintf(out, "  Run ID:  %s\n", runID)
	if res.TraceID != "" {
		fmt.Fprintf(out, "  Trace:   %s\n", res.TraceID)
	}
	fmt.Fprintf(out, "  Source:  %s\n", res.Origin)
	if s := res.Cleaning; s != nil {
		fmt.Fprintf(out, "  Rows:    %d of %d kept (%d invalid dates, %d duplicates dropped)\n",
			s.RowsOut, s.RowsIn, s.InvalidDatesDropped, s.DuplicatesRemoved)
		fmt.Fprintf(out, "  Imputed: %d values, repaired %d negatives\n", s.ValuesImputed(), s.NegativesRepaired())
	}
	fmt.Fprintf(out, "  Columns: %d (%d derived)\n", res.Table.NumCols(), len(res.Derived))
	if res.Output != nil {
		fmt.Fprintf(out, "  Output:  %s\n", res.Output.DataPath)
		if res.Output.ReportPath != "" {
			fmt.Fprintf(out, "  Report:  %s\n", res.Output.ReportPath)
		}
	}
	if res.ChartPath != "" {
		fmt.Fprintf(out, "  Chart:   %s\n", res.ChartPath)
	}
	if c.verbose && res.After != nil {
		for _, w := range res.After.Warnings {
			fmt.Fprintf(out, "  Warning: %s\n", w)
		}
	}
}

// noArgs rejects positional arguments as a configuration error
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return apperrors.NewConfigError(fmt.Sprintf("%s takes no arguments, got %q", cmd.CommandPath(), args), nil)
	}
	return nil
}
