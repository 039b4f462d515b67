package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"salesprep/internal/chart"
	"salesprep/internal/cleaning"
	"salesprep/internal/config"
	apperrors "salesprep/internal/errors"
	"salesprep/internal/exporter"
	"salesprep/internal/features"
	"salesprep/internal/infrastructure"
	"salesprep/internal/loader"
	"salesprep/internal/progress"
	"salesprep/internal/table"
	"salesprep/internal/validation"
)

// Result is everything a run produced
type Result struct {
	RunID  string
	Origin loader.Origin

	// TraceID is set when tracing is enabled
	TraceID string

	// Table is the final table: cleaned and with derived columns
	Table *table.Table

	Before   *validation.QualityReport
	After    *validation.QualityReport
	Cleaning *cleaning.Summary
	Derived  []string

	// Output is nil for dry runs and validate-only runs
	Output    *exporter.Result
	ChartPath string
}

// Runner executes one pipeline run for Config.
type Runner struct {
	Config    *config.Config
	Logger    *slog.Logger
	Sink      progress.Sink
	Telemetry *infrastructure.Telemetry

	HTTPClient *http.Client
	DryRun     bool

	// Clock overrides the writer's clock; nil means time.Now
	Clock func() time.Time
}

// NewRunner creates a runner. A nil logger uses the process logger, a nil
// telemetry records nothing. Progress events are always logged and are also
// sent to Sink when it is set.
func NewRunner(cfg *config.Config, logger *slog.Logger, tel *infrastructure.Telemetry) *Runner {
	return &Runner{Config: cfg, Logger: logger, Telemetry: tel}
}

// BuildSchema resolves the schema preset and the per-role overrides of cfg
func BuildSchema(cfg *config.Config) (table.Schema, error) {
	schema, err := table.SchemaByName(cfg.SchemaPreset)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid schema preset", err)
	}
	schema, err = schema.With(cfg.Columns)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid column bindings", err)
	}
	return schema, nil
}

// run carries per-run state shared by the stages
type run struct {
	*Runner
	ctx     context.Context
	runID   string
	schema  table.Schema
	logger  *slog.Logger
	sink    progress.Sink
	tel     *infrastructure.Telemetry
	stages  *stageRunner
	result  *Result
	started time.Time
}

func (r *Runner) begin(ctx context.Context, totalStages int) (*run, error) {
	if r.Config == nil {
		return nil, apperrors.NewConfigError("no configuration", nil)
	}
	schema, err := BuildSchema(r.Config)
	if err != nil {
		return nil, err
	}

	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.RunIDFromContext(ctx)

	logger := r.Logger
	if logger == nil {
		logger = infrastructure.LoggerFromContext(ctx)
	}
	logger = infrastructure.WithComponent(logger, "pipeline")

	tel := r.Telemetry
	if tel == nil {
		tel = infrastructure.NoopTelemetry()
	}
	sink := progress.Tee(progress.NewSlogSink(ctx, logger), r.Sink)

	return &run{
		Runner: r,
		ctx:    ctx,
		runID:  runID,
		schema: schema,
		logger: logger,
		sink:   sink,
		tel:    tel,
		stages: &stageRunner{
			tel:     tel,
			tracker: progress.NewStageTracker(totalStages),
			logger:  logger,
		},
		result:  &Result{RunID: runID},
		started: time.Now(),
	}, nil
}

// Run executes the full pipeline. The first failing stage ends the run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	total := 7
	if !r.DryRun {
		total++
		if r.Config != nil && r.Config.Output.Chart {
			total++
		}
	}
	st, err := r.begin(ctx, total)
	if err != nil {
		return nil, err
	}

	ctx, span := st.tel.Tracer.Start(st.ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", st.runID),
			attribute.String("run.source", r.Config.Source),
			attribute.Bool("run.dry_run", r.DryRun),
		),
	)
	defer span.End()
	st.result.TraceID = infrastructure.TraceIDFromContext(ctx)

	st.logger.InfoContext(ctx, "Pipeline started",
		slog.String("source", r.Config.Source),
		slog.Bool("dry_run", r.DryRun))

	if err := st.runAll(ctx); err != nil {
		infrastructure.RecordError(ctx, err)
		return st.result, err
	}

	if st.tel.Runtime != nil {
		st.tel.Runtime.Collect(ctx, st.started)
	}
	st.logger.InfoContext(ctx, "Pipeline completed",
		slog.Int("rows", st.result.Table.NumRows()),
		slog.Int("columns", st.result.Table.NumCols()),
		slog.String("elapsed", st.stages.tracker.Elapsed()))
	return st.result, nil
}

// Validate loads the dataset, checks the schema and assesses its quality
// without cleaning or writing anything.
func (r *Runner) Validate(ctx context.Context) (*Result, error) {
	st, err := r.begin(ctx, 3)
	if err != nil {
		return nil, err
	}
	ctx, span := st.tel.Tracer.Start(st.ctx, "pipeline.validate",
		trace.WithAttributes(attribute.String("run.id", st.runID)))
	defer span.End()

	var t *table.Table
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StageLoad, func(ctx context.Context) error { t, err = st.load(ctx); return err }},
		{StageSchema, func(context.Context) error { return st.validateSchema(t) }},
		{StageQualityBefore, func(context.Context) error {
			st.result.Before, err = st.assess(t)
			return err
		}},
	}
	for _, s := range steps {
		if err := st.stages.run(ctx, s.name, s.fn); err != nil {
			infrastructure.RecordError(ctx, err)
			return st.result, err
		}
	}
	st.result.Table = t
	return st.result, st.gate(st.result.Before)
}

// Load reads the configured dataset only
func (r *Runner) Load(ctx context.Context) (*table.Table, loader.Origin, error) {
	st, err := r.begin(ctx, 1)
	if err != nil {
		return nil, loader.Origin{}, err
	}
	var t *table.Table
	err = st.stages.run(st.ctx, StageLoad, func(ctx context.Context) error {
		t, err = st.load(ctx)
		return err
	})
	return t, st.result.Origin, err
}

func (st *run) runAll(ctx context.Context) error {
	var (
		raw, cleaned, derived *table.Table
		err                   error
	)

	if err := st.stages.run(ctx, StageLoad, func(ctx context.Context) error {
		raw, err = st.load(ctx)
		return err
	}); err != nil {
		return err
	}

	if err := st.stages.run(ctx, StageSchema, func(context.Context) error {
		return st.validateSchema(raw)
	}); err != nil {
		return err
	}

	if err := st.stages.run(ctx, StageQualityBefore, func(context.Context) error {
		st.result.Before, err = st.assess(raw)
		if err != nil {
			return err
		}
		return st.gate(st.result.Before)
	}); err != nil {
		return err
	}

	if err := st.stages.run(ctx, StageClean, func(ctx context.Context) error {
		var sum cleaning.Summary
		cleaned, sum = cleaning.New(st.schema, st.sink).Clean(raw)
		st.result.Cleaning = &sum
		st.recordCleaning(ctx, sum)
		if cleaned.NumRows() == 0 {
			return apperrors.NewEmptyDataError("no rows left after cleaning")
		}
		return nil
	}); err != nil {
		return err
	}

	if err := st.stages.run(ctx, StageQualityAfter, func(context.Context) error {
		st.result.After, err = st.assess(cleaned)
		if err != nil {
			return err
		}
		return st.gate(st.result.After)
	}); err != nil {
		return err
	}

	if err := st.stages.run(ctx, StageDerive, func(context.Context) error {
		derived = features.New(st.schema).Derive(cleaned)
		st.result.Derived = features.Added(cleaned, derived)
		st.result.Table = derived
		st.sink.Emit(progress.Event{
			Stage:   StageDerive,
			Level:   progress.LevelInfo,
			Message: fmt.Sprintf("derived %d feature columns", len(st.result.Derived)),
			Count:   len(st.result.Derived),
		})
		return nil
	}); err != nil {
		return err
	}

	if err := st.stages.run(ctx, StagePostClean, func(context.Context) error {
		return st.assessor().ValidateAfterCleaning(derived)
	}); err != nil {
		return err
	}

	if st.DryRun {
		st.logger.InfoContext(ctx, "Dry run: output not written",
			slog.Int("rows", derived.NumRows()))
		return nil
	}

	if err := st.stages.run(ctx, StageWrite, func(ctx context.Context) error {
		return st.write(ctx, derived)
	}); err != nil {
		return err
	}

	if st.Config.Output.Chart {
		return st.stages.run(ctx, StageChart, func(context.Context) error {
			st.chart(derived)
			return nil
		})
	}
	return nil
}

func (st *run) load(ctx context.Context) (*table.Table, error) {
	cfg := st.Config
	l := loader.New(loader.Options{
		Source:     cfg.Source,
		LocalPath:  cfg.LocalPath,
		RemoteURL:  cfg.RemoteURL,
		Delimiter:  cfg.DelimiterRune(),
		HTTPClient: st.HTTPClient,
		Timeout:    cfg.HTTPTimeout,
	}, st.logger)

	t, origin, err := l.Load(ctx)
	st.result.Origin = origin
	if err != nil {
		return nil, err
	}
	st.tel.Metrics.RowsLoaded.Add(ctx, int64(t.NumRows()),
		metric.WithAttributes(attribute.String("source", origin.Kind)))
	return t, nil
}

func (st *run) validateSchema(t *table.Table) error {
	required := validation.RequiredColumns(t, st.schema, st.Config.RequiredColumns)
	return validation.ValidateSchema(t, required)
}

func (st *run) assessor() *validation.Assessor {
	a := validation.NewAssessor(st.schema, st.sink)
	a.Thresholds = validation.Thresholds{
		NullPct:        st.Config.Quality.NullThresholdPct,
		InvalidDatePct: st.Config.Quality.InvalidDateThresholdPct,
	}
	return a
}

func (st *run) assess(t *table.Table) (*validation.QualityReport, error) {
	return st.assessor().Assess(t)
}

// gate turns an unacceptable report into an error when the run is
// configured to fail on it.
func (st *run) gate(r *validation.QualityReport) error {
	if r == nil || r.IsAcceptable || !st.Config.Quality.FailWhenUnacceptable {
		return nil
	}
	return r.Err()
}

func (st *run) recordCleaning(ctx context.Context, sum cleaning.Summary) {
	m := st.tel.Metrics
	m.InvalidDatesDropped.Add(ctx, int64(sum.InvalidDatesDropped))
	m.DuplicatesRemoved.Add(ctx, int64(sum.DuplicatesRemoved))
	m.ValuesImputed.Add(ctx, int64(sum.ValuesImputed()))
	m.NegativesRepaired.Add(ctx, int64(sum.NegativesRepaired()))

	infrastructure.AddSpanEvent(ctx, "cleaning.summary", map[string]int{
		"rows_in":               sum.RowsIn,
		"rows_out":              sum.RowsOut,
		"invalid_dates_dropped": sum.InvalidDatesDropped,
		"duplicates_removed":    sum.DuplicatesRemoved,
		"values_imputed":        sum.ValuesImputed(),
		"negatives_repaired":    sum.NegativesRepaired(),
	})
}

func (st *run) write(ctx context.Context, t *table.Table) error {
	cfg := st.Config
	w := exporter.NewWriter(cfg.Output.Format, cfg.Output.Prefix, cfg.Output.BOM, st.logger)
	runID := st.runID
	w.IDFunc = func() string { return runID }
	if st.Clock != nil {
		w.Clock = st.Clock
	}

	var report *exporter.ReportData
	if cfg.Output.Report {
		report = &exporter.ReportData{
			RunID:    st.runID,
			Source:   st.result.Origin.String(),
			Rows:     t.NumRows(),
			Columns:  t.NumCols(),
			Before:   st.result.Before,
			After:    st.result.After,
			Cleaning: st.result.Cleaning,
			Derived:  st.result.Derived,
		}
	}

	out, err := w.Write(ctx, t, cfg.OutputDirectory, report)
	if out != nil {
		st.result.Output = out
	}
	if err != nil {
		return err
	}
	st.tel.Metrics.RowsWritten.Add(ctx, int64(out.Rows),
		metric.WithAttributes(attribute.String("format", out.Format)))
	return nil
}

// chart is best effort: the data file is already written, so a chart that
// cannot be drawn is reported as a warning.
func (st *run) chart(t *table.Table) {
	data := chart.UnitsByProduct(t, st.schema)
	if len(data) == 0 {
		st.sink.Emit(progress.Event{
			Stage:   StageChart,
			Level:   progress.LevelWarning,
			Message: "chart skipped: no product units to plot",
		})
		return
	}
	path := filepath.Join(st.Config.OutputDirectory, chart.FileName(st.result.Output.Stamp))
	if err := chart.Render(path, data); err != nil {
		st.sink.Emit(progress.Event{
			Stage:   StageChart,
			Level:   progress.LevelWarning,
			Message: fmt.Sprintf("chart not written: %v", err),
		})
		return
	}
	st.result.ChartPath = path
	st.sink.Emit(progress.Event{
		Stage:   StageChart,
		Level:   progress.LevelInfo,
		Message: "chart written to " + path,
		Count:   len(data),
	})
}
