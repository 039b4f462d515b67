package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"salesprep/internal/infrastructure"
	"salesprep/internal/progress"
)

// Stage names, used for spans, metrics and progress
const (
	StageLoad          = "load"
	StageSchema        = "schema"
	StageQualityBefore = "quality_before"
	StageClean         = "clean"
	StageQualityAfter  = "quality_after"
	StageDerive        = "derive"
	StagePostClean     = "post_clean"
	StageWrite         = "write"
	StageChart         = "chart"
)

// stageRunner wraps each stage in a span, records its duration and advances
// the tracker on success.
type stageRunner struct {
	tel     *infrastructure.Telemetry
	tracker *progress.StageTracker
	logger  *slog.Logger
}

func (s *stageRunner) run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := s.tel.Tracer.Start(ctx, "pipeline.stage."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("stage", name)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)
	infrastructure.RecordStage(ctx, s.tel.Metrics, name, duration, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.DebugContext(ctx, "Stage failed",
			slog.String("stage", name),
			slog.Duration("duration", duration))
		return err
	}

	s.tracker.Advance(name)
	current, total, pct, _ := s.tracker.Progress()
	s.logger.DebugContext(ctx, "Stage completed",
		slog.String("stage", name),
		slog.Duration("duration", duration),
		slog.Int("completed", current),
		slog.Int("total", total),
		slog.Float64("percent", pct))
	return nil
}
