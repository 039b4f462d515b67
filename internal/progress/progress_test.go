package progress

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesprep/internal/shared/testutil"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Emit(Event{Stage: "clean", Level: LevelInfo, Message: "dropped 2 rows"})
	r.Emit(Event{Stage: "quality", Level: LevelWarning, Message: "3 duplicate rows"})

	require.Len(t, r.Events(), 2)
	assert.Equal(t, []string{"3 duplicate rows"}, r.Warnings())
}

func TestOrDiscard(t *testing.T) {
	assert.Equal(t, Discard, OrDiscard(nil))

	r := &Recorder{}
	assert.Same(t, r, OrDiscard(r))
	Discard.Emit(Event{Message: "ignored"})
}

func TestTee(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	sink := Tee(a, nil, b)
	sink.Emit(Event{Message: "hello"})

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestSlogSink(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	sink := NewSlogSink(context.Background(), logger)

	sink.Emit(Event{Stage: "clean", Level: LevelInfo, Message: "imputed", Column: "price", Count: 4})
	sink.Emit(Event{Stage: "quality", Level: LevelWarning, Message: "too many nulls"})

	require.Equal(t, 2, handler.Count())
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelWarn), 1)
	assert.True(t, handler.ContainsAttr("column", "price"))
	assert.True(t, handler.ContainsAttr("count", int64(4)))
	assert.True(t, handler.ContainsAttr("stage", "quality"))
}

func TestStageTracker(t *testing.T) {
	tracker := NewStageTracker(4)

	tracker.Advance("load")
	tracker.Advance("validate_schema")

	current, total, pct, stage := tracker.Progress()
	assert.Equal(t, 2, current)
	assert.Equal(t, 4, total)
	assert.InDelta(t, 50.0, pct, 1e-9)
	assert.Equal(t, "validate_schema", stage)

	tracker.Advance("clean")
	tracker.Advance("write")
	current, _, pct, stage = tracker.Progress()
	assert.Equal(t, 4, current)
	assert.InDelta(t, 100.0, pct, 1e-9)
	assert.Equal(t, "write", stage)
	assert.NotEmpty(t, tracker.Elapsed())
}

func TestStageTracker_ZeroTotal(t *testing.T) {
	tracker := NewStageTracker(0)
	current, total, pct, _ := tracker.Progress()
	assert.Zero(t, current)
	assert.Zero(t, total)
	assert.Equal(t, 0.0, pct)
}
