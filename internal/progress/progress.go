// Package progress carries human-readable pipeline events from the cleaning
// and validation stages to whoever is listening. Stages never depend on a
// sink being present; Discard is always a valid choice.
package progress

import (
	"context"
	"log/slog"
	"sync"
)

// Level classifies an event
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Event is a single progress message from a stage.
type Event struct {
	Stage   string
	Level   Level
	Message string
	Column  string
	Count   int
}

// Sink receives events. Implementations must not block for long.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(Event)

// Emit calls f(e)
func (f SinkFunc) Emit(e Event) { f(e) }

type discard struct{}

func (discard) Emit(Event) {}

// Discard drops every event
var Discard Sink = discard{}

// OrDiscard returns s, or Discard when s is nil
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// SlogSink forwards events to a structured logger. Warnings are logged at
// WARN, everything else at INFO.
type SlogSink struct {
	Logger *slog.Logger
	Ctx    context.Context
}

// NewSlogSink creates a sink bound to ctx so run_id attributes propagate
func NewSlogSink(ctx context.Context, logger *slog.Logger) *SlogSink {
	return &SlogSink{Logger: logger, Ctx: ctx}
}

// Emit implements Sink
func (s *SlogSink) Emit(e Event) {
	ctx := s.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	level := slog.LevelInfo
	if e.Level == LevelWarning {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{slog.String("stage", e.Stage)}
	if e.Column != "" {
		attrs = append(attrs, slog.String("column", e.Column))
	}
	if e.Count != 0 {
		attrs = append(attrs, slog.Int("count", e.Count))
	}
	s.Logger.LogAttrs(ctx, level, e.Message, attrs...)
}

// Recorder keeps every event in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Warnings returns the messages of warning-level events
func (r *Recorder) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Level == LevelWarning {
			out = append(out, e.Message)
		}
	}
	return out
}

// Tee fans an event out to several sinks
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(e)
			}
		}
	})
}
