package progress

import (
	"fmt"
	"sync"
	"time"
)

// StageTracker counts completed pipeline stages
type StageTracker struct {
	Total     int
	Current   int
	Stage     string
	StartTime time.Time
	mu        sync.Mutex
}

// NewStageTracker creates a tracker for total stages
func NewStageTracker(total int) *StageTracker {
	return &StageTracker{
		Total:     total,
		StartTime: time.Now(),
	}
}

// Advance records that stage has completed
func (p *StageTracker) Advance(stage string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Current++
	p.Stage = stage
}

// Progress returns the current state
func (p *StageTracker) Progress() (current, total int, percentage float64, stage string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Total > 0 {
		percentage = float64(p.Current) / float64(p.Total) * 100
	}
	return p.Current, p.Total, percentage, p.Stage
}

// Elapsed returns a formatted elapsed time string
func (p *StageTracker) Elapsed() string {
	elapsed := time.Since(p.StartTime)

	switch {
	case elapsed < time.Second:
		return fmt.Sprintf("%d ms", elapsed.Milliseconds())
	case elapsed < time.Minute:
		return fmt.Sprintf("%.1f seconds", elapsed.Seconds())
	default:
		return fmt.Sprintf("%.1f minutes", elapsed.Minutes())
	}
}
