// Package pipeline runs the sales cleaning flow end to end:
//
//	Load → ValidateSchema → Assess (before) → Clean → Assess (after) →
//	Derive → ValidateAfterCleaning → Write → Chart
//
// Control flow is strictly linear. The first stage that fails ends the run
// and its error is returned unchanged; nothing is retried. Each stage runs in
// its own span and records its duration in the stage metrics.
package pipeline
