// Package files holds output directory housekeeping for the CLI: cleaning the
// previous run's outputs and finding the latest processed file.
package files
