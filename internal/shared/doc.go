// Package shared holds helpers used by more than one package. Its testutil
// subpackage provides a buffered slog handler for asserting on log output.
package shared
