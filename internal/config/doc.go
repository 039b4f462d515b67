// Package config loads and validates the salesprep pipeline configuration.
//
// # Configuration Sources
//
// Values are layered in order of increasing precedence:
//
//  1. Built-in defaults (Default)
//  2. A YAML file passed with --config, or salesprep.yaml in the working directory
//  3. Environment variables prefixed with SALESPREP_
//  4. Command-line flags, applied by cmd/salesprep
//
// # Environment Variables
//
//	SALESPREP_SOURCE=remote
//	SALESPREP_REMOTE_URL=https://example.com/ventas.csv
//	SALESPREP_REQUIRED_COLUMNS=date,product,price,units
//	SALESPREP_COLUMNS=date:fecha,price:precio
//	SALESPREP_OUTPUT_FORMAT=sqlite
//	SALESPREP_LOG_LEVEL=debug
//
// # Validation
//
// Load does not validate, so flags can still fill in missing values.
// Call Validate once every layer has been applied; it reports all
// violations in a single error using YAML key names.
package config
