// Package main provides the salesprep CLI: load, clean, enrich and write a
// sales dataset.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	apperrors "salesprep/internal/errors"
	"salesprep/internal/infrastructure"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitConfigError     = 2
	ExitRuntimeError    = 3
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli holds the streams and global flags of one invocation
type cli struct {
	stdin  *bufio.Reader
	stdout io.Writer
	stderr io.Writer

	verbose    bool
	quiet      bool
	configPath string
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: bufio.NewReader(stdin), stdout: stdout, stderr: stderr}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	defer infrastructure.CloseLogFile()
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	c.printError(err)
	return exitCode(err)
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "salesprep",
		Short: "salesprep - sales data cleaning pipeline",
		Long: `salesprep loads a sales dataset from a local file or a URL, validates it,
cleans dates, duplicates, missing values and negative amounts, derives
temporal, monetary, product and customer features, and writes the result
as a timestamped CSV, XLSX or SQLite file with an optional quality report.

Examples:
  # Clean the default dataset
  salesprep run

  # Clean a remote file into SQLite
  salesprep run --source remote --remote-url https://example.com/ventas.csv --format sqlite

  # Check a file without writing anything
  salesprep validate --local-path Data/Raw/ventas.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "Suppress non-error output")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to a YAML configuration file")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.NewConfigError("invalid flags", err)
	})

	root.AddCommand(c.runCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.describeCommand())
	root.AddCommand(c.versionCommand())
	return root
}

// exitCode maps the error taxonomy onto process exit codes
func exitCode(err error) int {
	switch apperrors.TypeOf(err) {
	case "":
		return ExitRuntimeError
	case apperrors.ErrTypeSchema, apperrors.ErrTypeEmptyData, apperrors.ErrTypeQuality:
		return ExitValidationError
	case apperrors.ErrTypeConfig:
		return ExitConfigError
	default:
		return ExitRuntimeError
	}
}

// printError writes the user-facing failure message
func (c *cli) printError(err error) {
	var schemaErr *apperrors.SchemaValidationError
	var qualityErr *apperrors.DataQualityError

	switch {
	case errors.As(err, &schemaErr):
		fmt.Fprintln(c.stderr, "✗ Schema validation failed")
		fmt.Fprintf(c.stderr, "  Missing columns: %v\n", schemaErr.MissingColumns)
	case errors.As(err, &qualityErr):
		fmt.Fprintln(c.stderr, "✗ Data quality below the acceptance threshold")
		keys := make([]string, 0, len(qualityErr.Issues))
		for k := range qualityErr.Issues {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(c.stderr, "  %s: %.1f\n", k, qualityErr.Issues[k])
		}
	default:
		fmt.Fprintf(c.stderr, "✗ %v\n", err)
	}

	if !c.quiet && !c.verbose {
		fmt.Fprintln(c.stderr, "\nHint: Use --verbose for detailed logs")
	}
}

// logFailure records a failed command in the structured log
func logFailure(ctx context.Context, logger *slog.Logger, command string, err error) {
	logger.ErrorContext(ctx, "Command failed",
		slog.String("command", command),
		slog.String("error_type", string(apperrors.TypeOf(err))),
		slog.String("error", err.Error()))
}
