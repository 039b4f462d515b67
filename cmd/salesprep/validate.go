package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"salesprep/internal/pipeline"
	"salesprep/internal/validation"
)

func (c *cli) validateCommand() *cobra.Command {
	src := &sourceFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check schema and data quality without writing",
		Long: `Load the configured dataset, check the required columns and print its
quality report. Nothing is cleaned or written.

Exit codes:
  0 - Schema present and quality acceptable
  1 - Missing columns, empty data or unacceptable quality
  2 - Configuration error
  3 - Load failure`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := c.loadConfig(cmd, src, nil)
			if err != nil {
				return err
			}

			res, err := pipeline.NewRunner(cfg, logger, nil).Validate(ctx)
			if err != nil {
				logFailure(ctx, logger, "validate", err)
				return err
			}
			if !c.quiet {
				c.printQuality(res)
			}
			if err := res.Before.Err(); err != nil {
				logFailure(ctx, logger, "validate", err)
				return err
			}
			return nil
		},
	}
	src.register(cmd)
	return cmd
}

func (c *cli) printQuality(res *pipeline.Result) {
	out := c.stdout
	r := res.Before
	fmt.Fprintf(out, "Source:  %s\n", res.Origin)
	fmt.Fprintf(out, "Rows:    %d, columns: %d\n", r.TotalRows, r.TotalColumns)
	fmt.Fprintf(out, "Duplicates: %d\n", r.DuplicateRows)
	if r.InvalidDates > 0 {
		fmt.Fprintf(out, "Invalid dates: %d (%.1f%%)\n", r.InvalidDates, r.InvalidDatePct)
	}
	c.printNulls(res.Table.Names(), r)
	for _, w := range r.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
	if r.IsAcceptable {
		fmt.Fprintln(out, "✓ Data quality is acceptable")
	} else {
		fmt.Fprintln(out, "✗ Data quality is not acceptable")
	}
}

// printNulls lists columns with missing cells in column order
func (c *cli) printNulls(names []string, r *validation.QualityReport) {
	first := true
	for _, name := range names {
		n := r.NullCounts[name]
		if n == 0 {
			continue
		}
		if first {
			fmt.Fprintln(c.stdout, "Null values:")
			first = false
		}
		fmt.Fprintf(c.stdout, "  %s: %d\n", name, n)
	}
}
