package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"salesprep/internal/config"
	apperrors "salesprep/internal/errors"
	"salesprep/internal/files"
	"salesprep/internal/pipeline"
	"salesprep/internal/profile"
)

func (c *cli) describeCommand() *cobra.Command {
	src := &sourceFlags{}
	var (
		latest    bool
		outputDir string
		asJSON    bool
		head      int
	)
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print summary statistics of a dataset",
		Long: `Print count, mean, spread and quartiles of numeric columns and the most
frequent values of the others.

With --latest the newest CSV or XLSX output in the output directory is
described instead of the configured source. --head N also prints the first
N rows.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := c.loadConfig(cmd, src, func(cfg *config.Config) {
				if cmd.Flags().Changed("output-dir") {
					cfg.OutputDirectory = outputDir
				}
			})
			if err != nil {
				return err
			}

			if latest {
				if err := useLatestOutput(cfg); err != nil {
					return err
				}
			}

			t, origin, err := pipeline.NewRunner(cfg, logger, nil).Load(ctx)
			if err != nil {
				logFailure(ctx, logger, "describe", err)
				return err
			}

			p := profile.Describe(t)
			if asJSON {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			fmt.Fprintf(c.stdout, "Source: %s\n", origin)
			if err := profile.Render(c.stdout, p); err != nil {
				return err
			}
			if head > 0 {
				fmt.Fprintf(c.stdout, "\nFirst %d rows:\n", min(head, t.NumRows()))
				return profile.RenderHead(c.stdout, t, head)
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().BoolVar(&latest, "latest", false, "Describe the newest processed output")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory searched by --latest")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	cmd.Flags().IntVar(&head, "head", 0, "Also print the first N rows (text output only)")
	return cmd
}

// useLatestOutput points cfg at the newest readable output file
func useLatestOutput(cfg *config.Config) error {
	outputs, err := files.FindOutputs(cfg.OutputDirectory, cfg.Output.Prefix)
	if err != nil {
		return apperrors.NewFileLoadError("cannot list processed outputs", err)
	}
	var readable []files.FileInfo
	for _, f := range outputs {
		if ext := strings.ToLower(filepath.Ext(f.Name)); ext == ".csv" || ext == ".xlsx" {
			readable = append(readable, f)
		}
	}
	latest, ok := files.GetLatestFile(readable)
	if !ok {
		return apperrors.NewFileLoadError(
			fmt.Sprintf("no %s_* CSV or XLSX output in %s", cfg.Output.Prefix, cfg.OutputDirectory), nil)
	}
	cfg.Source = config.SourceLocal
	cfg.LocalPath = latest.Path
	return nil
}
