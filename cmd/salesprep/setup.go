package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"salesprep/internal/config"
	apperrors "salesprep/internal/errors"
	"salesprep/internal/infrastructure"
)

// sourceFlags are the dataset flags shared by every data command
type sourceFlags struct {
	source      string
	localPath   string
	remoteURL   string
	delimiter   string
	schema      string
	required    []string
	interactive bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.source, "source", "", "Data source: local, remote or auto")
	fl.StringVar(&f.localPath, "local-path", "", "Path of the local CSV or XLSX file")
	fl.StringVar(&f.remoteURL, "remote-url", "", "URL of the remote CSV file")
	fl.StringVar(&f.delimiter, "delimiter", "", "Field delimiter (default: detect)")
	fl.StringVar(&f.schema, "schema", "", "Column name preset: english or spanish")
	fl.StringSliceVar(&f.required, "required", nil, "Required columns or roles, comma separated; an existing column name wins over a role")
	fl.BoolVarP(&f.interactive, "interactive", "i", false, "Ask for the data source on stdin")
}

func (f *sourceFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("source") {
		cfg.Source = f.source
	}
	if fl.Changed("local-path") {
		cfg.LocalPath = f.localPath
	}
	if fl.Changed("remote-url") {
		cfg.RemoteURL = f.remoteURL
	}
	if fl.Changed("delimiter") {
		cfg.Delimiter = f.delimiter
	}
	if fl.Changed("schema") {
		cfg.SchemaPreset = f.schema
	}
	if fl.Changed("required") {
		cfg.RequiredColumns = f.required
	}
}

// loadConfig layers defaults, file, environment and flags, then validates
// and starts logging. mutate applies command specific flags.
func (c *cli) loadConfig(cmd *cobra.Command, src *sourceFlags, mutate func(*config.Config)) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, apperrors.NewConfigError("failed to load configuration", err)
	}
	src.apply(cmd, cfg)
	if mutate != nil {
		mutate(cfg)
	}

	if src.interactive {
		choice, err := promptSource(c.stdin, c.stderr)
		if err != nil {
			return nil, nil, err
		}
		cfg.Source = choice
		if choice == config.SourceRemote && cfg.RemoteURL == "" {
			url, err := promptLine(c.stdin, c.stderr, "Remote URL: ")
			if err != nil {
				return nil, nil, err
			}
			cfg.RemoteURL = url
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, apperrors.NewConfigError("configuration is invalid", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, nil, apperrors.NewConfigError("failed to initialize logging", err)
	}
	switch {
	case c.verbose:
		infrastructure.SetLevel("debug")
	case c.quiet:
		infrastructure.SetLevel("error")
	}
	return cfg, logger, nil
}

func promptLine(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", apperrors.NewConfigError("no answer on stdin", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSource asks which source to load from
func promptSource(in *bufio.Reader, out io.Writer) (string, error) {
	fmt.Fprintln(out, "Select the data source:")
	fmt.Fprintln(out, "  1) local file")
	fmt.Fprintln(out, "  2) remote URL")
	answer, err := promptLine(in, out, "Choice [1/2]: ")
	if err != nil {
		return "", err
	}
	switch strings.ToLower(answer) {
	case "1", "local":
		return config.SourceLocal, nil
	case "2", "remote":
		return config.SourceRemote, nil
	default:
		return "", apperrors.NewConfigError(fmt.Sprintf("invalid source choice %q", answer), nil)
	}
}
