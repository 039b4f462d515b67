package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration
type Config struct {
	Source          string            `yaml:"source" validate:"required,oneof=local remote auto"`
	LocalPath       string            `yaml:"local_path" validate:"required_if=Source local"`
	RemoteURL       string            `yaml:"remote_url" validate:"required_if=Source remote,omitempty,url"`
	OutputDirectory string            `yaml:"output_directory" validate:"required"`
	RequiredColumns []string          `yaml:"required_columns" validate:"dive,required"`
	Delimiter       string            `yaml:"delimiter" validate:"omitempty,len=1"`
	SchemaPreset    string            `yaml:"schema_preset" validate:"omitempty,oneof=english spanish"`
	Columns         map[string]string `yaml:"columns" validate:"dive,keys,oneof=date product price units customer total,endkeys,required"`
	HTTPTimeout     time.Duration     `yaml:"http_timeout" validate:"gte=0"`

	Output    OutputConfig    `yaml:"output"`
	Quality   QualityConfig   `yaml:"quality"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// OutputConfig controls what the writer produces
type OutputConfig struct {
	Format string `yaml:"format" validate:"oneof=csv xlsx sqlite"`
	Report bool   `yaml:"report"`
	Chart  bool   `yaml:"chart"`
	BOM    bool   `yaml:"bom"`
	Prefix string `yaml:"prefix" validate:"required,excludesall=/\\"`
}

// QualityConfig holds the acceptance thresholds
type QualityConfig struct {
	FailWhenUnacceptable    bool    `yaml:"fail_when_unacceptable"`
	NullThresholdPct        float64 `yaml:"null_threshold_pct" validate:"gte=0,lte=100"`
	InvalidDateThresholdPct float64 `yaml:"invalid_date_threshold_pct" validate:"gte=0,lte=100"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" validate:"oneof=json text"`
	Output   string `yaml:"output" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" validate:"required_unless=Output console"`
}

// TelemetryConfig enables tracing and the metrics textfile
type TelemetryConfig struct {
	Tracing     bool   `yaml:"tracing"`
	TraceFile   string `yaml:"trace_file"`
	MetricsFile string `yaml:"metrics_file"`
}

// envOverrides mirrors the settable environment variables. Only variables
// that are actually set override file values, so nothing here has a default.
type envOverrides struct {
	Source          string            `envconfig:"SOURCE"`
	LocalPath       string            `envconfig:"LOCAL_PATH"`
	RemoteURL       string            `envconfig:"REMOTE_URL"`
	OutputDirectory string            `envconfig:"OUTPUT_DIRECTORY"`
	RequiredColumns []string          `envconfig:"REQUIRED_COLUMNS"`
	Delimiter       string            `envconfig:"DELIMITER"`
	SchemaPreset    string            `envconfig:"SCHEMA_PRESET"`
	Columns         map[string]string `envconfig:"COLUMNS"`
	HTTPTimeout     *time.Duration    `envconfig:"HTTP_TIMEOUT"`

	OutputFormat string `envconfig:"OUTPUT_FORMAT"`
	OutputReport *bool  `envconfig:"OUTPUT_REPORT"`
	OutputChart  *bool  `envconfig:"OUTPUT_CHART"`
	OutputBOM    *bool  `envconfig:"OUTPUT_BOM"`
	OutputPrefix string `envconfig:"OUTPUT_PREFIX"`

	FailWhenUnacceptable    *bool    `envconfig:"QUALITY_FAIL_WHEN_UNACCEPTABLE"`
	NullThresholdPct        *float64 `envconfig:"QUALITY_NULL_THRESHOLD_PCT"`
	InvalidDateThresholdPct *float64 `envconfig:"QUALITY_INVALID_DATE_THRESHOLD_PCT"`

	LogLevel    string `envconfig:"LOG_LEVEL"`
	LogFormat   string `envconfig:"LOG_FORMAT"`
	LogOutput   string `envconfig:"LOG_OUTPUT"`
	LogFilePath string `envconfig:"LOG_FILE_PATH"`

	Tracing     *bool  `envconfig:"TELEMETRY_TRACING"`
	TraceFile   string `envconfig:"TELEMETRY_TRACE_FILE"`
	MetricsFile string `envconfig:"TELEMETRY_METRICS_FILE"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Source:          DefaultSource,
		LocalPath:       DefaultLocalPath,
		OutputDirectory: DefaultOutputDirectory,
		RequiredColumns: append([]string(nil), DefaultRequiredColumns...),
		SchemaPreset:    "english",
		HTTPTimeout:     DefaultHTTPTimeout,
		Output: OutputConfig{
			Format: FormatCSV,
			Report: true,
			Prefix: DefaultOutputPrefix,
		},
		Quality: QualityConfig{
			NullThresholdPct:        DefaultThresholdPct,
			InvalidDateThresholdPct: DefaultThresholdPct,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFile,
		},
	}
}

// Load builds a configuration from defaults, the YAML file at path (or the
// first file found in the default locations when path is empty) and
// SALESPREP_* environment variables, in increasing precedence. The result is
// not validated: callers apply flag overrides first and then call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	mergeEnv(cfg, env)

	return cfg, nil
}

// loadFromFile decodes YAML over the existing values in cfg. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// mergeEnv copies every set environment override onto cfg
func mergeEnv(cfg *Config, env envOverrides) {
	setString(&cfg.Source, env.Source)
	setString(&cfg.LocalPath, env.LocalPath)
	setString(&cfg.RemoteURL, env.RemoteURL)
	setString(&cfg.OutputDirectory, env.OutputDirectory)
	setString(&cfg.Delimiter, env.Delimiter)
	setString(&cfg.SchemaPreset, env.SchemaPreset)
	if len(env.RequiredColumns) > 0 {
		cfg.RequiredColumns = env.RequiredColumns
	}
	if len(env.Columns) > 0 {
		if cfg.Columns == nil {
			cfg.Columns = make(map[string]string, len(env.Columns))
		}
		for k, v := range env.Columns {
			cfg.Columns[k] = v
		}
	}
	if env.HTTPTimeout != nil {
		cfg.HTTPTimeout = *env.HTTPTimeout
	}

	setString(&cfg.Output.Format, env.OutputFormat)
	setString(&cfg.Output.Prefix, env.OutputPrefix)
	setBool(&cfg.Output.Report, env.OutputReport)
	setBool(&cfg.Output.Chart, env.OutputChart)
	setBool(&cfg.Output.BOM, env.OutputBOM)

	setBool(&cfg.Quality.FailWhenUnacceptable, env.FailWhenUnacceptable)
	if env.NullThresholdPct != nil {
		cfg.Quality.NullThresholdPct = *env.NullThresholdPct
	}
	if env.InvalidDateThresholdPct != nil {
		cfg.Quality.InvalidDateThresholdPct = *env.InvalidDateThresholdPct
	}

	setString(&cfg.Logging.Level, env.LogLevel)
	setString(&cfg.Logging.Format, env.LogFormat)
	setString(&cfg.Logging.Output, env.LogOutput)
	setString(&cfg.Logging.FilePath, env.LogFilePath)

	setBool(&cfg.Telemetry.Tracing, env.Tracing)
	setString(&cfg.Telemetry.TraceFile, env.TraceFile)
	setString(&cfg.Telemetry.MetricsFile, env.MetricsFile)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// findConfigFile returns the first existing default config file, or ""
func findConfigFile() string {
	for _, location := range configFileLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report YAML key names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct constraints and cross-field rules. All violations
// are reported together.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, formatFieldError(fe))
		}
	}

	if c.Source == SourceAuto && c.LocalPath == "" && c.RemoteURL == "" {
		problems = append(problems, "source auto needs local_path or remote_url")
	}
	if c.RemoteURL != "" && !strings.HasPrefix(c.RemoteURL, "http://") && !strings.HasPrefix(c.RemoteURL, "https://") {
		problems = append(problems, "remote_url must use http or https")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// formatFieldError renders a validation failure in terms of config keys
func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, strings.Replace(fe.Param(), " ", " is ", 1))
	case "required_unless":
		return fmt.Sprintf("%s is required unless %s", field, strings.Replace(fe.Param(), " ", " is ", 1))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "len":
		return fmt.Sprintf("%s must be exactly %s character", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// DelimiterRune returns the configured delimiter, or 0 to auto-detect
func (c *Config) DelimiterRune() rune {
	if c.Delimiter == "" {
		return 0
	}
	return []rune(c.Delimiter)[0]
}
