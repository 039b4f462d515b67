package config

import "time"

// Application constants
const (
	AppName = "salesprep"

	// EnvPrefix namespaces every environment override, e.g. SALESPREP_SOURCE
	EnvPrefix = "SALESPREP"

	// Source modes
	SourceLocal  = "local"
	SourceRemote = "remote"
	SourceAuto   = "auto"

	// Output formats
	FormatCSV    = "csv"
	FormatXLSX   = "xlsx"
	FormatSQLite = "sqlite"

	DefaultSource          = SourceLocal
	DefaultLocalPath       = "Data/Raw/ventas.csv"
	DefaultOutputDirectory = "Data/processed"
	DefaultOutputPrefix    = "sales_clean"
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultThresholdPct    = 50.0

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"
	DefaultLogFile   = "logs/salesprep.log"
)

// DefaultRequiredColumns are role names; the schema maps them to column names
var DefaultRequiredColumns = []string{"date", "product", "price", "units"}

// Version is overridden at build time with -ldflags "-X salesprep/internal/config.Version=..."
var Version = "dev"

// configFileLocations are searched in order when no --config flag is given
var configFileLocations = []string{
	"salesprep.yaml",
	"salesprep.yml",
	"configs/salesprep.yaml",
}
