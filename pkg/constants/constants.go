// Package constants provides shared constants for the paysplit application.
package constants

// DepositDateLayout is the direct deposit date format printed on pay stubs and
// is also the date format written to the history log.
const DepositDateLayout = "01-02-2006"

// LegacyDepositDateLayout is the slash-separated form used by older stubs.
const LegacyDepositDateLayout = "01/02/2006"

// Financial constants
const (
	// DecimalPlaces is the number of places money is rounded to
	DecimalPlaces = 2
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100
)

// Account names used as keys in allocation balances.
const (
	// AccountChecking is the checking account key
	AccountChecking = "checking"
	// AccountSavings is the savings account key
	AccountSavings = "savings"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"
	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Template selection constants
const (
	// TemplateAuto picks the template that best matches the document
	TemplateAuto = "auto"
	// TemplateLegacy is the older line-per-value statement layout
	TemplateLegacy = "legacy"
	// TemplateCurrent is the columnar CURRENT / YTD statement layout
	TemplateCurrent = "current"
)

// History backend constants
const (
	// HistoryBackendCSV stores allocation rows in an append-only CSV file
	HistoryBackendCSV = "csv"
	// HistoryBackendSQLite stores allocation rows in a SQLite database
	HistoryBackendSQLite = "sqlite"
	// DefaultHistoryFile is the default CSV history location
	DefaultHistoryFile = "bank.csv"
	// DefaultHistoryDB is the default SQLite history location
	DefaultHistoryDB = "paysplit.db"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "paysplit.yaml"
	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "PAYSPLIT"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"
	// DefaultMaxUploadSizeBytes is the default maximum pay stub upload size (2 MB)
	DefaultMaxUploadSizeBytes int64 = 2 * 1024 * 1024
)

// Report defaults
const (
	// DefaultRecentRows is the number of pay stubs shown in the recent income chart
	DefaultRecentRows = 10
	// DefaultChartWidth is the width in cells of rendered bar charts
	DefaultChartWidth = 40
)
