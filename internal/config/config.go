// Package config defines the data structures related to configuration and
// includes functions for loading, validating and converting the config.
package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/paysplit/pkg/constants"
	"github.com/iwvelando/paysplit/pkg/validation"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for paysplit.
type Configuration struct {
	Template   string           `yaml:"template,omitempty"`
	Templates  []TemplateConfig `yaml:"templates,omitempty"`
	Allocation AllocationConfig `yaml:"allocation,omitempty"`
	Budget     BudgetConfig     `yaml:"budget,omitempty"`
	History    HistoryConfig    `yaml:"history,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
}

// TemplateConfig describes a custom pay stub layout. Fields maps a field name
// to a regular expression with exactly one capture group.
type TemplateConfig struct {
	Name   string            `yaml:"name"`
	Fields map[string]string `yaml:"fields"`
}

// AllocationConfig holds the default checking/savings split. Percents are kept
// as strings so they convert to decimals without passing through float64.
type AllocationConfig struct {
	CheckingPercent string `yaml:"checkingPercent,omitempty"`
	SavingsPercent  string `yaml:"savingsPercent,omitempty"`
	PercentScale    string `yaml:"percentScale,omitempty"` // fraction, percent
	Policy          string `yaml:"policy,omitempty"`       // independent, sum-to-one
	Accumulate      bool   `yaml:"accumulate,omitempty"`
}

// BudgetConfig holds default category percents of the checking amount, on the
// 0-100 scale.
type BudgetConfig struct {
	Categories map[string]string `yaml:"categories,omitempty"`
}

// HistoryConfig selects where allocation rows are persisted.
type HistoryConfig struct {
	Backend string `yaml:"backend,omitempty"` // csv, sqlite
	Path    string `yaml:"path,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("template", constants.TemplateAuto)
	v.SetDefault("allocation.checkingPercent", "")
	v.SetDefault("allocation.savingsPercent", "")
	v.SetDefault("allocation.percentScale", "fraction")
	v.SetDefault("allocation.policy", "independent")
	v.SetDefault("allocation.accumulate", false)
	v.SetDefault("history.backend", constants.HistoryBackendCSV)
	v.SetDefault("history.path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path loads only defaults and environment
// overrides. Environment variables use the PAYSPLIT_ prefix with dots
// replaced by underscores, e.g. PAYSPLIT_ALLOCATION_CHECKINGPERCENT.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if configuration.History.Path == "" {
		configuration.History.Path = DefaultHistoryPath(configuration.History.Backend)
	}

	return &configuration, nil
}

// DefaultHistoryPath returns the default storage location for a backend.
func DefaultHistoryPath(backend string) string {
	if backend == constants.HistoryBackendSQLite {
		return constants.DefaultHistoryDB
	}
	return constants.DefaultHistoryFile
}

// Validate reports configuration errors that make the config unusable.
func (c *Configuration) Validate() error {
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	if err := validation.ValidateHistoryBackend(c.History.Backend); err != nil {
		return err
	}
	if _, err := c.Extractor(); err != nil {
		return err
	}
	if _, err := c.Allocation.Engine(); err != nil {
		return err
	}
	if _, _, err := c.Allocation.Fractions(); err != nil {
		return err
	}
	if _, err := c.Budget.Percents(); err != nil {
		return err
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings for settings that are allowed but probably unintended.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	checking, savings, err := c.Allocation.Fractions()
	if err != nil {
		return []string{err.Error()}
	}

	if !checking.Valid || !savings.Valid {
		warnings = append(warnings, "allocation percents are not fully configured; they must be given on the command line or at the prompt")
	} else if sum := checking.Decimal.Add(savings.Decimal); !sum.Equal(decimal.NewFromInt(1)) {
		warnings = append(warnings, fmt.Sprintf("checking and savings percents sum to %s rather than 1; %s of net pay is left unallocated",
			sum, decimal.NewFromInt(1).Sub(sum)))
	}

	percents, err := c.Budget.Percents()
	if err != nil {
		return append(warnings, err.Error())
	}
	if len(percents) > 0 && checking.Valid {
		total := decimal.Zero
		for _, pct := range percents {
			total = total.Add(pct)
		}
		ceiling := checking.Decimal.Mul(decimal.NewFromInt(constants.PercentageMultiplier))
		if total.GreaterThan(ceiling) {
			warnings = append(warnings, fmt.Sprintf("budget categories total %s%% which exceeds the %s%% checking ceiling",
				total, ceiling))
		}
	}

	if c.Allocation.Accumulate && c.History.Path == "" {
		warnings = append(warnings, "allocation.accumulate is set but no history path is configured")
	}

	if len(warnings) == 0 {
		return nil
	}
	return warnings
}
