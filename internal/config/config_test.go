package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/paysplit/pkg/constants"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paysplit.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const sampleConfig = `
template: current
templates:
  - name: acme
    fields:
      net pay: 'NET PAY: \$?([\d,]+\.\d{2})'
      direct deposit date: 'DEPOSITED (\d{2}-\d{2}-\d{4})'
allocation:
  checkingPercent: 20
  savingsPercent: 80
  percentScale: percent
  policy: sum-to-one
  accumulate: true
budget:
  categories:
    Groceries: 10
    housing: 7.5
history:
  backend: sqlite
  path: /tmp/paysplit-test.db
logging:
  level: debug
  format: json
output:
  format: csv
`

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Defaults only",
			configPath: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	config, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Template != constants.TemplateAuto {
		t.Errorf("Template = %q, expected auto", config.Template)
	}
	if config.History.Backend != constants.HistoryBackendCSV {
		t.Errorf("History.Backend = %q, expected csv", config.History.Backend)
	}
	if config.History.Path != constants.DefaultHistoryFile {
		t.Errorf("History.Path = %q, expected %s", config.History.Path, constants.DefaultHistoryFile)
	}
	if config.Output.Format != constants.OutputFormatPretty {
		t.Errorf("Output.Format = %q, expected pretty", config.Output.Format)
	}
	if config.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, expected info", config.Logging.Level)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() unexpected error = %v", err)
	}
}

func TestLoadConfigurationStructure(t *testing.T) {
	config, err := LoadConfiguration(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Template != "current" {
		t.Errorf("Template = %q, expected current", config.Template)
	}
	if len(config.Templates) != 1 || config.Templates[0].Name != "acme" {
		t.Fatalf("Templates = %+v, expected one template named acme", config.Templates)
	}
	if len(config.Templates[0].Fields) != 2 {
		t.Errorf("Templates[0].Fields = %v, expected 2 entries", config.Templates[0].Fields)
	}
	if config.Allocation.CheckingPercent != "20" {
		t.Errorf("CheckingPercent = %q, expected 20", config.Allocation.CheckingPercent)
	}
	if config.Allocation.PercentScale != "percent" {
		t.Errorf("PercentScale = %q, expected percent", config.Allocation.PercentScale)
	}
	if !config.Allocation.Accumulate {
		t.Errorf("Accumulate = false, expected true")
	}
	if len(config.Budget.Categories) != 2 {
		t.Errorf("Budget.Categories = %v, expected 2 entries", config.Budget.Categories)
	}
	if config.History.Backend != "sqlite" || config.History.Path != "/tmp/paysplit-test.db" {
		t.Errorf("History = %+v", config.History)
	}
	if config.Logging.Level != "debug" || config.Logging.Format != "json" {
		t.Errorf("Logging = %+v", config.Logging)
	}
	if config.Output.Format != "csv" {
		t.Errorf("Output.Format = %q, expected csv", config.Output.Format)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Validate() unexpected error = %v", err)
	}
}

func TestLoadConfigurationSQLiteDefaultPath(t *testing.T) {
	config, err := LoadConfiguration(writeConfig(t, "history:\n  backend: sqlite\n"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if config.History.Path != constants.DefaultHistoryDB {
		t.Errorf("History.Path = %q, expected %s", config.History.Path, constants.DefaultHistoryDB)
	}
}

func TestLoadConfigurationEnvOverride(t *testing.T) {
	t.Setenv("PAYSPLIT_ALLOCATION_CHECKINGPERCENT", "0.35")
	t.Setenv("PAYSPLIT_OUTPUT_FORMAT", "json")

	config, err := LoadConfiguration(writeConfig(t, "allocation:\n  checkingPercent: 0.2\n  savingsPercent: 0.65\n"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if config.Allocation.CheckingPercent != "0.35" {
		t.Errorf("CheckingPercent = %q, expected env override 0.35", config.Allocation.CheckingPercent)
	}
	if config.Output.Format != "json" {
		t.Errorf("Output.Format = %q, expected env override json", config.Output.Format)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(c *Configuration)
		errSubstr string
	}{
		{
			name:      "Bad output format",
			modify:    func(c *Configuration) { c.Output.Format = "yaml" },
			errSubstr: "output format",
		},
		{
			name:      "Bad backend",
			modify:    func(c *Configuration) { c.History.Backend = "postgres" },
			errSubstr: "history backend",
		},
		{
			name:      "Unknown template",
			modify:    func(c *Configuration) { c.Template = "payroll-2030" },
			errSubstr: "unknown template",
		},
		{
			name:      "Bad policy",
			modify:    func(c *Configuration) { c.Allocation.Policy = "loose" },
			errSubstr: "allocation policy",
		},
		{
			name:      "Fraction out of range",
			modify:    func(c *Configuration) { c.Allocation.CheckingPercent = "20" },
			errSubstr: "checking percent",
		},
		{
			name:      "Unknown category",
			modify:    func(c *Configuration) { c.Budget.Categories = map[string]string{"gadgets": "5"} },
			errSubstr: "invalid category",
		},
		{
			name: "Template without capture group",
			modify: func(c *Configuration) {
				c.Templates = []TemplateConfig{{Name: "broken", Fields: map[string]string{"net pay": `\d+`}}}
			},
			errSubstr: "capture group",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration("")
			if err != nil {
				t.Fatalf("LoadConfiguration() error = %v", err)
			}
			tt.modify(config)
			err = config.Validate()
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.errSubstr)
			}
			if !strings.Contains(err.Error(), tt.errSubstr) {
				t.Errorf("Validate() error = %v, expected to contain %q", err, tt.errSubstr)
			}
		})
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	tests := []struct {
		name          string
		allocation    AllocationConfig
		categories    map[string]string
		expectedCount int
		contains      string
	}{
		{
			name:          "Exact split",
			allocation:    AllocationConfig{CheckingPercent: "0.2", SavingsPercent: "0.8"},
			expectedCount: 0,
		},
		{
			name:          "Missing percents",
			allocation:    AllocationConfig{CheckingPercent: "0.2"},
			expectedCount: 1,
			contains:      "not fully configured",
		},
		{
			name:          "Under allocated",
			allocation:    AllocationConfig{CheckingPercent: "0.2", SavingsPercent: "0.7"},
			expectedCount: 1,
			contains:      "sum to 0.9",
		},
		{
			name:          "Budget above ceiling",
			allocation:    AllocationConfig{CheckingPercent: "0.2", SavingsPercent: "0.8"},
			categories:    map[string]string{"groceries": "15", "housing": "10"},
			expectedCount: 1,
			contains:      "exceeds the 20% checking ceiling",
		},
		{
			name:          "Percent scale",
			allocation:    AllocationConfig{CheckingPercent: "30", SavingsPercent: "70", PercentScale: "percent"},
			categories:    map[string]string{"groceries": "30"},
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := Configuration{
				Allocation: tt.allocation,
				Budget:     BudgetConfig{Categories: tt.categories},
				History:    HistoryConfig{Path: "bank.csv"},
			}
			warnings := conf.ValidateConfiguration()
			if len(warnings) != tt.expectedCount {
				t.Fatalf("ValidateConfiguration() = %v, expected %d warnings", warnings, tt.expectedCount)
			}
			if tt.contains != "" && !strings.Contains(warnings[0], tt.contains) {
				t.Errorf("warning %q does not contain %q", warnings[0], tt.contains)
			}
		})
	}
}
