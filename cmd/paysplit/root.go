package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/iwvelando/paysplit/internal/config"
	"github.com/iwvelando/paysplit/internal/history"
	"github.com/iwvelando/paysplit/pkg/constants"
	"github.com/iwvelando/paysplit/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the persistent flags and the state built from them before any
// subcommand runs.
type app struct {
	configPath   string
	logLevel     string
	outputFormat string

	conf   *config.Configuration
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "paysplit",
		Short: "Split pay stub net pay between checking and savings",
		Long: "Read a pay statement, split its net pay between checking and savings,\n" +
			"budget the checking share across spending categories and keep a running log.",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&a.outputFormat, "output-format", "o", "", "type of output override: pretty, csv, json")

	root.AddCommand(
		a.newAllocateCmd(),
		a.newHistoryCmd(),
		a.newChartCmd(),
		a.newServeCmd(),
	)
	return root
}

// setup loads the configuration, builds the logger and resolves the output
// format. An absent default config file means defaults and environment only.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	path := a.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", a.configPath, err)
	}

	logger, err := initializeLogger(conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if a.outputFormat == "" {
		a.outputFormat = conf.Output.Format
	}
	if a.outputFormat == "" {
		a.outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(a.outputFormat); err != nil {
		return err
	}

	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "cmd.setup"),
		)
	}

	a.conf = conf
	a.logger = logger
	logger.Debug("configuration loaded",
		zap.String("op", "cmd.setup"),
		zap.String("config", path),
		zap.String("history_backend", conf.History.Backend),
		zap.String("history_path", conf.History.Path),
	)
	return nil
}

// openHistory opens the configured allocation log.
func (a *app) openHistory() (history.Store, error) {
	store, err := history.Open(a.conf.History.Backend, a.conf.History.Path, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s history at %s: %w", a.conf.History.Backend, a.conf.History.Path, err)
	}
	return store, nil
}

// closeHistory closes store, logging rather than returning a failure.
func (a *app) closeHistory(store history.Store, op string) {
	if err := store.Close(); err != nil {
		a.logger.Warn("failed to close history",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}
