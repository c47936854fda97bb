package main

import (
	"errors"
	"fmt"

	"github.com/iwvelando/paysplit/internal/config"
	"github.com/iwvelando/paysplit/internal/deposit"
	"github.com/iwvelando/paysplit/internal/document"
	"github.com/iwvelando/paysplit/internal/prompt"
	"github.com/iwvelando/paysplit/pkg/budget"
	"github.com/iwvelando/paysplit/pkg/output"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type allocateOptions struct {
	scale      string
	template   string
	categories map[string]string
	budget     bool
	password   string
	accumulate bool
	noSave     bool
}

func (a *app) newAllocateCmd() *cobra.Command {
	opts := &allocateOptions{}

	cmd := &cobra.Command{
		Use:   "allocate [file] [checking] [savings]",
		Short: "Split one pay statement between checking and savings",
		Long: "Split the net pay of a pay statement between checking and savings.\n" +
			"Missing arguments are taken from the configuration or asked for interactively;\n" +
			"interactive percents are entered on the 0-100 scale.",
		Args: func(_ *cobra.Command, args []string) error {
			switch len(args) {
			case 0, 1, 3:
				return nil
			case 2:
				return errors.New("a savings percent is required when a checking percent is given")
			}
			return fmt.Errorf("accepts at most 3 args, received %d", len(args))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAllocate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.scale, "scale", "", "scale of the checking and savings arguments: fraction or percent (default from config)")
	cmd.Flags().StringVar(&opts.template, "template", "", "pay stub template: auto, legacy, current or a configured name")
	cmd.Flags().StringToStringVar(&opts.categories, "category", nil, "category percents of the checking amount, e.g. --category Groceries=10,Housing=25")
	cmd.Flags().BoolVar(&opts.budget, "budget", false, "budget the checking amount across categories interactively")
	cmd.Flags().StringVar(&opts.password, "password", "", "password for an encrypted PDF statement")
	cmd.Flags().BoolVar(&opts.accumulate, "accumulate", false, "add this allocation to the balances recorded in the history")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not append the allocation to the history")
	return cmd
}

func (a *app) runAllocate(cmd *cobra.Command, args []string, opts *allocateOptions) error {
	const op = "cmd.allocate"
	ctx := cmd.Context()
	prompter := prompt.New(cmd.InOrStdin(), cmd.ErrOrStderr(), a.logger)

	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		var err error
		if path, err = prompter.Path(); err != nil {
			return err
		}
	}

	conf := *a.conf
	if opts.template != "" {
		conf.Template = opts.template
	}
	extractor, err := conf.Extractor()
	if err != nil {
		return err
	}
	engine, err := conf.Allocation.Engine()
	if err != nil {
		return err
	}

	checking, savings, err := a.percents(args, opts.scale, prompter)
	if err != nil {
		return err
	}

	var categories map[budget.Category]decimal.Decimal
	if !opts.budget {
		if len(opts.categories) > 0 {
			categories, err = config.ParseCategoryPercents(opts.categories)
		} else {
			categories, err = conf.Budget.Percents()
		}
		if err != nil {
			return err
		}
	}

	text, err := document.NewLoader(a.logger, document.WithPassword(opts.password)).Load(ctx, path)
	if err != nil {
		return err
	}

	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer a.closeHistory(store, op)

	req := deposit.Request{
		Text:            text,
		CheckingPercent: checking,
		SavingsPercent:  savings,
		Categories:      categories,
	}
	if opts.accumulate || conf.Allocation.Accumulate {
		if req.Existing, err = deposit.Seed(ctx, store); err != nil {
			return err
		}
	}

	processor, err := deposit.NewProcessor(extractor, engine, a.logger)
	if err != nil {
		return err
	}
	result, err := processor.Process(ctx, req)
	if err != nil {
		return err
	}

	if opts.budget {
		planner, err := result.Planner()
		if err != nil {
			return err
		}
		if err := prompter.Categories(planner); err != nil {
			return err
		}
		result = result.WithCategories(planner.Allocations())
	}

	if !opts.noSave {
		if err := store.Append(ctx, result.Entry()); err != nil {
			return fmt.Errorf("failed to save allocation: %w", err)
		}
		a.logger.Info("allocation saved",
			zap.String("op", op),
			zap.String("history", a.conf.History.Path),
		)
	}

	return output.Write(cmd.OutOrStdout(), a.outputFormat, result)
}

// percents resolves the checking and savings fractions from the arguments,
// then the configuration, and finally by asking.
func (a *app) percents(args []string, scale string, prompter *prompt.Prompter) (checking, savings decimal.Decimal, err error) {
	var checkingArg, savingsArg string
	if len(args) == 3 {
		checkingArg, savingsArg = args[1], args[2]
	}

	checking, savings, err = a.conf.Allocation.Resolve(checkingArg, savingsArg, scale)
	if errors.Is(err, config.ErrMissingPercent) {
		a.logger.Debug("allocation percents not configured, prompting",
			zap.String("op", "cmd.allocate"),
		)
		return prompter.Percents()
	}
	return checking, savings, err
}
