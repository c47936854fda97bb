package main

import (
	"fmt"

	"github.com/iwvelando/paysplit/internal/report"
	"github.com/iwvelando/paysplit/pkg/constants"
	"github.com/spf13/cobra"
)

// Chart kinds accepted by the chart command.
const (
	chartIncome     = "income"
	chartSavings    = "savings"
	chartCategories = "categories"
)

func (a *app) newChartCmd() *cobra.Command {
	var rows, width int

	cmd := &cobra.Command{
		Use:       "chart income|savings|categories",
		Short:     "Chart the recorded allocations",
		Long:      "income: net pay of the most recent pay periods\nsavings: running total saved\ncategories: mean category percents per deposit date",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{chartIncome, chartSavings, chartCategories},
		RunE: func(cmd *cobra.Command, args []string) error {
			const op = "cmd.chart"
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer a.closeHistory(store, op)

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch args[0] {
			case chartIncome:
				return report.IncomeChart(out, report.RecentIncome(entries, rows), width)
			case chartSavings:
				return report.SavingsChart(out, report.TotalSaved(entries), width)
			case chartCategories:
				return report.CategoryTable(out, report.CompareCategoryAllocations(entries))
			}
			return fmt.Errorf("expected chart of %s, %s or %s, got %s", chartIncome, chartSavings, chartCategories, args[0])
		},
	}

	cmd.Flags().IntVar(&rows, "rows", constants.DefaultRecentRows, "number of recent pay periods in the income chart")
	cmd.Flags().IntVar(&width, "width", constants.DefaultChartWidth, "bar width in characters")
	return cmd
}
