package main

import (
	"github.com/iwvelando/paysplit/pkg/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the recorded allocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const op = "cmd.history"
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer a.closeHistory(store, op)

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Debug("history loaded",
				zap.String("op", op),
				zap.Int("entries", len(entries)),
			)
			return output.WriteHistory(cmd.OutOrStdout(), a.outputFormat, entries)
		},
	}
}
