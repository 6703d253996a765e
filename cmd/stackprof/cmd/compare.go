package cmd

import (
	"github.com/spf13/cobra"

	"github.com/danpilch/stackprof/pkg/store"
)

var compareCmd = &cobra.Command{
	Use:   "compare <base> <current>",
	Short: "Compares the self time shares of two saved sessions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseName, curName := args[0], args[1]
		base, err := store.Load(baseName, cfg.SessionDir)
		if err != nil {
			return err
		}
		cur, err := store.Load(curName, cfg.SessionDir)
		if err != nil {
			return err
		}
		store.RenderComparison(cmd.OutOrStdout(), baseName, curName, store.Compare(base, cur))
		return nil
	},
}
