package main

import (
	"github.com/spf13/cobra"

	"homeguides/server/internal/reconcile"
)

var consolidateFlags struct {
	dryRun      bool
	limitGroups int
}

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Merge duplicate catalog rows",
}

var consolidateAmenitiesCmd = &cobra.Command{
	Use:   "amenities",
	Short: "Merge semantically identical amenities onto one canonical row",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		c := reconcile.NewConsolidator(db, logger)
		res, err := c.Run(cmd.Context(), reconcile.ConsolidateOptions{
			DryRun:      consolidateFlags.dryRun,
			LimitGroups: consolidateFlags.limitGroups,
		})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	consolidateAmenitiesCmd.Flags().BoolVar(&consolidateFlags.dryRun, "dry-run", false, "report planned merges without writing")
	consolidateAmenitiesCmd.Flags().IntVar(&consolidateFlags.limitGroups, "limit-groups", 0, "merge at most N duplicate groups (0 = all)")
	consolidateCmd.AddCommand(consolidateAmenitiesCmd)
	rootCmd.AddCommand(consolidateCmd)
}
