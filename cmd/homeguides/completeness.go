package main

import (
	"github.com/spf13/cobra"

	"homeguides/server/internal/completeness"
)

var completenessCmd = &cobra.Command{
	Use:   "completeness",
	Short: "Print the per-home completeness report",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		svc := completeness.NewService(db, logger)
		reports, err := svc.ComputeAll(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(reports)
	},
}

func init() {
	rootCmd.AddCommand(completenessCmd)
}
