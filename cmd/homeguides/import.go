package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"homeguides/server/internal/airtable"
	"homeguides/server/internal/importer"
	"homeguides/server/internal/storage"
)

var importFlags struct {
	base          string
	table         string
	view          string
	update        bool
	dryRun        bool
	limit         int
	strict        bool
	report        bool
	categoryField string
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import one Airtable table into the catalog",
}

func init() {
	pf := importCmd.PersistentFlags()
	pf.StringVar(&importFlags.base, "base", "", "Airtable base id (defaults per table from env)")
	pf.StringVar(&importFlags.table, "table", "", "Airtable table id or name")
	pf.StringVar(&importFlags.view, "view", "", "Airtable view")
	pf.BoolVar(&importFlags.update, "update", false, "update mutable fields of existing rows")
	pf.BoolVar(&importFlags.dryRun, "dry-run", false, "count without writing")
	pf.IntVar(&importFlags.limit, "limit", 0, "stop after N records (0 = all)")

	importCmd.AddCommand(
		importJob("homes", "Upsert homes and their main images", func() (string, string, string) {
			return cfg.Airtable.HomesBase, cfg.Airtable.HomesTable, cfg.Airtable.HomesView
		}, func(ctx context.Context, imp *importer.Importer, opts importer.Options) (any, error) {
			return imp.ImportHomes(ctx, opts)
		}),
		importJob("categories", "Get-or-create category names", func() (string, string, string) {
			return cfg.Airtable.BasicBase, cfg.Airtable.CategoriesTable, cfg.Airtable.CategoriesView
		}, func(ctx context.Context, imp *importer.Importer, opts importer.Options) (any, error) {
			opts.CategoryField = importFlags.categoryField
			return imp.ImportCategories(ctx, opts)
		}),
		importJob("amenities", "Upsert amenities on the 5-field identity", func() (string, string, string) {
			return cfg.Airtable.BasicBase, cfg.Airtable.AmenitiesTable, cfg.Airtable.AmenitiesView
		}, func(ctx context.Context, imp *importer.Importer, opts importer.Options) (any, error) {
			return imp.ImportAmenities(ctx, opts)
		}),
		importJob("guides", "Upsert appliance guides and link them to homes", func() (string, string, string) {
			return cfg.Airtable.BasicBase, cfg.Airtable.GuidesTable, cfg.Airtable.GuidesView
		}, func(ctx context.Context, imp *importer.Importer, opts importer.Options) (any, error) {
			return imp.ImportGuides(ctx, opts)
		}),
		importJob("inventory", "Reconcile inventory rows onto canonical homes and amenities", func() (string, string, string) {
			return cfg.Airtable.BasicBase, cfg.Airtable.InventoryTable, cfg.Airtable.InventoryView
		}, func(ctx context.Context, imp *importer.Importer, opts importer.Options) (any, error) {
			opts.Strict = importFlags.strict
			opts.Report = importFlags.report
			return imp.ImportInventory(ctx, opts)
		}),
		importJob("styling", "Import room styling guides and playbooks", func() (string, string, string) {
			return cfg.Airtable.BasicBase, cfg.Airtable.StylingTable, cfg.Airtable.StylingView
		}, func(ctx context.Context, imp *importer.Importer, opts importer.Options) (any, error) {
			return imp.ImportStyling(ctx, opts)
		}),
		importJob("room-types", "Classify room names and create the room-type rows", func() (string, string, string) {
			return cfg.Airtable.BasicBase, cfg.Airtable.StylingTable, cfg.Airtable.StylingView
		}, func(ctx context.Context, imp *importer.Importer, opts importer.Options) (any, error) {
			return imp.ImportRoomTypes(ctx, opts)
		}),
	)

	for _, sub := range importCmd.Commands() {
		switch sub.Use {
		case "inventory":
			sub.Flags().BoolVar(&importFlags.strict, "strict", false, "disable the name-only amenity fallback")
			sub.Flags().BoolVar(&importFlags.report, "report", false, "add tuple-duplicate statistics to the result")
		case "categories":
			sub.Flags().StringVar(&importFlags.categoryField, "field", "category", "source column for category names")
		}
	}

	rootCmd.AddCommand(importCmd)
}

type jobFunc func(ctx context.Context, imp *importer.Importer, opts importer.Options) (any, error)

// importJob builds one import subcommand. defaults supplies the per-table
// env configuration; explicit flags override it.
func importJob(name, short string, defaults func() (base, table, view string), run jobFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}

			opts := importer.Options{
				Base:           importFlags.base,
				Table:          importFlags.table,
				View:           importFlags.view,
				UpdateExisting: importFlags.update,
				DryRun:         importFlags.dryRun,
				Limit:          importFlags.limit,
			}
			base, table, view := defaults()
			if opts.Base == "" {
				opts.Base = base
			}
			if opts.Table == "" {
				opts.Table = table
			}
			if !cmd.Flags().Changed("view") {
				opts.View = view
			}

			imp := &importer.Importer{
				DB:       db,
				Airtable: airtable.NewClient(cfg.Airtable, logger),
				Uploader: newUploader(cmd.Context()),
				Logger:   logger,
				DataDir:  cfg.DataDir,
			}
			res, err := run(cmd.Context(), imp, opts)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

// newUploader opens the bucket when one is configured; imports run
// without media re-hosting otherwise.
func newUploader(ctx context.Context) storage.Uploader {
	if cfg.Storage.Bucket == "" || importFlags.dryRun {
		return nil
	}
	up, err := storage.NewGCSUploader(ctx, cfg.Storage, cfg.Airtable, logger)
	if err != nil {
		logger.WithError(err).Warn("Storage unavailable, media re-hosting disabled")
		return nil
	}
	return up
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
