package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Simplici0/pestdirectory/internal/app"
	"github.com/Simplici0/pestdirectory/internal/importer"
	"github.com/Simplici0/pestdirectory/internal/store"
)

func (c *cli) newImportCmd() *cobra.Command {
	var (
		xlsxPath string
		sheetID  string
		prune    bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import clients and pricing tiers from the spreadsheet",
		Long:  "Read the clients and pricing sheets from an .xlsx file or a Google Sheet and replace the stored profiles. Defaults to SHEET_SOURCE.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := c.cfg
			switch {
			case xlsxPath != "":
				cfg.SheetSource, cfg.XLSXPath = "xlsx", xlsxPath
			case sheetID != "":
				cfg.SheetSource, cfg.SpreadsheetID = "google", sheetID
			}

			src, err := app.OpenSource(ctx, cfg)
			if err != nil {
				return err
			}

			database, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			profiles := app.OpenCache(ctx, cfg, c.logger)
			publisher := app.NewPublisher(cfg)
			defer publisher.Close()

			im := importer.New(store.New(database), profiles, publisher, c.logger)
			stats, err := im.Run(ctx, src, importer.Options{
				ClientsSheet: cfg.ClientsSheet,
				PricingSheet: cfg.PricingSheet,
				Prune:        prune,
			})
			if err != nil {
				return err
			}

			printImportStats(cmd, stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "path to an .xlsx workbook")
	cmd.Flags().StringVar(&sheetID, "sheet", "", "Google spreadsheet id")
	cmd.Flags().BoolVar(&prune, "prune", false, "delete stored clients missing from the sheet")
	cmd.MarkFlagsMutuallyExclusive("xlsx", "sheet")

	return cmd
}

func printImportStats(cmd *cobra.Command, stats *importer.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Import %s from %s\n", stats.RunID, stats.Source)
	fmt.Fprintf(out, "  Clients:  %d\n", stats.Clients)
	fmt.Fprintf(out, "  Services: %d\n", stats.Services)
	fmt.Fprintf(out, "  Tiers:    %d\n", stats.Tiers)
	fmt.Fprintf(out, "  Skipped:  %d row(s)\n", stats.Skipped)
	if stats.Pruned > 0 {
		fmt.Fprintf(out, "  Pruned:   %d\n", stats.Pruned)
	}
	for _, e := range stats.Errors {
		fmt.Fprintf(out, "    - %s\n", e)
	}
	for _, w := range stats.Warnings {
		fmt.Fprintf(out, "    ! %s\n", w)
	}
	fmt.Fprintf(out, "  Duration: %s\n", stats.Duration.Round(time.Millisecond))
}
