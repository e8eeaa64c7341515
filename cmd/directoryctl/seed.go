package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/pestdirectory/internal/seed"
)

func (c *cli) newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo client for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			stats, err := seed.Run(ctx, database)
			if err != nil {
				return err
			}
			if stats.Inserts == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Demo client already present")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted demo client (%d rows)\n", stats.Inserts)
			return nil
		},
	}
}
