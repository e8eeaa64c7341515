package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/pestdirectory/internal/pricing"
	"github.com/Simplici0/pestdirectory/internal/store"
)

func (c *cli) newResolveCmd() *cobra.Command {
	var (
		client  string
		service string
		sqft    string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the price of a service for a home size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			tiers, err := store.New(database).ServiceTiers(ctx, client, service)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no service %q for client %q", service, client)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			b, err := pricing.ResolveInput(sqft, tiers)
			var noMatch *pricing.NoMatchError
			switch {
			case errors.As(err, &noMatch):
				fmt.Fprintln(out, pricing.NoMatchMessage(noMatch.Sqft))
				return nil
			case errors.Is(err, pricing.ErrInvalidInput):
				return fmt.Errorf("invalid square footage %q", sqft)
			case err != nil:
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			fmt.Fprint(out, pricing.RenderText(b))
			return nil
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "client slug")
	cmd.Flags().StringVar(&service, "service", "", "service name or slug")
	cmd.Flags().StringVar(&sqft, "sqft", "", "home size in square feet")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the breakdown as JSON")
	cmd.MarkFlagRequired("client")
	cmd.MarkFlagRequired("service")
	cmd.MarkFlagRequired("sqft")

	return cmd
}
