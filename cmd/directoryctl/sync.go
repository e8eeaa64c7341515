package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/pestdirectory/internal/app"
	"github.com/Simplici0/pestdirectory/internal/events"
	"github.com/Simplici0/pestdirectory/internal/store"
)

func (c *cli) newSyncCMSCmd() *cobra.Command {
	var (
		client string
		follow bool
		group  string
	)

	cmd := &cobra.Command{
		Use:   "sync-cms",
		Short: "Push client profiles to the CMS",
		Long:  "Push one or all stored client profiles to the CMS collection. With --follow, keep running and sync each client announced on the Kafka topic.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			syncer, err := app.NewSyncer(c.cfg, store.New(database), c.logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if follow {
				if len(c.cfg.KafkaBrokers) == 0 {
					return fmt.Errorf("--follow needs KAFKA_BROKERS")
				}
				consumer := events.NewKafkaConsumer(c.cfg.KafkaBrokers, c.cfg.KafkaTopic, group, syncer.SyncClient, c.logger)
				defer consumer.Close()

				c.logger.Info().Str("topic", c.cfg.KafkaTopic).Str("group", group).Msg("following client updates")
				return consumer.Run(ctx)
			}

			if client != "" {
				if err := syncer.SyncClient(ctx, client); err != nil {
					return err
				}
				fmt.Fprintf(out, "Synced %s\n", client)
				return nil
			}

			stats, err := syncer.SyncAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Synced %d of %d client(s), %d failed\n", stats.Synced, stats.Total, stats.Failed)
			if stats.Failed > 0 {
				return fmt.Errorf("%d client(s) failed to sync", stats.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "sync a single client slug")
	cmd.Flags().BoolVar(&follow, "follow", false, "consume client.updated events and sync as they arrive")
	cmd.Flags().StringVar(&group, "group", events.DefaultGroupID, "kafka consumer group for --follow")
	cmd.MarkFlagsMutuallyExclusive("client", "follow")

	return cmd
}
