package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-coursetests/internal/rewards"
)

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Inspect point requests",
}

var pointsListCmd = &cobra.Command{
	Use:   "list <user>",
	Short: "List the point requests of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		reqs, err := (&rewards.SQLStore{DB: d.SQL}).FindByUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%-6s %-8s %-9s %6s\n", "ID", "ORIGIN", "STATUS", "POINTS")
		for _, pr := range reqs {
			fmt.Printf("%-6d %-8s %-9s %6d\n", pr.ID, pr.Origin, pr.Status, pr.PointsToAdd)
		}
		return nil
	},
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Publish new point requests to the message broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")
		if cfg.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is not set")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		n, err := rewards.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer n.Close()

		relay := rewards.NewRelay(&rewards.SQLStore{DB: d.SQL}, n, cfg.RelayBatch, cfg.RelayMaxRetries)
		if once {
			sent, err := relay.RelayPending(ctx)
			if err != nil {
				return err
			}
			log.Printf("relay: published %d point request(s)", sent)
			return nil
		}
		log.Printf("relay: polling every %s (exchange=%s)", cfg.RelayInterval, cfg.AMQPExchange)
		return relay.Run(ctx, cfg.RelayInterval)
	},
}

func init() {
	relayCmd.Flags().Bool("once", false, "Relay one batch and exit")
	pointsCmd.AddCommand(pointsListCmd)
}
