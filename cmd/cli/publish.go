package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/events"
)

var publishTopic string

var publishCmd = &cobra.Command{
	Use:   "publish [event.json]",
	Short: "Publish a build event onto the Kafka topics",
	Long: `Encode a record and produce it on the configured Kafka cluster, where the
running service picks it up. Requires KAFKA_BROKERS.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Kafka.Enabled() {
			return fmt.Errorf("no Kafka brokers configured: KAFKA_BROKERS is not set")
		}

		event, err := readEvent(args[0], publishTopic)
		if err != nil {
			return err
		}

		publisher, err := events.NewPublisher(events.KafkaConfig{
			Brokers:     cfg.Kafka.Brokers,
			TopicPrefix: cfg.Kafka.TopicPrefix,
		})
		if err != nil {
			return err
		}
		defer publisher.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		if err := publisher.Publish(ctx, event); err != nil {
			return err
		}
		successColor.Printf("✓ published %s to %s%s\n", event.Key(), cfg.Kafka.TopicPrefix, event.Topic)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	publishCmd.Flags().StringVar(&publishTopic, "topic", core.TopicBuildFinished, "Topic the record belongs to")
	rootCmd.AddCommand(publishCmd)
}
