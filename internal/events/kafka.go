package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/sevigo/build-herald/internal/core"
)

// KafkaConfig configures the Kafka consumer and publisher.
type KafkaConfig struct {
	Brokers     []string
	Group       string
	TopicPrefix string
}

// Consumer reads build lifecycle records from Kafka and dispatches them.
type Consumer struct {
	client     *kgo.Client
	prefix     string
	dispatcher core.EventDispatcher
	logger     *slog.Logger
}

// NewConsumer creates a consumer group member subscribed to every topic.
func NewConsumer(cfg KafkaConfig, dispatcher core.EventDispatcher, logger *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required")
	}
	if cfg.Group == "" {
		cfg.Group = "build-herald"
	}

	topics := make([]string, 0, len(Topics))
	for _, t := range Topics {
		topics = append(topics, cfg.TopicPrefix+t)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(topics...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	return &Consumer{
		client:     client,
		prefix:     cfg.TopicPrefix,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Run polls until ctx is done or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consuming build events from kafka", "prefix", c.prefix)
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		for _, fe := range fetches.Errors() {
			if errors.Is(fe.Err, context.Canceled) {
				return nil
			}
			c.logger.Warn("kafka fetch error", "topic", fe.Topic, "partition", fe.Partition, "error", fe.Err)
		}
		fetches.EachRecord(func(record *kgo.Record) {
			c.handleRecord(ctx, record)
		})
	}
}

// handleRecord never fails the poll loop; bad records are logged and skipped.
func (c *Consumer) handleRecord(ctx context.Context, record *kgo.Record) {
	topic, ok := TrimPrefix(c.prefix, record.Topic)
	if !ok {
		c.logger.Warn("ignoring record outside topic prefix", "topic", record.Topic)
		return
	}
	event, err := Decode(topic, record.Value)
	if err != nil {
		c.logger.Warn("dropping undecodable record", "topic", record.Topic, "offset", record.Offset, "error", err)
		return
	}
	if err := c.dispatcher.Dispatch(ctx, event); err != nil {
		c.logger.Error("failed to dispatch event", "topic", record.Topic, "key", event.Key(), "error", err)
	}
}

// Close leaves the consumer group and closes the client.
func (c *Consumer) Close() {
	c.client.Close()
}

// Publisher produces build lifecycle records, used by the CLI to replay events.
type Publisher struct {
	client *kgo.Client
	prefix string
}

// NewPublisher creates a synchronous producer.
func NewPublisher(cfg KafkaConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}
	return &Publisher{client: client, prefix: cfg.TopicPrefix}, nil
}

// Publish sends event keyed by its ordering key so one build stays on one partition.
func (p *Publisher) Publish(ctx context.Context, event *core.Event) error {
	record, err := NewRecord(p.prefix, event)
	if err != nil {
		return err
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

// Close flushes and closes the producer.
func (p *Publisher) Close() {
	p.client.Close()
}

// NewRecord encodes event as a Kafka record.
func NewRecord(prefix string, event *core.Event) (*kgo.Record, error) {
	var body any
	switch {
	case event.Build != nil:
		body = event.Build
	case event.Buildset != nil:
		body = event.Buildset
	default:
		return nil, fmt.Errorf("event on topic %s carries no record", event.Topic)
	}
	value, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return &kgo.Record{Topic: prefix + event.Topic, Key: []byte(event.Key()), Value: value}, nil
}
