package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/build-herald/internal/bitbucket"
	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/jobs"
	"github.com/sevigo/build-herald/internal/reporter"
)

var (
	sendTopic   string
	sendTimeout time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send [event.json]",
	Short: "Deliver a single build event through the configured reporters",
	Long: `Decode a build or buildset record and hand it to every configured reporter,
bypassing the queue. Use "-" to read the record from stdin.

Examples:
  herald send --topic builds.finished build.json
  herald send -v --topic buildsets.complete - < buildset.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	sendCmd.Flags().StringVar(&sendTopic, "topic", core.TopicBuildFinished, "Topic the record belongs to")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 30*time.Second, "Overall delivery timeout")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	log := newLogger(cfg)

	event, err := readEvent(args[0], sendTopic)
	if err != nil {
		return err
	}

	client, err := bitbucket.NewClient(cfg.Bitbucket.Options())
	if err != nil {
		return err
	}
	reporters, err := reporter.BuildAll(cfg.Reporters, client, cfg.Bitbucket.Verbose, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
	defer cancel()

	titleColor.Printf("Sending %s (%s) to %d reporter(s)\n", event.Topic, event.Key(), len(reporters))
	if err := jobs.NewNotifyJob(reporters, log).Run(ctx, event); err != nil {
		return err
	}

	var failed bool
	for _, r := range reporters {
		d, ok := r.(*reporter.Dispatcher)
		if !ok {
			continue
		}
		stats := d.Stats()
		switch {
		case stats.Failed > 0 || stats.Errors > 0:
			failed = true
			errorColor.Printf("  ✗ %s: %d failed, %d errors\n", d.Name(), stats.Failed, stats.Errors)
		case stats.Delivered > 0:
			successColor.Printf("  ✓ %s: %d delivered\n", d.Name(), stats.Delivered)
		case stats.Dropped > 0:
			warnColor.Printf("  - %s: dropped\n", d.Name())
		default:
			dimColor.Printf("  - %s: not subscribed\n", d.Name())
		}
	}
	if failed {
		return fmt.Errorf("one or more deliveries failed")
	}
	return nil
}
