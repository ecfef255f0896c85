package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/build-herald/internal/core"
)

// NotifyJob hands each event to every reporter in order. Reporters contain
// their own failures, so one reporter never affects another.
type NotifyJob struct {
	reporters []core.Reporter
	logger    *slog.Logger
}

// NewNotifyJob creates a job fanning events out to reporters.
func NewNotifyJob(reporters []core.Reporter, logger *slog.Logger) *NotifyJob {
	return &NotifyJob{reporters: reporters, logger: logger}
}

// Run delivers event to all reporters.
func (j *NotifyJob) Run(ctx context.Context, event *core.Event) error {
	switch {
	case event.Build != nil:
		for _, r := range j.reporters {
			r.HandleBuild(ctx, event.Build)
		}
	case event.Buildset != nil:
		for _, r := range j.reporters {
			r.HandleBuildset(ctx, event.Buildset)
		}
	default:
		return fmt.Errorf("event on topic %s carries no record", event.Topic)
	}
	j.logger.Debug("event handled", "topic", event.Topic, "key", event.Key(), "reporters", len(j.reporters))
	return nil
}
