package reporter

import (
	"context"

	"github.com/sevigo/build-herald/internal/bitbucket"
	"github.com/sevigo/build-herald/internal/core"
)

// Delivery is one event travelling through a reporter. Exactly one of Build
// and Buildset is set. Path, Payload and Outcome are filled in by the pipeline.
type Delivery struct {
	Reporter string
	Build    *core.BuildEvent
	Buildset *core.BuildsetEvent

	Path    string
	Payload any
	Outcome *bitbucket.Outcome
}

// ID identifies the build or buildset in log lines.
func (d *Delivery) ID() string {
	if d.Build != nil {
		return d.Build.Key()
	}
	if d.Buildset != nil {
		return d.Buildset.Key()
	}
	return ""
}

// Properties returns the properties of the build or buildset.
func (d *Delivery) Properties() core.Properties {
	if d.Build != nil {
		return d.Build.Properties
	}
	if d.Buildset != nil {
		return d.Buildset.Properties
	}
	return nil
}

// SourceStamps returns the source stamps of the build or buildset.
func (d *Delivery) SourceStamps() []core.SourceStamp {
	if d.Build != nil {
		return d.Build.SourceStamps
	}
	if d.Buildset != nil {
		return d.Buildset.SourceStamps
	}
	return nil
}

// SendFunc runs the default resolve, build and deliver pipeline for a delivery.
type SendFunc func(ctx context.Context) error

// Sender is the deprecated per-event override. It is handed the default
// pipeline and is expected to call it; the pipeline still runs if it does not.
//
// Deprecated: configure computed payload fields instead.
type Sender interface {
	Send(ctx context.Context, d *Delivery, next SendFunc) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, d *Delivery, next SendFunc) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, d *Delivery, next SendFunc) error {
	return f(ctx, d, next)
}
