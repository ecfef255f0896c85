// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"context"
)

// EventDispatcher defines the contract for a system that can accept and queue
// build events for asynchronous processing. This interface decouples the
// event source (an HTTP ingestion endpoint or a Kafka consumer) from the
// reporting pipeline.
type EventDispatcher interface {
	// Dispatch accepts an event and queues it for processing.
	// It returns an error if the event cannot be queued, for example, if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, event *Event) error
}

// Job processes a single queued event.
type Job interface {
	Run(ctx context.Context, event *Event) error
}

// Reporter relays build lifecycle events to an external platform. Implementations
// never return errors: every failure is logged and the event is dropped.
type Reporter interface {
	// Name identifies the reporter in logs and in the state journal.
	Name() string
	HandleBuild(ctx context.Context, build *BuildEvent)
	HandleBuildset(ctx context.Context, buildset *BuildsetEvent)
	// WorkerMissing is part of the event contract; status reporters ignore it.
	WorkerMissing(ctx context.Context, workerID int64)
}

// Message is a rendered notification body.
type Message struct {
	Body    string `json:"body"`
	Type    string `json:"type"`
	Subject string `json:"subject,omitempty"`
}

// Formatter renders notification messages for builds and buildsets.
//
//go:generate mockgen -destination=../../mocks/mock_formatter.go -package=mocks . Formatter
type Formatter interface {
	FormatBuild(ctx context.Context, build *BuildEvent) (*Message, error)
	FormatBuildset(ctx context.Context, buildset *BuildsetEvent) (*Message, error)
}
