// Package reporter relays build lifecycle events to Bitbucket Server. A
// Dispatcher runs one pipeline per event: resolve the target, build the
// payload, deliver it and log the outcome. Failures never leave the pipeline.
package reporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sevigo/build-herald/internal/bitbucket"
	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/storage"
	"github.com/sevigo/build-herald/internal/telemetry"
)

// Events selects which lifecycle events a reporter reacts to.
type Events struct {
	New       bool
	Finished  bool
	Buildsets bool
}

// Stats is a snapshot of the dispatcher counters.
type Stats struct {
	Delivered int64
	Dropped   int64
	Failed    int64
	Errors    int64
	HookCalls int64
}

// request is what a policy hands back to the dispatcher for delivery.
type request struct {
	path    string
	body    any
	state   string
	failure string
	sent    string
	target  string
}

// policy is the variant specific part of the pipeline.
type policy interface {
	variant() string
	prepare(ctx context.Context, d *Delivery) (*request, error)
}

// dropError ends the pipeline without a delivery. Silent drops are not logged.
type dropError struct {
	msg    string
	silent bool
}

func (e *dropError) Error() string { return e.msg }

func drop(msg string) error { return &dropError{msg: msg} }

func dropSilently() error { return &dropError{silent: true} }

// Dispatcher implements core.Reporter for one variant policy.
type Dispatcher struct {
	name     string
	client   *bitbucket.Client
	policy   policy
	events   Events
	verbose  bool
	hook     Sender
	journal  storage.Store
	recorder telemetry.Recorder
	logger   *slog.Logger

	delivered atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
	errors    atomic.Int64
	hookCalls atomic.Int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithEvents overrides the default event selection of the variant.
func WithEvents(events Events) Option {
	return func(d *Dispatcher) { d.events = events }
}

// WithVerbose logs payloads before and confirmations after each delivery.
func WithVerbose(verbose bool) Option {
	return func(d *Dispatcher) { d.verbose = verbose }
}

// WithSendHook installs the deprecated per-event override.
func WithSendHook(hook Sender) Option {
	return func(d *Dispatcher) { d.hook = hook }
}

// WithJournal records each successful build transition in store.
func WithJournal(store storage.Store) Option {
	return func(d *Dispatcher) { d.journal = store }
}

// WithRecorder mirrors every delivery attempt to recorder.
func WithRecorder(recorder telemetry.Recorder) Option {
	return func(d *Dispatcher) { d.recorder = recorder }
}

func newDispatcher(name string, client *bitbucket.Client, p policy, events Events, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		name:     name,
		client:   client,
		policy:   p,
		events:   events,
		recorder: telemetry.Nop(),
		logger:   logger.With("reporter", name),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the configured reporter name.
func (d *Dispatcher) Name() string {
	return d.name
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
		Errors:    d.errors.Load(),
		HookCalls: d.hookCalls.Load(),
	}
}

// HandleBuild reports a build transition.
func (d *Dispatcher) HandleBuild(ctx context.Context, build *core.BuildEvent) {
	if build == nil {
		return
	}
	switch build.Kind {
	case core.EventNew:
		if !d.events.New {
			return
		}
	case core.EventFinished:
		if !d.events.Finished {
			return
		}
	default:
		d.logger.Warn("ignoring build event of unknown kind", "id", build.Key(), "kind", build.Kind)
		return
	}
	d.run(ctx, &Delivery{Reporter: d.name, Build: build})
}

// HandleBuildset reports a completed buildset.
func (d *Dispatcher) HandleBuildset(ctx context.Context, buildset *core.BuildsetEvent) {
	if buildset == nil || !d.events.Buildsets {
		return
	}
	d.run(ctx, &Delivery{Reporter: d.name, Buildset: buildset})
}

// WorkerMissing is ignored by every Bitbucket variant.
func (d *Dispatcher) WorkerMissing(context.Context, int64) {}

// run is the failure boundary of a delivery. Nothing raised below it reaches
// the caller.
func (d *Dispatcher) run(ctx context.Context, delivery *Delivery) {
	defer func() {
		if r := recover(); r != nil {
			d.fail(delivery, fmt.Errorf("panic: %v", r))
		}
	}()

	if d.hook == nil {
		if err := d.send(ctx, delivery); err != nil {
			d.fail(delivery, err)
		}
		return
	}

	d.hookCalls.Add(1)
	d.logger.Warn(fmt.Sprintf("Send() in reporters has been deprecated (hook=%s)", hookName(d.hook)), "id", delivery.ID())

	var once sync.Once
	var sendErr error
	next := func(ctx context.Context) error {
		once.Do(func() { sendErr = d.send(ctx, delivery) })
		return sendErr
	}
	err := d.hook.Send(ctx, delivery, next)
	// the hook wraps delivery, it cannot skip it
	if nextErr := next(ctx); err == nil {
		err = nextErr
	}
	if err != nil {
		d.fail(delivery, err)
	}
}

func hookName(hook Sender) string {
	if s, ok := hook.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", hook)
}

func (d *Dispatcher) fail(delivery *Delivery, err error) {
	d.errors.Add(1)
	d.logger.Error("failed to process notification", "id", delivery.ID(), "error", err)
	d.record(delivery, nil, telemetry.OutcomeError, err.Error(), 0)
}

// send runs resolve, build and deliver once.
func (d *Dispatcher) send(ctx context.Context, delivery *Delivery) error {
	req, err := d.policy.prepare(ctx, delivery)
	if err != nil {
		var dropped *dropError
		if !errors.As(err, &dropped) {
			return err
		}
		d.dropped.Add(1)
		if !dropped.silent {
			d.logger.Warn(dropped.msg, "id", delivery.ID())
		}
		d.record(delivery, nil, telemetry.OutcomeDropped, dropped.msg, 0)
		return nil
	}
	delivery.Path = req.path
	delivery.Payload = req.body

	if d.verbose {
		body, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		d.logger.Info(fmt.Sprintf("Sending payload: %s", body), "id", delivery.ID())
	}

	start := time.Now()
	outcome, err := d.client.Post(ctx, req.path, req.body)
	elapsed := time.Since(start)
	if err != nil {
		d.failed.Add(1)
		d.logger.Error(fmt.Sprintf("%s: %v", req.failure, err), "id", delivery.ID())
		d.record(delivery, req, telemetry.OutcomeFailed, err.Error(), elapsed)
		return nil
	}
	delivery.Outcome = outcome

	if !outcome.OK() {
		d.failed.Add(1)
		line := fmt.Sprintf("%d: %s", outcome.StatusCode, req.failure)
		if msg := outcome.ErrorMessage(); msg != "" {
			line = fmt.Sprintf("%s: %s", line, msg)
		}
		d.logger.Error(line, "id", delivery.ID(), "status", outcome.StatusCode)
		d.record(delivery, req, telemetry.OutcomeFailed, line, elapsed)
		return nil
	}

	d.delivered.Add(1)
	if d.verbose {
		d.logger.Info(req.sent, "id", delivery.ID())
	}
	d.journalize(ctx, delivery, req)
	d.record(delivery, req, telemetry.OutcomeDelivered, "", elapsed)
	return nil
}

func (d *Dispatcher) journalize(ctx context.Context, delivery *Delivery, req *request) {
	if d.journal == nil || delivery.Build == nil {
		return
	}
	b := delivery.Build
	var revision string
	if len(b.SourceStamps) > 0 {
		revision = b.SourceStamps[0].Revision
	}
	state := &core.BuildState{
		Reporter:    d.name,
		BuildID:     b.BuildID,
		BuilderName: b.BuilderName,
		BuildNumber: b.BuildNumber,
		Lifecycle:   core.LifecycleOf(b.Kind),
		RemoteState: req.state,
		Revision:    revision,
	}
	if err := d.journal.SaveBuildState(ctx, state); err != nil {
		d.logger.Warn("failed to record build state", "id", delivery.ID(), "error", err)
	}
}

func (d *Dispatcher) record(delivery *Delivery, req *request, outcome telemetry.Outcome, reason string, elapsed time.Duration) {
	a := telemetry.Attempt{
		Reporter: d.name,
		Variant:  d.policy.variant(),
		EventID:  delivery.ID(),
		Outcome:  outcome,
		Reason:   reason,
		Duration: elapsed,
	}
	if req != nil {
		a.State = req.state
		a.Target = req.target
	}
	if delivery.Outcome != nil {
		a.StatusCode = delivery.Outcome.StatusCode
	}
	d.recorder.Record(a)
}
