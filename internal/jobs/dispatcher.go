// Package jobs runs queued build events through the configured reporters.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/sevigo/build-herald/internal/core"
)

// ErrStopped is returned by Dispatch after Stop was called.
var ErrStopped = errors.New("dispatcher is stopped")

// defaultQueueSize is the buffer of each worker queue.
const defaultQueueSize = 100

// Dispatcher implements core.EventDispatcher with a pool of workers. Events are
// sharded by key so events of one build are processed in arrival order while
// different builds are processed concurrently.
type Dispatcher struct {
	job        core.Job
	queues     []chan *core.Event
	maxWorkers int
	wg         sync.WaitGroup
	mu         sync.RWMutex
	stopped    bool
	logger     *slog.Logger
}

// NewDispatcher initializes a dispatcher with a worker pool.
// If maxWorkers is 0 or negative, it defaults to 1.
func NewDispatcher(job core.Job, maxWorkers int, logger *slog.Logger) *Dispatcher {
	return newDispatcher(job, maxWorkers, defaultQueueSize, logger)
}

func newDispatcher(job core.Job, maxWorkers, queueSize int, logger *slog.Logger) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	d := &Dispatcher{
		job:        job,
		maxWorkers: maxWorkers,
		queues:     make([]chan *core.Event, maxWorkers),
		logger:     logger,
	}
	for i := range d.queues {
		d.queues[i] = make(chan *core.Event, queueSize)
	}
	d.startWorkers()
	return d
}

// startWorkers launches one goroutine per queue.
func (d *Dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes events from its queue until it's closed.
func (d *Dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("starting notification worker", "id", workerID)

	for event := range d.queues[workerID] {
		d.processEvent(workerID, event)
	}

	d.logger.Debug("shutting down notification worker", "id", workerID)
}

func (d *Dispatcher) processEvent(workerID int, event *core.Event) {
	d.logger.Debug("worker processing event",
		"worker_id", workerID,
		"topic", event.Topic,
		"key", event.Key(),
	)

	if err := d.job.Run(context.Background(), event); err != nil {
		d.logger.Error("notification job failed",
			"topic", event.Topic,
			"key", event.Key(),
			"error", err,
		)
	}
}

// Dispatch queues an event on the worker owning its key.
func (d *Dispatcher) Dispatch(_ context.Context, event *core.Event) error {
	if err := ValidateEvent(event); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	key := event.Key()
	select {
	case d.queues[d.shard(key)] <- event:
		d.logger.Debug("queued event", "topic", event.Topic, "key", key)
		return nil
	default:
		return fmt.Errorf("event queue is full, cannot accept event %s", key)
	}
}

func (d *Dispatcher) shard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(d.maxWorkers))
}

// Stop gracefully shuts down the dispatcher, waiting for queued events to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	d.logger.Info("stopping dispatcher and waiting for events to finish")
	d.wg.Wait()
	d.logger.Info("all queued events have been processed")
}
