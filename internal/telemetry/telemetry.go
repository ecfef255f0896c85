// Package telemetry mirrors delivery outcomes to Honeycomb so notification
// latency and failures can be queried next to the builds that produced them.
package telemetry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/honeycombio/libhoney-go"
	"github.com/honeycombio/libhoney-go/transmission"
)

// Version is reported with every event as meta.version.
var Version = "dev"

// Outcome classifies a delivery attempt.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
	OutcomeDropped   Outcome = "dropped"
	OutcomeError     Outcome = "error"
)

// Attempt describes one pass of an event through a reporter.
type Attempt struct {
	Reporter   string
	Variant    string
	EventID    string
	State      string
	Target     string
	StatusCode int
	Outcome    Outcome
	Reason     string
	Duration   time.Duration
}

// Recorder receives delivery attempts. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(a Attempt)
	Close()
}

// Config configures the Honeycomb recorder.
type Config struct {
	WriteKey string
	Dataset  string
	APIHost  string
	// Transmission overrides the sender, mostly for tests.
	Transmission transmission.Sender
}

type honeycombRecorder struct {
	client *libhoney.Client
	logger *slog.Logger
}

// NewRecorder returns a Honeycomb backed Recorder. Without a write key it
// returns a no-op recorder.
func NewRecorder(cfg Config, logger *slog.Logger) (Recorder, error) {
	if cfg.WriteKey == "" && cfg.Transmission == nil {
		logger.Debug("no honeycomb write key configured, telemetry disabled")
		return Nop(), nil
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "build-herald"
	}
	libhoney.UserAgentAddition = fmt.Sprintf("build-herald/%s", Version)

	client, err := libhoney.NewClient(libhoney.ClientConfig{
		APIKey:       cfg.WriteKey,
		Dataset:      cfg.Dataset,
		APIHost:      cfg.APIHost,
		Transmission: cfg.Transmission,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create honeycomb client: %w", err)
	}
	client.AddField("meta.version", Version)
	return &honeycombRecorder{client: client, logger: logger}, nil
}

func (r *honeycombRecorder) Record(a Attempt) {
	ev := r.client.NewEvent()
	err := ev.Add(map[string]any{
		"service_name": "build-herald",
		"name":         "delivery",
		"reporter":     a.Reporter,
		"variant":      a.Variant,
		"event_id":     a.EventID,
		"state":        a.State,
		"target":       a.Target,
		"status_code":  a.StatusCode,
		"outcome":      string(a.Outcome),
		"reason":       a.Reason,
		"duration_ms":  float64(a.Duration.Microseconds()) / 1000,
	})
	if err != nil {
		r.logger.Warn("failed to add telemetry fields", "error", err)
		return
	}
	if err := ev.Send(); err != nil {
		r.logger.Warn("failed to send telemetry event", "error", err)
	}
}

func (r *honeycombRecorder) Close() {
	r.client.Close()
}

type nopRecorder struct{}

// Nop returns a Recorder that discards everything.
func Nop() Recorder { return nopRecorder{} }

func (nopRecorder) Record(Attempt) {}
func (nopRecorder) Close()         {}
