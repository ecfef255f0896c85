package telemetry

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/honeycombio/libhoney-go/transmission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecorder_DisabledWithoutKey(t *testing.T) {
	r, err := NewRecorder(Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, Nop(), r)
}

func TestHoneycombRecorder_Record(t *testing.T) {
	sender := &transmission.MockSender{}
	r, err := NewRecorder(Config{WriteKey: "key", Dataset: "builds", Transmission: sender},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	r.Record(Attempt{
		Reporter:   "bitbucket",
		Variant:    "core-api",
		EventID:    "20",
		State:      "SUCCESSFUL",
		StatusCode: 200,
		Outcome:    OutcomeDelivered,
		Duration:   1500 * time.Microsecond,
	})
	r.Close()

	events := sender.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "builds", events[0].Dataset)
	assert.Equal(t, "delivered", events[0].Data["outcome"])
	assert.Equal(t, 200, events[0].Data["status_code"])
	assert.Equal(t, 1.5, events[0].Data["duration_ms"])
	assert.Equal(t, "dev", events[0].Data["meta.version"])
}
