package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/build-herald/internal/core"
)

type fakeReporter struct {
	builds    []*core.BuildEvent
	buildsets []*core.BuildsetEvent
}

func (r *fakeReporter) Name() string { return "fake" }
func (r *fakeReporter) HandleBuild(_ context.Context, b *core.BuildEvent) {
	r.builds = append(r.builds, b)
}
func (r *fakeReporter) HandleBuildset(_ context.Context, bs *core.BuildsetEvent) {
	r.buildsets = append(r.buildsets, bs)
}
func (r *fakeReporter) WorkerMissing(context.Context, int64) {}

func TestNotifyJob_FansOut(t *testing.T) {
	first, second := &fakeReporter{}, &fakeReporter{}
	job := NewNotifyJob([]core.Reporter{first, second}, discardLogger())
	ctx := context.Background()

	assert.NoError(t, job.Run(ctx, buildEvent(1, core.EventNew)))
	assert.NoError(t, job.Run(ctx, &core.Event{Topic: core.TopicBuildsetComplete, Buildset: &core.BuildsetEvent{BSID: 2}}))
	assert.Error(t, job.Run(ctx, &core.Event{Topic: core.TopicBuildNew}))

	for _, r := range []*fakeReporter{first, second} {
		assert.Len(t, r.builds, 1)
		assert.Len(t, r.buildsets, 1)
	}
}
