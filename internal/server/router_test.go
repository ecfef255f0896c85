package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/build-herald/internal/config"
	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/jobs"
	"github.com/sevigo/build-herald/internal/server/handler"
	"github.com/sevigo/build-herald/mocks"
)

type fakeDispatcher struct {
	events []*core.Event
	err    error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, e *core.Event) error {
	if d.err != nil {
		return d.err
	}
	if err := jobs.ValidateEvent(e); err != nil {
		return err
	}
	d.events = append(d.events, e)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRouter_Health(t *testing.T) {
	router := NewRouter(&config.Config{}, &fakeDispatcher{}, nil, discardLogger())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_IngestEvents(t *testing.T) {
	const build = `{"build_id":20,"builder_name":"Builder0","sourcestamps":[{"ssid":234,"revision":"d34db33fd43db33f"}]}`

	tests := []struct {
		name       string
		topic      string
		body       string
		token      string
		dispatchEr error
		wantCode   int
		wantQueued int
	}{
		{name: "new build", topic: "builds.new", body: build, token: "s3cret", wantCode: http.StatusAccepted, wantQueued: 1},
		{name: "buildset", topic: "buildsets.complete", body: `{"bsid":98,"results":0}`, token: "s3cret", wantCode: http.StatusAccepted, wantQueued: 1},
		{name: "finished without result", topic: "builds.finished", body: build, token: "s3cret", wantCode: http.StatusUnprocessableEntity},
		{name: "missing token", topic: "builds.new", body: build, wantCode: http.StatusUnauthorized},
		{name: "wrong token", topic: "builds.new", body: build, token: "guess", wantCode: http.StatusUnauthorized},
		{name: "unknown topic", topic: "workers.missing", body: `{}`, token: "s3cret", wantCode: http.StatusBadRequest},
		{name: "malformed body", topic: "builds.finished", body: `{`, token: "s3cret", wantCode: http.StatusBadRequest},
		{name: "invalid record", topic: "builds.new", body: `{"build_id":1}`, token: "s3cret", wantCode: http.StatusUnprocessableEntity},
		{name: "queue full", topic: "builds.new", body: build, token: "s3cret", dispatchEr: errors.New("event queue is full"), wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{err: tt.dispatchEr}
			cfg := &config.Config{Server: config.ServerConfig{IngestToken: "s3cret"}}
			router := NewRouter(cfg, dispatcher, nil, discardLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/events/"+tt.topic, strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set(handler.TokenHeader, tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Len(t, dispatcher.events, tt.wantQueued)
		})
	}
}

func TestRouter_IngestWithoutToken(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	router := NewRouter(&config.Config{}, dispatcher, nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/builds.finished",
		strings.NewReader(`{"build_id":20,"builder_name":"Builder0","results":"failure"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, core.EventFinished, dispatcher.events[0].Build.Kind)
	assert.Equal(t, core.Failure, dispatcher.events[0].Build.Result)
}

func TestRouter_BuildStates(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	router := NewRouter(&config.Config{}, &fakeDispatcher{}, store, discardLogger())

	store.EXPECT().GetBuildStates(gomock.Any(), int64(20)).Return([]core.BuildState{
		{Reporter: "bitbucket", BuildID: 20, Lifecycle: core.LifecycleFinished, RemoteState: "FAILED"},
	}, nil)
	store.EXPECT().GetBuildStates(gomock.Any(), int64(21)).Return(nil, nil)
	store.EXPECT().ListRecentBuildStates(gomock.Any(), 5).Return([]core.BuildState{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/builds/20/states", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"remote_state":"FAILED"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/builds/21/states", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/builds/abc/states", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/builds?limit=5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestRouter_JournalRoutesNeedStore(t *testing.T) {
	router := NewRouter(&config.Config{}, &fakeDispatcher{}, nil, discardLogger())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/builds", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
