package reporter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sevigo/build-herald/internal/bitbucket"
	"github.com/sevigo/build-herald/internal/core"
)

const revision = "d34db33fd43db33f"

type captured struct {
	Path          string
	Authorization string
	Body          map[string]any
}

type fakeServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []captured
}

func newFakeServer(t *testing.T, status int, body string) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = json.Unmarshal(data, &decoded)

		fs.mu.Lock()
		fs.requests = append(fs.requests, captured{
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          decoded,
		})
		fs.mu.Unlock()

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) Requests() []captured {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]captured(nil), fs.requests...)
}

func newClient(t *testing.T, baseURL string) *bitbucket.Client {
	t.Helper()
	client, err := bitbucket.NewClient(bitbucket.Options{BaseURL: baseURL, Username: "username", Password: "passwd"})
	require.NoError(t, err)
	return client
}

// logSink collects JSON log records.
type logSink struct {
	buf bytes.Buffer
}

func newLogSink() (*logSink, *slog.Logger) {
	s := &logSink{}
	return s, slog.New(slog.NewJSONHandler(&s.buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (s *logSink) Records(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(s.buf.Bytes()))
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		out = append(out, rec)
	}
	return out
}

func (s *logSink) Level(t *testing.T, level string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, rec := range s.Records(t) {
		if rec["level"] == level {
			out = append(out, rec)
		}
	}
	return out
}

func messages(records []map[string]any) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec["msg"].(string))
	}
	return out
}

func newBuild(kind core.EventKind, result core.Result) *core.BuildEvent {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	build := &core.BuildEvent{
		Kind:        kind,
		BuildID:     20,
		BuilderName: "Builder0",
		BuildNumber: 0,
		URL:         "http://localhost:8080/#/builders/79/builds/0",
		SourceStamps: []core.SourceStamp{{
			SSID:       234,
			Project:    "project",
			Repository: "https://example.org/repo",
			Revision:   revision,
			Branch:     "refs/heads/master",
		}},
		StartedAt: &started,
		Result:    result,
	}
	if kind == core.EventFinished {
		complete := started.Add(10 * time.Second)
		build.CompleteAt = &complete
	}
	return build
}
