package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/source"
)

func testBuild(kind core.EventKind) *core.BuildEvent {
	return &core.BuildEvent{
		Kind:        kind,
		BuildID:     20,
		BuilderName: "Builder0",
		BuildNumber: 0,
		URL:         "http://localhost:8080/#builders/79/builds/0",
		SourceStamps: []core.SourceStamp{{
			SSID:       234,
			Repository: "https://example.org/repo",
			Revision:   "d34db33fd43db33f",
			Branch:     "master",
		}},
		Result:     core.Success,
		Properties: core.Properties{},
	}
}

func testTarget() source.Target {
	return source.Target{SSID: 234, Project: "example.org", Repository: "repo", Revision: "d34db33fd43db33f", Branch: "master"}
}

func newTestBuilder(opts Options) (*Builder, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewBuilder(opts, logger), &buf
}

func TestState(t *testing.T) {
	tests := []struct {
		kind   core.EventKind
		result core.Result
		want   string
	}{
		{core.EventNew, core.Success, StateInProgress},
		{core.EventNew, core.Failure, StateInProgress},
		{core.EventFinished, core.Success, StateSuccessful},
		{core.EventFinished, core.Failure, StateFailed},
		{core.EventFinished, core.Warnings, StateFailed},
		{core.EventFinished, core.Exception, StateFailed},
		{core.EventFinished, core.Cancelled, StateFailed},
		{core.EventFinished, core.ResultUnknown, StateFailed},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.result.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, State(tt.kind, tt.result))
		})
	}
}

func TestDuration(t *testing.T) {
	started := time.Date(2019, 4, 1, 23, 38, 33, 154354000, time.UTC)
	complete := started.Add(10 * time.Second)

	d := Duration(&started, &complete)
	require.NotNil(t, d)
	assert.Equal(t, int64(10000), *d)
	assert.Nil(t, Duration(&started, nil))
	assert.Nil(t, Duration(nil, &complete))
}

func TestBuilder_BuildStatus(t *testing.T) {
	b, _ := newTestBuilder(Options{})
	build := testBuild(core.EventNew)
	started := time.Date(2019, 4, 1, 23, 38, 33, 154354000, time.UTC)
	build.StartedAt = &started

	status, err := b.BuildStatus(build, testTarget())
	require.NoError(t, err)
	assert.Equal(t, "Builder0 #0", status.Name)
	assert.Equal(t, "Build started.", status.Description)
	assert.Equal(t, "Builder0", status.Key)
	assert.Equal(t, "Builder0", status.Parent)
	assert.Equal(t, "0", status.BuildNumber)
	assert.Equal(t, StateInProgress, status.State)
	require.NotNil(t, status.Ref)
	assert.Equal(t, "refs/heads/master", *status.Ref)
	assert.Nil(t, status.Duration)
	assert.Nil(t, status.TestResults)

	complete := started.Add(10 * time.Second)
	build.Kind = core.EventFinished
	build.CompleteAt = &complete
	status, err = b.BuildStatus(build, testTarget())
	require.NoError(t, err)
	assert.Equal(t, "Build done.", status.Description)
	assert.Equal(t, StateSuccessful, status.State)
	assert.Equal(t, int64(10000), status.Duration)
}

func TestBuilder_BuildStatusJSONKeepsNullKeys(t *testing.T) {
	b, _ := newTestBuilder(Options{})
	build := testBuild(core.EventNew)
	build.SourceStamps[0].Branch = ""
	target := testTarget()
	target.Branch = ""

	status, err := b.BuildStatus(build, target)
	require.NoError(t, err)

	data, err := json.Marshal(status)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Builder0 #0", "description": "Build started.", "key": "Builder0",
		"url": "http://localhost:8080/#builders/79/builds/0",
		"ref": null, "buildNumber": "0", "state": "INPROGRESS",
		"parent": "Builder0", "duration": null, "testResults": null
	}`, string(data))
}

func TestBuilder_ParentPlan(t *testing.T) {
	b, _ := newTestBuilder(Options{})
	build := testBuild(core.EventNew)
	build.ParentBuilderName = "Builder_parent"
	build.ParentBuildNumber = 1

	status, err := b.BuildStatus(build, testTarget())
	require.NoError(t, err)
	assert.Equal(t, "Builder_parent #1 » Builder0 #0", status.Name)
	assert.Equal(t, "Builder_parent", status.Parent)
}

func TestBuilder_MissingRefLogsWarning(t *testing.T) {
	b, logs := newTestBuilder(Options{})
	target := testTarget()
	target.Branch = ""

	status, err := b.BuildStatus(testBuild(core.EventNew), target)
	require.NoError(t, err)
	assert.Nil(t, status.Ref)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "WARNING: Unable to resolve ref for SSID: 234.")
	assert.Contains(t, logs.String(), "id=20")
}

func TestBuilder_FullRefPassesThrough(t *testing.T) {
	b, logs := newTestBuilder(Options{})
	target := testTarget()
	target.Branch = "refs/heads/master"

	status, err := b.BuildStatus(testBuild(core.EventNew), target)
	require.NoError(t, err)
	require.NotNil(t, status.Ref)
	assert.Equal(t, "refs/heads/master", *status.Ref)
	assert.Empty(t, logs.String())
}

func TestBuilder_ComputedFields(t *testing.T) {
	mustTemplate := func(text string) Field {
		f, err := Template(text)
		require.NoError(t, err)
		return f
	}
	mustExpr := func(expr string) Field {
		f, err := Expression(expr)
		require.NoError(t, err)
		return f
	}

	b, _ := newTestBuilder(Options{
		StatusName:   mustTemplate(`{{ prop "plan_name" }}`),
		StatusSuffix: mustTemplate(` [{{ prop "unittests_os" }}]`),
		BuildNumber:  Constant("100"),
		Ref:          mustTemplate(`{{ prop "branch" }}`),
		ParentName:   mustTemplate(`{{ prop "master_plan" }}`),
		Duration:     mustExpr("unittests_runtime"),
		TestResults: Object(map[string]Field{
			"failed":     mustExpr(`prop("unittests_failed", 0)`),
			"skipped":    mustExpr(`prop("unittests_skipped", 0)`),
			"successful": mustExpr(`prop("unittests_successful", 0)`),
		}),
	})

	build := testBuild(core.EventFinished)
	build.Properties = core.Properties{
		"unittests_skipped":    2,
		"unittests_successful": 3,
		"unittests_runtime":    50000,
		"unittests_os":         "win10",
		"plan_name":            "Unittests",
		"master_plan":          "Unittests-master",
		"branch":               "refs/pull/34/merge",
	}

	status, err := b.BuildStatus(build, testTarget())
	require.NoError(t, err)

	data, err := json.Marshal(status)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Unittests [win10]", "description": "Build done.", "key": "Builder0",
		"url": "http://localhost:8080/#builders/79/builds/0",
		"ref": "refs/pull/34/merge", "buildNumber": "100", "state": "SUCCESSFUL",
		"parent": "Unittests-master", "duration": 50000,
		"testResults": {"failed": 0, "skipped": 2, "successful": 3}
	}`, string(data))
}

func TestBuilder_TestResultsFromProperties(t *testing.T) {
	b, _ := newTestBuilder(Options{})
	build := testBuild(core.EventFinished)
	build.Properties = core.Properties{"tests_skipped": 2, "tests_successful": float64(3)}

	status, err := b.BuildStatus(build, testTarget())
	require.NoError(t, err)
	assert.Equal(t, &TestResults{Failed: 0, Skipped: 2, Successful: 3}, status.TestResults)
}

func TestBuilder_ComputedFieldErrorPropagates(t *testing.T) {
	b, _ := newTestBuilder(Options{
		Duration: Computed(func(core.Properties) (any, error) {
			return nil, errors.New("boom")
		}),
	})
	_, err := b.BuildStatus(testBuild(core.EventFinished), testTarget())
	assert.ErrorContains(t, err, "boom")
}

func TestBuilder_CommitStatus(t *testing.T) {
	t.Run("Defaults omit name", func(t *testing.T) {
		b, _ := newTestBuilder(Options{})
		status, err := b.CommitStatus(testBuild(core.EventNew))
		require.NoError(t, err)

		data, err := json.Marshal(status)
		require.NoError(t, err)
		assert.JSONEq(t, `{"url": "http://localhost:8080/#builders/79/builds/0",
			"state": "INPROGRESS", "key": "Builder0", "description": "Build started."}`, string(data))
	})

	t.Run("Configured name and descriptions", func(t *testing.T) {
		b, _ := newTestBuilder(Options{
			StatusName:       Constant("Build"),
			StartDescription: Constant("Build started."),
			EndDescription:   Constant("Build finished."),
		})
		build := testBuild(core.EventFinished)
		build.Result = core.Failure
		status, err := b.CommitStatus(build)
		require.NoError(t, err)
		assert.Equal(t, &CommitStatus{
			URL:         "http://localhost:8080/#builders/79/builds/0",
			State:       StateFailed,
			Key:         "Builder0",
			Description: "Build finished.",
			Name:        "Build",
		}, status)
	})
}

func TestBuilder_Buildset(t *testing.T) {
	b, _ := newTestBuilder(Options{})
	bs := &core.BuildsetEvent{
		BSID:   98,
		URL:    "http://localhost:8080/#buildsets/98",
		Result: core.Failure,
	}
	status, err := b.BuildsetStatus(bs, testTarget())
	require.NoError(t, err)
	assert.Equal(t, "buildset-98", status.Key)
	assert.Equal(t, "Buildset 98", status.Name)
	assert.Equal(t, "98", status.BuildNumber)
	assert.Equal(t, StateFailed, status.State)

	commit, err := b.BuildsetCommitStatus(bs)
	require.NoError(t, err)
	assert.Equal(t, "buildset-98", commit.Key)
	assert.Equal(t, "Build done.", commit.Description)
}
