package payload

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/source"
)

// Default descriptions used when none are configured.
const (
	DefaultStartDescription = "Build started."
	DefaultEndDescription   = "Build done."
)

// parentSeparator sits between the parent plan and the child build in names.
const parentSeparator = " » "

// Options configures the payload fields of a status reporter.
type Options struct {
	StatusKey        Field
	StatusName       Field
	StatusSuffix     Field
	StartDescription Field
	EndDescription   Field
	ParentName       Field
	BuildNumber      Field
	Ref              Field
	Duration         Field
	TestResults      Field
}

// CommitStatus is the body of the legacy per-commit endpoint.
type CommitStatus struct {
	URL         string `json:"url"`
	State       string `json:"state"`
	Key         string `json:"key"`
	Description string `json:"description"`
	Name        string `json:"name,omitempty"`
}

// BuildStatus is the body of the per-build endpoint. Every key is always sent;
// values that cannot be computed are null.
type BuildStatus struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Key         string  `json:"key"`
	URL         string  `json:"url"`
	Ref         *string `json:"ref"`
	BuildNumber string  `json:"buildNumber"`
	State       string  `json:"state"`
	Parent      string  `json:"parent"`
	Duration    any     `json:"duration"`
	TestResults any     `json:"testResults"`
}

// TestResults summarizes test counts reported through build properties.
type TestResults struct {
	Failed     int64 `json:"failed"`
	Skipped    int64 `json:"skipped"`
	Successful int64 `json:"successful"`
}

// Builder produces status payloads for builds and buildsets.
type Builder struct {
	opts   Options
	logger *slog.Logger
}

// NewBuilder creates a Builder, filling in the default descriptions.
func NewBuilder(opts Options, logger *slog.Logger) *Builder {
	if !opts.StartDescription.IsSet() {
		opts.StartDescription = Constant(DefaultStartDescription)
	}
	if !opts.EndDescription.IsSet() {
		opts.EndDescription = Constant(DefaultEndDescription)
	}
	return &Builder{opts: opts, logger: logger}
}

// subject is the part of a build or buildset the payloads are made of.
type subject struct {
	id          string
	kind        core.EventKind
	result      core.Result
	key         string
	name        string
	parent      string
	buildNumber string
	url         string
	started     *time.Time
	complete    *time.Time
	props       core.Properties
}

func buildSubject(b *core.BuildEvent) subject {
	name := fmt.Sprintf("%s #%d", b.BuilderName, b.BuildNumber)
	parent := b.BuilderName
	if b.HasParent() {
		name = fmt.Sprintf("%s #%d%s%s", b.ParentBuilderName, b.ParentBuildNumber, parentSeparator, name)
		parent = b.ParentBuilderName
	}
	return subject{
		id:          b.Key(),
		kind:        b.Kind,
		result:      b.Result,
		key:         b.BuilderName,
		name:        name,
		parent:      parent,
		buildNumber: strconv.Itoa(b.BuildNumber),
		url:         b.URL,
		started:     b.StartedAt,
		complete:    b.CompleteAt,
		props:       b.Properties,
	}
}

func buildsetSubject(bs *core.BuildsetEvent) subject {
	name := fmt.Sprintf("Buildset %d", bs.BSID)
	return subject{
		id:          bs.Key(),
		kind:        core.EventFinished,
		result:      bs.Result,
		key:         fmt.Sprintf("buildset-%d", bs.BSID),
		name:        name,
		parent:      name,
		buildNumber: strconv.FormatInt(bs.BSID, 10),
		url:         bs.URL,
		started:     bs.SubmittedAt,
		complete:    bs.CompleteAt,
		props:       bs.Properties,
	}
}

// CommitStatus builds the legacy payload for a build.
func (b *Builder) CommitStatus(build *core.BuildEvent) (*CommitStatus, error) {
	return b.commitStatus(buildSubject(build))
}

// BuildsetCommitStatus builds the legacy payload for a completed buildset.
func (b *Builder) BuildsetCommitStatus(bs *core.BuildsetEvent) (*CommitStatus, error) {
	return b.commitStatus(buildsetSubject(bs))
}

func (b *Builder) commitStatus(s subject) (*CommitStatus, error) {
	key, err := b.opts.StatusKey.ResolveString(s.props, s.key)
	if err != nil {
		return nil, fmt.Errorf("status key: %w", err)
	}
	description, err := b.description(s)
	if err != nil {
		return nil, err
	}
	status := &CommitStatus{
		URL:         s.url,
		State:       State(s.kind, s.result),
		Key:         key,
		Description: description,
	}
	if b.opts.StatusName.IsSet() {
		name, err := b.statusName(s)
		if err != nil {
			return nil, err
		}
		status.Name = name
	}
	return status, nil
}

// BuildStatus builds the per-build payload for a build.
func (b *Builder) BuildStatus(build *core.BuildEvent, target source.Target) (*BuildStatus, error) {
	return b.buildStatus(buildSubject(build), target)
}

// BuildsetStatus builds the per-build payload for a completed buildset.
func (b *Builder) BuildsetStatus(bs *core.BuildsetEvent, target source.Target) (*BuildStatus, error) {
	return b.buildStatus(buildsetSubject(bs), target)
}

func (b *Builder) buildStatus(s subject, target source.Target) (*BuildStatus, error) {
	key, err := b.opts.StatusKey.ResolveString(s.props, s.key)
	if err != nil {
		return nil, fmt.Errorf("status key: %w", err)
	}
	name, err := b.statusName(s)
	if err != nil {
		return nil, err
	}
	description, err := b.description(s)
	if err != nil {
		return nil, err
	}
	parent, err := b.opts.ParentName.ResolveString(s.props, s.parent)
	if err != nil {
		return nil, fmt.Errorf("parent name: %w", err)
	}
	buildNumber, err := b.opts.BuildNumber.ResolveString(s.props, s.buildNumber)
	if err != nil {
		return nil, fmt.Errorf("build number: %w", err)
	}
	ref, err := b.ref(s, target)
	if err != nil {
		return nil, err
	}
	duration, err := b.duration(s)
	if err != nil {
		return nil, err
	}
	testResults, err := b.testResults(s)
	if err != nil {
		return nil, err
	}

	return &BuildStatus{
		Name:        name,
		Description: description,
		Key:         key,
		URL:         s.url,
		Ref:         ref,
		BuildNumber: buildNumber,
		State:       State(s.kind, s.result),
		Parent:      parent,
		Duration:    duration,
		TestResults: testResults,
	}, nil
}

func (b *Builder) statusName(s subject) (string, error) {
	name, err := b.opts.StatusName.ResolveString(s.props, s.name)
	if err != nil {
		return "", fmt.Errorf("status name: %w", err)
	}
	suffix, err := b.opts.StatusSuffix.ResolveString(s.props, "")
	if err != nil {
		return "", fmt.Errorf("status suffix: %w", err)
	}
	return name + suffix, nil
}

func (b *Builder) description(s subject) (string, error) {
	field := b.opts.EndDescription
	if s.kind == core.EventNew {
		field = b.opts.StartDescription
	}
	description, err := field.ResolveString(s.props, "")
	if err != nil {
		return "", fmt.Errorf("description: %w", err)
	}
	return description, nil
}

func (b *Builder) ref(s subject, target source.Target) (*string, error) {
	branch, err := b.opts.Ref.ResolveString(s.props, target.Branch)
	if err != nil {
		return nil, fmt.Errorf("ref: %w", err)
	}
	ref, ok := source.ResolveRef(branch)
	if !ok {
		b.logger.Warn(fmt.Sprintf("WARNING: Unable to resolve ref for SSID: %d.", target.SSID), "id", s.id)
		return nil, nil
	}
	return &ref, nil
}

func (b *Builder) duration(s subject) (any, error) {
	if b.opts.Duration.IsSet() {
		v, err := b.opts.Duration.Resolve(s.props)
		if err != nil {
			return nil, fmt.Errorf("duration: %w", err)
		}
		return v, nil
	}
	if d := Duration(s.started, s.complete); d != nil {
		return *d, nil
	}
	return nil, nil
}

func (b *Builder) testResults(s subject) (any, error) {
	if b.opts.TestResults.IsSet() {
		v, err := b.opts.TestResults.Resolve(s.props)
		if err != nil {
			return nil, fmt.Errorf("test results: %w", err)
		}
		return v, nil
	}
	if !s.props.Has("tests_failed") && !s.props.Has("tests_skipped") && !s.props.Has("tests_successful") {
		return nil, nil
	}
	return &TestResults{
		Failed:     s.props.GetInt("tests_failed", 0),
		Skipped:    s.props.GetInt("tests_skipped", 0),
		Successful: s.props.GetInt("tests_successful", 0),
	}, nil
}
