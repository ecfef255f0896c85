// Package formatter renders pull request comments for builds and buildsets
// from text templates. Built-in templates are embedded in the binary; a
// reporter may override them with its own template text.
package formatter

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/sevigo/build-herald/internal/core"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

type Kind string
type Style string

const (
	BuildKind    Kind = "build"
	BuildsetKind Kind = "buildset"

	DefaultStyle Style = "default"
	PlainStyle   Style = "plain"
)

// messageTypes maps a style onto the Message.Type it produces.
var messageTypes = map[Style]string{
	DefaultStyle: "markdown",
	PlainStyle:   "plain",
}

// TemplateFormatter implements core.Formatter.
type TemplateFormatter struct {
	templates map[Kind]map[Style]*template.Template
	style     Style
	overrides map[Kind]*template.Template
}

// Option configures a TemplateFormatter.
type Option func(*TemplateFormatter) error

// WithStyle selects a built-in template set. Unknown styles fall back to default.
func WithStyle(style string) Option {
	return func(f *TemplateFormatter) error {
		if style != "" {
			f.style = Style(style)
		}
		return nil
	}
}

// WithBuildTemplate replaces the build template with text.
func WithBuildTemplate(text string) Option {
	return withOverride(BuildKind, text)
}

// WithBuildsetTemplate replaces the buildset template with text.
func WithBuildsetTemplate(text string) Option {
	return withOverride(BuildsetKind, text)
}

func withOverride(kind Kind, text string) Option {
	return func(f *TemplateFormatter) error {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		tmpl, err := newTemplate(string(kind) + "_custom").Parse(text)
		if err != nil {
			return fmt.Errorf("could not parse %s template: %w", kind, err)
		}
		f.overrides[kind] = tmpl
		return nil
	}
}

// New loads the embedded templates and applies opts.
func New(opts ...Option) (*TemplateFormatter, error) {
	f := &TemplateFormatter{
		templates: make(map[Kind]map[Style]*template.Template),
		style:     DefaultStyle,
		overrides: make(map[Kind]*template.Template),
	}

	files, err := templateFiles.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded templates directory: %w", err)
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		fileName := file.Name()
		baseName := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		kind, style, ok := strings.Cut(baseName, "_")
		if !ok || kind == "" || style == "" {
			return nil, fmt.Errorf("invalid template filename format: %s (expected 'kind_style.tmpl')", fileName)
		}
		content, err := templateFiles.ReadFile("templates/" + fileName)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded template %s: %w", fileName, err)
		}
		if err := f.register(Kind(kind), Style(style), string(content)); err != nil {
			return nil, fmt.Errorf("failed to register template from file %s: %w", fileName, err)
		}
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *TemplateFormatter) register(kind Kind, style Style, content string) error {
	tmpl, err := newTemplate(string(kind) + "_" + string(style)).Parse(content)
	if err != nil {
		return fmt.Errorf("could not parse template: %w", err)
	}
	if _, ok := f.templates[kind]; !ok {
		f.templates[kind] = make(map[Style]*template.Template)
	}
	f.templates[kind][style] = tmpl
	return nil
}

func (f *TemplateFormatter) get(kind Kind) (*template.Template, string, error) {
	if tmpl, ok := f.overrides[kind]; ok {
		return tmpl, "markdown", nil
	}
	styles, ok := f.templates[kind]
	if !ok {
		return nil, "", fmt.Errorf("no templates found for '%s'", kind)
	}
	if tmpl, ok := styles[f.style]; ok {
		return tmpl, messageTypes[f.style], nil
	}
	if tmpl, ok := styles[DefaultStyle]; ok {
		return tmpl, messageTypes[DefaultStyle], nil
	}
	return nil, "", fmt.Errorf("no template found for '%s' and style '%s', and no default was available", kind, f.style)
}

// FormatBuild renders the comment for a single build.
func (f *TemplateFormatter) FormatBuild(_ context.Context, build *core.BuildEvent) (*core.Message, error) {
	data := buildData{
		Build:    build,
		Name:     buildName(build),
		Result:   build.Result,
		Summary:  summary(build.Kind, build.Result),
		Duration: formatDuration(build.StartedAt, build.CompleteAt),
		HasTests: build.Properties.Has("tests_failed") || build.Properties.Has("tests_successful") || build.Properties.Has("tests_skipped"),
	}
	if len(build.SourceStamps) > 0 {
		data.Revision = build.SourceStamps[0].Revision
	}
	return f.render(BuildKind, build.Properties, data, data.Name)
}

// FormatBuildset renders the comment for a completed buildset.
func (f *TemplateFormatter) FormatBuildset(_ context.Context, buildset *core.BuildsetEvent) (*core.Message, error) {
	data := buildsetData{
		Buildset: buildset,
		Result:   buildset.Result,
		Summary:  summary(core.EventFinished, buildset.Result),
	}
	return f.render(BuildsetKind, buildset.Properties, data, fmt.Sprintf("Buildset %d", buildset.BSID))
}

func (f *TemplateFormatter) render(kind Kind, props core.Properties, data any, subject string) (*core.Message, error) {
	tmpl, msgType, err := f.get(kind)
	if err != nil {
		return nil, err
	}
	t, err := tmpl.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone template: %w", err)
	}
	t.Funcs(template.FuncMap{"prop": propFunc(props)})

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return &core.Message{
		Body:    strings.TrimSpace(buf.String()),
		Type:    msgType,
		Subject: subject,
	}, nil
}

type buildData struct {
	Build    *core.BuildEvent
	Name     string
	Result   core.Result
	Summary  string
	Duration string
	Revision string
	HasTests bool
}

type buildsetData struct {
	Buildset *core.BuildsetEvent
	Result   core.Result
	Summary  string
}

func newTemplate(name string) *template.Template {
	return template.New(name).Funcs(template.FuncMap{
		"prop":       propFunc(nil),
		"statusIcon": statusIcon,
	})
}

func propFunc(props core.Properties) func(string, ...any) any {
	return func(name string, def ...any) any {
		if v, ok := props.Get(name); ok {
			return v
		}
		if len(def) > 0 {
			return def[0]
		}
		return ""
	}
}

func buildName(b *core.BuildEvent) string {
	name := fmt.Sprintf("%s #%d", b.BuilderName, b.BuildNumber)
	if b.HasParent() {
		return fmt.Sprintf("%s #%d » %s", b.ParentBuilderName, b.ParentBuildNumber, name)
	}
	return name
}

func summary(kind core.EventKind, result core.Result) string {
	if kind == core.EventNew {
		return "started"
	}
	switch result {
	case core.Success:
		return "passed"
	case core.Warnings:
		return "passed with warnings"
	case core.Skipped:
		return "was skipped"
	case core.Cancelled:
		return "was cancelled"
	case core.Exception:
		return "hit an exception"
	case core.Retry:
		return "will be retried"
	default:
		return "failed"
	}
}

func statusIcon(result core.Result) string {
	switch result {
	case core.Success:
		return "✅"
	case core.Warnings:
		return "⚠️"
	case core.Skipped, core.Cancelled:
		return "⏭️"
	case core.Retry:
		return "🔁"
	default:
		return "❌"
	}
}

func formatDuration(started, complete *time.Time) string {
	if started == nil || complete == nil {
		return ""
	}
	return complete.Sub(*started).Round(time.Second).String()
}
