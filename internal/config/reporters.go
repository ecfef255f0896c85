package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/build-herald/internal/payload"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParsing  = errors.New("config parsing failed")
)

// Reporter types.
const (
	TypeStatus    = "status"
	TypeCoreAPI   = "core-api"
	TypePRComment = "pr-comment"
)

// Event names accepted in a reporter's events list.
const (
	EventNew       = "new"
	EventFinished  = "finished"
	EventBuildsets = "buildsets"
)

// ReporterConfig is one entry of the reporters file.
type ReporterConfig struct {
	Name             string    `yaml:"name"`
	Type             string    `yaml:"type"`
	Events           []string  `yaml:"events,omitempty"`
	StatusKey        FieldSpec `yaml:"status_key,omitempty"`
	StatusName       FieldSpec `yaml:"status_name,omitempty"`
	StatusSuffix     FieldSpec `yaml:"status_suffix,omitempty"`
	StartDescription FieldSpec `yaml:"start_description,omitempty"`
	EndDescription   FieldSpec `yaml:"end_description,omitempty"`
	ParentName       FieldSpec `yaml:"parent_name,omitempty"`
	BuildNumber      FieldSpec `yaml:"build_number,omitempty"`
	Ref              FieldSpec `yaml:"ref,omitempty"`
	Duration         FieldSpec `yaml:"duration,omitempty"`
	TestResults      FieldSpec `yaml:"test_results,omitempty"`
	Verbose          *bool     `yaml:"verbose,omitempty"`
	Style            string    `yaml:"style,omitempty"`
	Template         string    `yaml:"template,omitempty"`
	BuildsetTemplate string    `yaml:"buildset_template,omitempty"`
}

type reportersFile struct {
	Reporters []ReporterConfig `yaml:"reporters"`
}

// DefaultReporters is used when no reporters file exists: a single rich status
// reporter on new and finished builds.
func DefaultReporters() []ReporterConfig {
	return []ReporterConfig{{Name: "bitbucket", Type: TypeCoreAPI}}
}

// LoadReporters reads the reporter definitions from path. A missing file yields
// the defaults together with ErrConfigNotFound.
func LoadReporters(path string) ([]ReporterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultReporters(), ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseReporters(data)
}

// ParseReporters decodes a reporters document.
func ParseReporters(data []byte) ([]ReporterConfig, error) {
	var file reportersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigParsing, err)
	}
	for i := range file.Reporters {
		r := &file.Reporters[i]
		if r.Name == "" {
			r.Name = fmt.Sprintf("%s-%d", r.Type, i)
		}
	}
	return file.Reporters, nil
}

// Validate checks the reporter definition without building it.
func (r ReporterConfig) Validate() []error {
	var errs []error
	if !slices.Contains([]string{TypeStatus, TypeCoreAPI, TypePRComment}, r.Type) {
		errs = append(errs, fmt.Errorf("unknown type %q (expected %s, %s or %s)", r.Type, TypeStatus, TypeCoreAPI, TypePRComment))
	}
	for _, e := range r.Events {
		if !slices.Contains([]string{EventNew, EventFinished, EventBuildsets}, strings.ToLower(e)) {
			errs = append(errs, fmt.Errorf("unknown event %q", e))
		}
	}
	if _, err := r.PayloadOptions(); err != nil {
		errs = append(errs, err)
	}
	if r.Type == TypePRComment && r.StatusName.IsSet() {
		errs = append(errs, fmt.Errorf("status fields are not used by %s reporters", TypePRComment))
	}
	return errs
}

// HasEvent reports whether the events list names event. The boolean result
// is only meaningful when the list is non-empty.
func (r ReporterConfig) HasEvent(event string) bool {
	return slices.ContainsFunc(r.Events, func(e string) bool { return strings.EqualFold(e, event) })
}

// IsVerbose resolves the reporter verbosity against the global default.
func (r ReporterConfig) IsVerbose(global bool) bool {
	if r.Verbose != nil {
		return *r.Verbose
	}
	return global
}

// PayloadOptions compiles the field specs into payload options.
func (r ReporterConfig) PayloadOptions() (payload.Options, error) {
	var opts payload.Options
	fields := []struct {
		name string
		spec FieldSpec
		dst  *payload.Field
	}{
		{"status_key", r.StatusKey, &opts.StatusKey},
		{"status_name", r.StatusName, &opts.StatusName},
		{"status_suffix", r.StatusSuffix, &opts.StatusSuffix},
		{"start_description", r.StartDescription, &opts.StartDescription},
		{"end_description", r.EndDescription, &opts.EndDescription},
		{"parent_name", r.ParentName, &opts.ParentName},
		{"build_number", r.BuildNumber, &opts.BuildNumber},
		{"ref", r.Ref, &opts.Ref},
		{"duration", r.Duration, &opts.Duration},
		{"test_results", r.TestResults, &opts.TestResults},
	}
	for _, f := range fields {
		field, err := f.spec.Field()
		if err != nil {
			return payload.Options{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = field
	}
	return opts, nil
}

// FieldSpec is the YAML form of a payload field. A scalar is a constant, or a
// template when it contains "{{". A mapping holds one of expr, template, value
// or fields.
type FieldSpec struct {
	set      bool
	value    any
	template string
	expr     string
	fields   map[string]FieldSpec
}

// IsSet reports whether the field appeared in the document.
func (f FieldSpec) IsSet() bool {
	return f.set
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *FieldSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return err
		}
		if s, ok := v.(string); ok && strings.Contains(s, "{{") {
			*f = FieldSpec{set: true, template: s}
			return nil
		}
		*f = FieldSpec{set: true, value: v}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Expr     string               `yaml:"expr"`
			Template string               `yaml:"template"`
			Value    any                  `yaml:"value"`
			Fields   map[string]FieldSpec `yaml:"fields"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		n := 0
		for _, present := range []bool{raw.Expr != "", raw.Template != "", raw.Value != nil, raw.Fields != nil} {
			if present {
				n++
			}
		}
		if n != 1 {
			return fmt.Errorf("line %d: field must set exactly one of expr, template, value or fields", node.Line)
		}
		*f = FieldSpec{set: true, value: raw.Value, template: raw.Template, expr: raw.Expr, fields: raw.Fields}
		return nil
	default:
		return fmt.Errorf("line %d: field must be a scalar or a mapping", node.Line)
	}
}

// Field compiles f. An unset FieldSpec compiles to an unset field.
func (f FieldSpec) Field() (payload.Field, error) {
	switch {
	case !f.set:
		return payload.Field{}, nil
	case f.expr != "":
		return payload.Expression(f.expr)
	case f.template != "":
		return payload.Template(f.template)
	case f.fields != nil:
		members := make(map[string]payload.Field, len(f.fields))
		for name, spec := range f.fields {
			field, err := spec.Field()
			if err != nil {
				return payload.Field{}, fmt.Errorf("%s: %w", name, err)
			}
			members[name] = field
		}
		return payload.Object(members), nil
	default:
		return payload.Constant(f.value), nil
	}
}
