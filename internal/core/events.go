// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"fmt"
	"strconv"
	"time"
)

// EventKind is the lifecycle position a build event reports.
type EventKind string

const (
	EventNew      EventKind = "new"
	EventFinished EventKind = "finished"
)

// Topics delivered by the build orchestration event bus.
const (
	TopicBuildNew         = "builds.new"
	TopicBuildFinished    = "builds.finished"
	TopicBuildsetComplete = "buildsets.complete"
)

// SourceStamp identifies which repository and revision a build ran against.
type SourceStamp struct {
	SSID       int64  `json:"ssid"`
	Project    string `json:"project"`
	Repository string `json:"repository"`
	Revision   string `json:"revision,omitempty"`
	// Branch may be a short name ("master") or a fully-qualified ref.
	Branch string `json:"branch,omitempty"`
}

// BuildEvent is an immutable snapshot of a build handed to reporters once per
// lifecycle transition.
type BuildEvent struct {
	Kind              EventKind     `json:"kind"`
	BuildID           int64         `json:"build_id"`
	BuilderName       string        `json:"builder_name"`
	ParentBuilderName string        `json:"parent_builder_name,omitempty"`
	ParentBuildNumber int           `json:"parent_build_number,omitempty"`
	BuildNumber       int           `json:"build_number"`
	URL               string        `json:"url"`
	SourceStamps      []SourceStamp `json:"sourcestamps"`
	StartedAt         *time.Time    `json:"started_at,omitempty"`
	CompleteAt        *time.Time    `json:"complete_at,omitempty"`
	Result            Result        `json:"results"`
	Properties        Properties    `json:"properties,omitempty"`
}

// Key returns the ordering key of the build. Events sharing a key are processed
// in arrival order.
func (b *BuildEvent) Key() string {
	return strconv.FormatInt(b.BuildID, 10)
}

// HasParent reports whether the build was triggered by a parent builder.
func (b *BuildEvent) HasParent() bool {
	return b.ParentBuilderName != ""
}

// BuildsetEvent is the aggregate record delivered when every build of a
// buildset has completed.
type BuildsetEvent struct {
	BSID         int64         `json:"bsid"`
	Reason       string        `json:"reason,omitempty"`
	URL          string        `json:"url,omitempty"`
	SourceStamps []SourceStamp `json:"sourcestamps"`
	Builds       []BuildEvent  `json:"builds,omitempty"`
	Result       Result        `json:"results"`
	SubmittedAt  *time.Time    `json:"submitted_at,omitempty"`
	CompleteAt   *time.Time    `json:"complete_at,omitempty"`
	Properties   Properties    `json:"properties,omitempty"`
}

// Key returns the ordering key of the buildset.
func (bs *BuildsetEvent) Key() string {
	return fmt.Sprintf("bs-%d", bs.BSID)
}

// Event is the envelope queued by event sources. Exactly one of Build and
// Buildset is set.
type Event struct {
	Topic    string
	Build    *BuildEvent
	Buildset *BuildsetEvent
}

// Key returns the ordering key of the wrapped record.
func (e *Event) Key() string {
	if e.Build != nil {
		return e.Build.Key()
	}
	if e.Buildset != nil {
		return e.Buildset.Key()
	}
	return ""
}
