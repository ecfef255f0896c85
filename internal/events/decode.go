// Package events turns build orchestration messages into core events. Records
// arrive as JSON, either from Kafka topics or from the HTTP ingestion endpoint.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sevigo/build-herald/internal/core"
)

// Topics lists every topic the dispatcher understands.
var Topics = []string{core.TopicBuildNew, core.TopicBuildFinished, core.TopicBuildsetComplete}

// Decode parses value as the record of topic. The build kind is taken from the
// topic, so producers do not need to set it. A record without results decodes
// to core.ResultUnknown.
func Decode(topic string, value []byte) (*core.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()

	switch topic {
	case core.TopicBuildNew, core.TopicBuildFinished:
		build := core.BuildEvent{Result: core.ResultUnknown}
		if err := dec.Decode(&build); err != nil {
			return nil, fmt.Errorf("failed to decode build record on %s: %w", topic, err)
		}
		build.Kind = core.EventNew
		if topic == core.TopicBuildFinished {
			build.Kind = core.EventFinished
		}
		build.Properties = normalize(build.Properties)
		return &core.Event{Topic: topic, Build: &build}, nil
	case core.TopicBuildsetComplete:
		buildset := core.BuildsetEvent{Result: core.ResultUnknown}
		if err := dec.Decode(&buildset); err != nil {
			return nil, fmt.Errorf("failed to decode buildset record on %s: %w", topic, err)
		}
		buildset.Properties = normalize(buildset.Properties)
		for i := range buildset.Builds {
			buildset.Builds[i].Kind = core.EventFinished
			buildset.Builds[i].Properties = normalize(buildset.Builds[i].Properties)
		}
		return &core.Event{Topic: topic, Buildset: &buildset}, nil
	default:
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
}

// normalize converts json.Number values so computed fields see int64 or
// float64 instead of strings.
func normalize(props core.Properties) core.Properties {
	for k, v := range props {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			props[k] = i
		} else if f, err := n.Float64(); err == nil {
			props[k] = f
		}
	}
	return props
}

// TrimPrefix removes the configured topic prefix, returning false for topics
// outside of it.
func TrimPrefix(prefix, topic string) (string, bool) {
	if prefix == "" {
		return topic, true
	}
	return strings.CutPrefix(topic, prefix)
}
