package jobs

import (
	"errors"
	"fmt"

	"github.com/sevigo/build-herald/internal/core"
)

// ErrInvalidEvent wraps every validation failure of an incoming event.
var ErrInvalidEvent = errors.New("invalid event")

// ValidateEvent checks that the record carried by an event matches its topic.
func ValidateEvent(event *core.Event) error {
	if event == nil {
		return fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}
	switch event.Topic {
	case core.TopicBuildNew, core.TopicBuildFinished:
		if event.Build == nil || event.Buildset != nil {
			return fmt.Errorf("%w: topic %s requires a build record", ErrInvalidEvent, event.Topic)
		}
		want := core.EventNew
		if event.Topic == core.TopicBuildFinished {
			want = core.EventFinished
		}
		if event.Build.Kind == "" {
			event.Build.Kind = want
		}
		if event.Build.Kind != want {
			return fmt.Errorf("%w: build kind %q does not match topic %s", ErrInvalidEvent, event.Build.Kind, event.Topic)
		}
		if event.Build.BuilderName == "" {
			return fmt.Errorf("%w: build %d has no builder name", ErrInvalidEvent, event.Build.BuildID)
		}
		if want == core.EventFinished && !event.Build.Result.Valid() {
			return fmt.Errorf("%w: finished build %d has no valid result (%s)", ErrInvalidEvent, event.Build.BuildID, event.Build.Result)
		}
	case core.TopicBuildsetComplete:
		if event.Buildset == nil || event.Build != nil {
			return fmt.Errorf("%w: topic %s requires a buildset record", ErrInvalidEvent, event.Topic)
		}
		if !event.Buildset.Result.Valid() {
			return fmt.Errorf("%w: buildset %d has no valid result (%s)", ErrInvalidEvent, event.Buildset.BSID, event.Buildset.Result)
		}
	default:
		return fmt.Errorf("%w: unknown topic %q", ErrInvalidEvent, event.Topic)
	}
	return nil
}
