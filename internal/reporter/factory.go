package reporter

import (
	"fmt"
	"log/slog"

	"github.com/sevigo/build-herald/internal/bitbucket"
	"github.com/sevigo/build-herald/internal/config"
	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/formatter"
)

// FromConfig builds a reporter from its definition. Shared options, such as
// the journal and the telemetry recorder, are applied before the definition's
// own settings.
func FromConfig(def config.ReporterConfig, client *bitbucket.Client, globalVerbose bool, logger *slog.Logger, shared ...Option) (*Dispatcher, error) {
	options := append([]Option{}, shared...)
	options = append(options, WithVerbose(def.IsVerbose(globalVerbose)))
	if len(def.Events) > 0 {
		options = append(options, WithEvents(Events{
			New:       def.HasEvent(config.EventNew),
			Finished:  def.HasEvent(config.EventFinished),
			Buildsets: def.HasEvent(config.EventBuildsets),
		}))
	}

	switch def.Type {
	case config.TypeStatus, config.TypeCoreAPI:
		opts, err := def.PayloadOptions()
		if err != nil {
			return nil, fmt.Errorf("reporter %q: %w", def.Name, err)
		}
		if def.Type == config.TypeStatus {
			return NewStatusPush(def.Name, client, opts, logger, options...), nil
		}
		return NewCoreAPIStatusPush(def.Name, client, opts, logger, options...), nil
	case config.TypePRComment:
		f, err := formatter.New(
			formatter.WithStyle(def.Style),
			formatter.WithBuildTemplate(def.Template),
			formatter.WithBuildsetTemplate(def.BuildsetTemplate),
		)
		if err != nil {
			return nil, fmt.Errorf("reporter %q: %w", def.Name, err)
		}
		return NewPRCommentPush(def.Name, client, f, logger, options...), nil
	default:
		return nil, fmt.Errorf("reporter %q: unknown type %q", def.Name, def.Type)
	}
}

// BuildAll builds every configured reporter.
func BuildAll(defs []config.ReporterConfig, client *bitbucket.Client, globalVerbose bool, logger *slog.Logger, shared ...Option) ([]core.Reporter, error) {
	reporters := make([]core.Reporter, 0, len(defs))
	for _, def := range defs {
		r, err := FromConfig(def, client, globalVerbose, logger, shared...)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, r)
	}
	return reporters, nil
}
