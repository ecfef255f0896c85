package reporter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/build-herald/internal/bitbucket"
	"github.com/sevigo/build-herald/internal/payload"
	"github.com/sevigo/build-herald/internal/source"
)

// coreAPIStatusPush posts rich build statuses to the core REST API.
type coreAPIStatusPush struct {
	builder *payload.Builder
}

// NewCoreAPIStatusPush creates a reporter for the per-build endpoint of the core
// REST API. Targets are resolved from the repository URL of the first source
// stamp.
func NewCoreAPIStatusPush(name string, client *bitbucket.Client, opts payload.Options, logger *slog.Logger, options ...Option) *Dispatcher {
	p := &coreAPIStatusPush{builder: payload.NewBuilder(opts, logger.With("reporter", name))}
	return newDispatcher(name, client, p, Events{New: true, Finished: true}, logger, options...)
}

func (p *coreAPIStatusPush) variant() string { return VariantCoreAPI }

func (p *coreAPIStatusPush) prepare(_ context.Context, d *Delivery) (*request, error) {
	target, rerr := source.Resolve(d.SourceStamps(), source.ScopeRepository)
	if rerr != nil {
		return nil, drop(rerr.Error())
	}

	var status *payload.BuildStatus
	var err error
	if d.Build != nil {
		status, err = p.builder.BuildStatus(d.Build, target)
	} else {
		status, err = p.builder.BuildsetStatus(d.Buildset, target)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build status payload: %w", err)
	}

	where := fmt.Sprintf("%s/%s %s", target.Project, target.Repository, target.Revision)
	return &request{
		path:    bitbucket.BuildStatusPath(target.Project, target.Repository, target.Revision),
		body:    status,
		state:   status.State,
		failure: statusFailure,
		sent:    fmt.Sprintf("Status %q sent for %s", status.State, where),
		target:  where,
	}, nil
}
