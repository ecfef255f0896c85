package reporter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/build-herald/internal/bitbucket"
	"github.com/sevigo/build-herald/internal/payload"
	"github.com/sevigo/build-herald/internal/source"
)

const (
	VariantStatus    = "status"
	VariantCoreAPI   = "core-api"
	VariantPRComment = "pr-comment"
)

const statusFailure = "Unable to send Bitbucket Server status"

// statusPush posts to the legacy per-commit build-status endpoint.
type statusPush struct {
	builder *payload.Builder
}

// NewStatusPush creates a reporter for the legacy commit status endpoint. It
// reacts to new and finished builds unless WithEvents says otherwise.
func NewStatusPush(name string, client *bitbucket.Client, opts payload.Options, logger *slog.Logger, options ...Option) *Dispatcher {
	p := &statusPush{builder: payload.NewBuilder(opts, logger.With("reporter", name))}
	return newDispatcher(name, client, p, Events{New: true, Finished: true}, logger, options...)
}

func (p *statusPush) variant() string { return VariantStatus }

func (p *statusPush) prepare(_ context.Context, d *Delivery) (*request, error) {
	target, rerr := source.Resolve(d.SourceStamps(), source.ScopeCommit)
	if rerr != nil {
		return nil, drop(rerr.Error())
	}

	var status *payload.CommitStatus
	var err error
	if d.Build != nil {
		status, err = p.builder.CommitStatus(d.Build)
	} else {
		status, err = p.builder.BuildsetCommitStatus(d.Buildset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build status payload: %w", err)
	}

	return &request{
		path:    bitbucket.CommitStatusPath(target.Revision),
		body:    status,
		state:   status.State,
		failure: statusFailure,
		sent:    fmt.Sprintf("Status %q sent for %s", status.State, target.Revision),
		target:  target.Revision,
	}, nil
}
