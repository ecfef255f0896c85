package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/sevigo/build-herald/internal/bitbucket"
	"github.com/sevigo/build-herald/internal/core"
)

// PullRequestURLProperty is the build property carrying the pull request URL.
const PullRequestURLProperty = "pullrequesturl"

const commentFailure = "Unable to send a comment"

var pullRequestPattern = regexp.MustCompile(`/projects/([^/]+)/repos/([^/]+)/pull-requests/(\d+)/?$`)

// PullRequest addresses a pull request on the server.
type PullRequest struct {
	Project    string
	Repository string
	ID         int
	URL        string
}

// ParsePullRequestURL extracts project, repository and id from a pull request
// web URL such as http://host/projects/PRO/repos/repo/pull-requests/20.
func ParsePullRequestURL(raw string) (PullRequest, error) {
	m := pullRequestPattern.FindStringSubmatch(raw)
	if m == nil {
		return PullRequest{}, fmt.Errorf("unable to parse pull request url '%s'", raw)
	}
	id, err := strconv.Atoi(m[3])
	if err != nil {
		return PullRequest{}, fmt.Errorf("invalid pull request id in '%s': %w", raw, err)
	}
	return PullRequest{Project: m[1], Repository: m[2], ID: id, URL: raw}, nil
}

// prCommentPush posts formatter rendered comments to a pull request.
type prCommentPush struct {
	formatter core.Formatter
}

// NewPRCommentPush creates a reporter that comments on the pull request named by
// the pullrequesturl property. By default it reacts to finished builds only.
func NewPRCommentPush(name string, client *bitbucket.Client, formatter core.Formatter, logger *slog.Logger, options ...Option) *Dispatcher {
	p := &prCommentPush{formatter: formatter}
	return newDispatcher(name, client, p, Events{Finished: true}, logger, options...)
}

func (p *prCommentPush) variant() string { return VariantPRComment }

func (p *prCommentPush) prepare(ctx context.Context, d *Delivery) (*request, error) {
	prURL := pullRequestURL(d)
	if prURL == "" {
		return nil, dropSilently()
	}
	pr, err := ParsePullRequestURL(prURL)
	if err != nil {
		return nil, drop(fmt.Sprintf("Unable to parse pull request info from '%s'", prURL))
	}

	var msg *core.Message
	if d.Build != nil {
		msg, err = p.formatter.FormatBuild(ctx, d.Build)
	} else {
		msg, err = p.formatter.FormatBuildset(ctx, d.Buildset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to format comment: %w", err)
	}

	return &request{
		path:    bitbucket.PullRequestCommentsPath(pr.Project, pr.Repository, pr.ID),
		body:    map[string]string{"text": msg.Body},
		failure: commentFailure,
		sent:    fmt.Sprintf("Comment sent to %s", pr.URL),
		target:  pr.URL,
	}, nil
}

// pullRequestURL looks at the delivery's own properties first. A buildset
// carries the property on its builds.
func pullRequestURL(d *Delivery) string {
	if u := d.Properties().GetString(PullRequestURLProperty, ""); u != "" {
		return u
	}
	if d.Buildset == nil {
		return ""
	}
	for _, b := range d.Buildset.Builds {
		if u := b.Properties.GetString(PullRequestURLProperty, ""); u != "" {
			return u
		}
	}
	return ""
}
