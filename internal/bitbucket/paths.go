package bitbucket

import (
	"fmt"
	"net/url"
	"strconv"
)

// CommitStatusPath is the legacy build-status endpoint for a commit.
func CommitStatusPath(revision string) string {
	return "/rest/build-status/1.0/commits/" + url.PathEscape(revision)
}

// BuildStatusPath is the core API build endpoint for a commit of a repository.
func BuildStatusPath(project, repo, revision string) string {
	return fmt.Sprintf("/rest/api/1.0/projects/%s/repos/%s/commits/%s/builds",
		url.PathEscape(project), url.PathEscape(repo), url.PathEscape(revision))
}

// PullRequestCommentsPath is the comment endpoint of a pull request.
func PullRequestCommentsPath(project, repo string, id int) string {
	return fmt.Sprintf("/rest/api/1.0/projects/%s/repos/%s/pull-requests/%s/comments",
		url.PathEscape(project), url.PathEscape(repo), strconv.Itoa(id))
}
