// Package source resolves the remote addressing data of a build from its
// source stamps. Resolution is pure: it performs no I/O and reports failures as
// values so callers can drop the event and log a specific reason.
package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/sevigo/build-herald/internal/core"
)

// Scope selects which identifiers a target must carry.
type Scope int

const (
	// ScopeCommit needs only the revision (legacy per-commit endpoint).
	ScopeCommit Scope = iota
	// ScopeRepository needs project, repository and revision.
	ScopeRepository
)

// Reason tags a resolution failure.
type Reason string

const (
	NoSourceStamp        Reason = "no_sourcestamp"
	MissingRevision      Reason = "missing_revision"
	UnparsableRepository Reason = "unparsable_repository"
	MissingProject       Reason = "missing_project"
)

// ResolutionError describes why a target could not be resolved.
type ResolutionError struct {
	Reason     Reason
	SSID       int64
	Repository string
}

func (e *ResolutionError) Error() string {
	switch e.Reason {
	case MissingRevision:
		return fmt.Sprintf("Unable to get the commit hash for SSID: %d", e.SSID)
	case UnparsableRepository:
		return fmt.Sprintf("Unable to parse repository info from '%s' for SSID: %d", e.Repository, e.SSID)
	case MissingProject:
		return fmt.Sprintf("Unable to resolve project for SSID: %d", e.SSID)
	default:
		return "Unable to resolve target: build has no source stamp"
	}
}

// Target is the resolved addressing information for one status call.
type Target struct {
	SSID       int64
	Project    string
	Repository string
	Revision   string
	Branch     string
}

// Resolve extracts a target from the first source stamp.
func Resolve(stamps []core.SourceStamp, scope Scope) (Target, *ResolutionError) {
	if len(stamps) == 0 {
		return Target{}, &ResolutionError{Reason: NoSourceStamp}
	}
	ss := stamps[0]

	if ss.Revision == "" {
		return Target{}, &ResolutionError{Reason: MissingRevision, SSID: ss.SSID}
	}
	target := Target{SSID: ss.SSID, Revision: ss.Revision, Branch: ss.Branch}
	if scope == ScopeCommit {
		return target, nil
	}

	project, repo, err := ParseRepository(ss.Repository)
	if err != nil {
		return Target{}, &ResolutionError{Reason: UnparsableRepository, SSID: ss.SSID, Repository: ss.Repository}
	}
	if project == "" {
		return Target{}, &ResolutionError{Reason: MissingProject, SSID: ss.SSID, Repository: ss.Repository}
	}
	target.Project = project
	target.Repository = repo
	return target, nil
}

// scpLike matches user@host:path without a scheme. A backslash after the colon
// marks a Windows drive path.
var scpLike = regexp.MustCompile(`^(?:[^@/\s]+@)?[^:/\s]+:[^\\]`)

// ParseRepository splits a clone URL into project and repository slug. It accepts
// http(s), ssh, git and scp-like URLs. When the path holds a single segment the
// host stands in for the project. Local paths and file:// URLs yield the
// repository name with an empty project; the filesystem is never consulted.
func ParseRepository(repository string) (project, repo string, err error) {
	repository = strings.TrimSpace(repository)
	if repository == "" {
		return "", "", fmt.Errorf("empty repository")
	}
	if !strings.Contains(repository, "://") && !scpLike.MatchString(repository) {
		return localRepository(repository)
	}

	ep, err := transport.NewEndpoint(repository)
	if err != nil {
		return "", "", fmt.Errorf("invalid repository url %q: %w", repository, err)
	}

	segments := splitPath(ep.Path)
	if len(segments) == 0 {
		return "", "", fmt.Errorf("repository url %q has no path", repository)
	}

	repo = strings.TrimSuffix(segments[len(segments)-1], ".git")
	if repo == "" {
		return "", "", fmt.Errorf("repository url %q has an empty repository name", repository)
	}

	if ep.Protocol == "file" {
		return "", repo, nil
	}
	if len(segments) > 1 {
		project = segments[len(segments)-2]
	} else {
		project = ep.Host
	}
	return project, repo, nil
}

func localRepository(path string) (string, string, error) {
	segments := splitPath(strings.ReplaceAll(path, "\\", "/"))
	if len(segments) == 0 {
		return "", "", fmt.Errorf("repository path %q has no name", path)
	}
	repo := strings.TrimSuffix(segments[len(segments)-1], ".git")
	if repo == "" || repo == "." || repo == ".." {
		return "", "", fmt.Errorf("repository path %q has no name", path)
	}
	return "", repo, nil
}

func splitPath(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ResolveRef normalizes a branch into a fully-qualified ref. Refs that already
// start with "refs/" are returned unchanged. The boolean is false for an empty
// branch.
func ResolveRef(branch string) (string, bool) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return "", false
	}
	if strings.HasPrefix(branch, "refs/") {
		return branch, true
	}
	return plumbing.NewBranchReferenceName(branch).String(), true
}
