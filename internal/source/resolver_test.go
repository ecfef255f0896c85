package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/build-herald/internal/core"
)

func TestParseRepository(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantProject string
		wantRepo    string
		wantErr     bool
	}{
		{
			name:        "Host stands in for project",
			url:         "https://example.org/repo",
			wantProject: "example.org",
			wantRepo:    "repo",
		},
		{
			name:        "Bitbucket Server HTTP clone URL",
			url:         "https://bitbucket.example.com/scm/PRO/myrepo.git",
			wantProject: "PRO",
			wantRepo:    "myrepo",
		},
		{
			name:        "SSH URL with port",
			url:         "ssh://git@bitbucket.example.com:7999/pro/myrepo.git",
			wantProject: "pro",
			wantRepo:    "myrepo",
		},
		{
			name:        "SCP-like URL",
			url:         "git@bitbucket.example.com:pro/myrepo.git",
			wantProject: "pro",
			wantRepo:    "myrepo",
		},
		{
			name:        "Trailing slash",
			url:         "https://example.org/pro/repo/",
			wantProject: "pro",
			wantRepo:    "repo",
		},
		{
			name:     "Relative path has no project",
			url:      "./myrepo",
			wantRepo: "myrepo",
		},
		{
			name:     "Bare name has no project",
			url:      "repo",
			wantRepo: "repo",
		},
		{
			name:     "Nested relative path has no project",
			url:      "checkouts/pro/repo.git",
			wantRepo: "repo",
		},
		{
			name:     "Absolute path has no project",
			url:      "/srv/git/pro/repo",
			wantRepo: "repo",
		},
		{
			name:     "Windows path has no project",
			url:      `C:\work\repo`,
			wantRepo: "repo",
		},
		{
			name:     "File URL has no project",
			url:      "file:///srv/git/pro/repo.git",
			wantRepo: "repo",
		},
		{
			name:    "Parent directory only",
			url:     "..",
			wantErr: true,
		},
		{
			name:    "Empty repository",
			url:     "",
			wantErr: true,
		},
		{
			name:    "Host only",
			url:     "https://example.org/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, repo, err := ParseRepository(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProject, project)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestResolve(t *testing.T) {
	stamp := core.SourceStamp{
		SSID:       234,
		Repository: "https://example.org/repo",
		Revision:   "d34db33fd43db33f",
		Branch:     "master",
	}

	t.Run("Repository scope", func(t *testing.T) {
		target, rerr := Resolve([]core.SourceStamp{stamp}, ScopeRepository)
		require.Nil(t, rerr)
		assert.Equal(t, Target{SSID: 234, Project: "example.org", Repository: "repo", Revision: "d34db33fd43db33f", Branch: "master"}, target)
	})

	t.Run("Commit scope ignores repository", func(t *testing.T) {
		ss := stamp
		ss.Repository = ""
		target, rerr := Resolve([]core.SourceStamp{ss}, ScopeCommit)
		require.Nil(t, rerr)
		assert.Equal(t, "d34db33fd43db33f", target.Revision)
		assert.Empty(t, target.Project)
	})

	t.Run("Uses the first source stamp", func(t *testing.T) {
		other := stamp
		other.Revision = "cafebabe"
		target, rerr := Resolve([]core.SourceStamp{stamp, other}, ScopeCommit)
		require.Nil(t, rerr)
		assert.Equal(t, "d34db33fd43db33f", target.Revision)
	})

	t.Run("Missing revision", func(t *testing.T) {
		ss := stamp
		ss.Revision = ""
		_, rerr := Resolve([]core.SourceStamp{ss}, ScopeRepository)
		require.NotNil(t, rerr)
		assert.Equal(t, MissingRevision, rerr.Reason)
		assert.Equal(t, "Unable to get the commit hash for SSID: 234", rerr.Error())
	})

	t.Run("Missing repository", func(t *testing.T) {
		ss := stamp
		ss.Repository = ""
		_, rerr := Resolve([]core.SourceStamp{ss}, ScopeRepository)
		require.NotNil(t, rerr)
		assert.Equal(t, UnparsableRepository, rerr.Reason)
		assert.Equal(t, "Unable to parse repository info from '' for SSID: 234", rerr.Error())
	})

	t.Run("Local path without project", func(t *testing.T) {
		for _, repository := range []string{"repo", "./myrepo", "../pro/repo", "/repo", "file:///repo"} {
			ss := stamp
			ss.Repository = repository
			target, rerr := Resolve([]core.SourceStamp{ss}, ScopeRepository)
			require.NotNil(t, rerr, repository)
			assert.Equal(t, MissingProject, rerr.Reason, repository)
			assert.Empty(t, target.Project, repository)
		}
	})

	t.Run("No source stamps", func(t *testing.T) {
		_, rerr := Resolve(nil, ScopeCommit)
		require.NotNil(t, rerr)
		assert.Equal(t, NoSourceStamp, rerr.Reason)
	})
}

func TestResolveRef(t *testing.T) {
	tests := []struct {
		branch string
		want   string
		ok     bool
	}{
		{branch: "master", want: "refs/heads/master", ok: true},
		{branch: "feature/x", want: "refs/heads/feature/x", ok: true},
		{branch: "refs/heads/master", want: "refs/heads/master", ok: true},
		{branch: "refs/pull/34/merge", want: "refs/pull/34/merge", ok: true},
		{branch: "", want: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			got, ok := ResolveRef(tt.branch)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
