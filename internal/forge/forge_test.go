package forge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"repost.dev/repost/internal/forge"
)

func TestPullRequestIsFork(t *testing.T) {
	base := forge.Repository{Owner: "acme", Name: "widgets"}

	t.Run("different head repository is a fork", func(t *testing.T) {
		pr := &forge.PullRequest{HeadRepoFullName: "contributor/widgets"}
		require.True(t, pr.IsFork(base))
	})

	t.Run("same repository is not a fork", func(t *testing.T) {
		pr := &forge.PullRequest{HeadRepoFullName: "acme/widgets"}
		require.False(t, pr.IsFork(base))
	})

	t.Run("repository names compare case-insensitively", func(t *testing.T) {
		pr := &forge.PullRequest{HeadRepoFullName: "ACME/Widgets"}
		require.False(t, pr.IsFork(base))
	})

	t.Run("missing head repository is treated as same repository", func(t *testing.T) {
		pr := &forge.PullRequest{}
		require.False(t, pr.IsFork(base))
	})
}

func TestParsePlatform(t *testing.T) {
	p, err := forge.ParsePlatform("")
	require.NoError(t, err)
	require.Equal(t, forge.PlatformGitHub, p)

	p, err = forge.ParsePlatform("GitLab")
	require.NoError(t, err)
	require.Equal(t, forge.PlatformGitLab, p)

	_, err = forge.ParsePlatform("bitbucket")
	require.Error(t, err)
}

func TestJoinCloneURL(t *testing.T) {
	require.Equal(t, "https://github.com/acme/widgets.git", forge.JoinCloneURL("https://github.com/", "acme/widgets"))
	require.Equal(t, "/srv/git/acme/widgets.git", forge.JoinCloneURL("/srv/git", "acme/widgets"))
}
