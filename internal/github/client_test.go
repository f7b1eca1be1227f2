package github_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	repostErrors "repost.dev/repost/internal/errors"
	"repost.dev/repost/internal/forge"
	"repost.dev/repost/internal/github"
	"repost.dev/repost/testhelpers"
)

func newClient(t *testing.T, cfg *testhelpers.MockGitHubServerConfig) *github.Client {
	t.Helper()
	ghClient, _ := testhelpers.NewMockGitHubClient(t, cfg)
	return github.NewClientFromGitHub(ghClient, forge.Repository{Owner: cfg.Owner, Name: cfg.Repo}, "https://github.com")
}

func TestFetchPullRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("same repository", func(t *testing.T) {
		cfg := testhelpers.NewMockGitHubServerConfig()
		cfg.Owner, cfg.Repo = "acme", "widgets"
		cfg.AddPR(testhelpers.NewGitHubPR(42, "alice", "Add caching", "Implements an LRU cache.", "acme/widgets", "feature/cache", "develop"))
		client := newClient(t, cfg)

		pr, err := client.FetchPullRequest(ctx, 42)
		require.NoError(t, err)
		require.Equal(t, 42, pr.Number)
		require.Equal(t, "alice", pr.Author)
		require.Equal(t, "Add caching", pr.Title)
		require.Equal(t, "Implements an LRU cache.", pr.Body)
		require.Equal(t, "feature/cache", pr.HeadBranch)
		require.Equal(t, "develop", pr.BaseBranch)
		require.False(t, pr.IsFork(client.Repository()))
	})

	t.Run("fork", func(t *testing.T) {
		cfg := testhelpers.NewMockGitHubServerConfig()
		cfg.Owner, cfg.Repo = "acme", "widgets"
		cfg.AddPR(testhelpers.NewGitHubPR(7, "bob", "Fix typo", "", "bob/widgets", "typo", "develop"))
		client := newClient(t, cfg)

		pr, err := client.FetchPullRequest(ctx, 7)
		require.NoError(t, err)
		require.Equal(t, "bob/widgets", pr.HeadRepoFullName)
		require.True(t, pr.IsFork(client.Repository()))
		require.Empty(t, pr.Body)
	})

	t.Run("deleted fork", func(t *testing.T) {
		cfg := testhelpers.NewMockGitHubServerConfig()
		cfg.AddPR(testhelpers.NewGitHubPR(3, "carol", "Orphan", "body", "", "orphan", "main"))
		client := newClient(t, cfg)

		pr, err := client.FetchPullRequest(ctx, 3)
		require.NoError(t, err)
		require.Empty(t, pr.HeadRepoFullName)
		require.False(t, pr.IsFork(client.Repository()))
	})

	t.Run("missing pull request", func(t *testing.T) {
		client := newClient(t, testhelpers.NewMockGitHubServerConfig())

		_, err := client.FetchPullRequest(ctx, 404)
		require.ErrorIs(t, err, repostErrors.ErrNotFound)

		var apiErr *repostErrors.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		require.Equal(t, "github", apiErr.Platform)
	})
}

func TestErrorClassification(t *testing.T) {
	ctx := context.Background()
	path := "GET /repos/owner/repo/pulls/1"

	tests := []struct {
		name string
		resp testhelpers.MockError
		want error
	}{
		{name: "unauthorized", resp: testhelpers.MockError{Status: http.StatusUnauthorized, Message: "Bad credentials"}, want: repostErrors.ErrAuth},
		{name: "forbidden", resp: testhelpers.MockError{Status: http.StatusForbidden, Message: "Resource not accessible"}, want: repostErrors.ErrAuth},
		{name: "server error", resp: testhelpers.MockError{Status: http.StatusBadGateway}, want: repostErrors.ErrTransient},
		{
			name: "rate limited",
			resp: testhelpers.MockError{
				Status:  http.StatusForbidden,
				Message: "API rate limit exceeded",
				Headers: map[string]string{
					"X-RateLimit-Limit":     "60",
					"X-RateLimit-Remaining": "0",
					"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
				},
			},
			want: repostErrors.ErrTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testhelpers.NewMockGitHubServerConfig()
			cfg.ErrorResponses[path] = tt.resp
			client := newClient(t, cfg)

			_, err := client.FetchPullRequest(ctx, 1)
			require.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unreachable API", func(t *testing.T) {
		cfg := testhelpers.NewMockGitHubServerConfig()
		ghClient, server := testhelpers.NewMockGitHubClient(t, cfg)
		server.Close()
		client := github.NewClientFromGitHub(ghClient, forge.Repository{Owner: "owner", Name: "repo"}, "https://github.com")

		_, err := client.FetchPullRequest(ctx, 1)
		require.ErrorIs(t, err, repostErrors.ErrTransient)
	})
}

func TestCreatePullRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a pull request", func(t *testing.T) {
		cfg := testhelpers.NewMockGitHubServerConfig()
		cfg.NextNumber = 43
		client := newClient(t, cfg)

		created, err := client.CreatePullRequest(ctx, forge.CreateOptions{
			Title: "[Repost] Add caching",
			Body:  "body",
			Head:  "pr42_fix",
			Base:  "develop",
			Draft: true,
		})
		require.NoError(t, err)
		require.Equal(t, 43, created.Number)
		require.Equal(t, "https://github.com/owner/repo/pull/43", created.URL)

		prs := cfg.Created()
		require.Len(t, prs, 1)
		require.Equal(t, "[Repost] Add caching", prs[0].GetTitle())
		require.Equal(t, "pr42_fix", prs[0].GetHead().GetRef())
		require.Equal(t, "develop", prs[0].GetBase().GetRef())
		require.True(t, prs[0].GetDraft())
	})

	t.Run("validation failure", func(t *testing.T) {
		client := newClient(t, testhelpers.NewMockGitHubServerConfig())

		_, err := client.CreatePullRequest(ctx, forge.CreateOptions{Title: "t", Head: "pr1_fix"})
		require.ErrorIs(t, err, repostErrors.ErrValidation)
	})
}

func TestFindOpenPullRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate create is a validation error and the open pull request is found", func(t *testing.T) {
		cfg := testhelpers.NewMockGitHubServerConfig()
		client := newClient(t, cfg)
		opts := forge.CreateOptions{Title: "t", Head: "pr42_fix", Base: "develop"}

		first, err := client.CreatePullRequest(ctx, opts)
		require.NoError(t, err)
		_, err = client.CreatePullRequest(ctx, opts)
		require.ErrorIs(t, err, repostErrors.ErrValidation)
		require.Contains(t, err.Error(), "A pull request already exists for owner:pr42_fix")

		found, err := client.FindOpenPullRequest(ctx, "pr42_fix", "develop")
		require.NoError(t, err)
		require.Equal(t, first.Number, found.Number)
		require.Equal(t, first.URL, found.URL)
		require.True(t, found.Existing)
	})

	t.Run("none open", func(t *testing.T) {
		client := newClient(t, testhelpers.NewMockGitHubServerConfig())

		_, err := client.FindOpenPullRequest(ctx, "pr42_fix", "develop")
		require.ErrorIs(t, err, repostErrors.ErrNotFound)
	})

	t.Run("different base", func(t *testing.T) {
		cfg := testhelpers.NewMockGitHubServerConfig()
		client := newClient(t, cfg)
		_, err := client.CreatePullRequest(ctx, forge.CreateOptions{Title: "t", Head: "pr42_fix", Base: "develop"})
		require.NoError(t, err)

		_, err = client.FindOpenPullRequest(ctx, "pr42_fix", "release")
		require.ErrorIs(t, err, repostErrors.ErrNotFound)
	})
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()
	repo := forge.Repository{Owner: "acme", Name: "widgets"}

	t.Run("github.com", func(t *testing.T) {
		client, err := github.NewClient(ctx, github.Options{Token: "t", Repository: repo})
		require.NoError(t, err)
		require.Equal(t, "https://api.github.com/", client.BaseURL())
		require.Equal(t, "https://github.com/acme/widgets.git", client.CloneURL("acme/widgets"))
		require.Equal(t, "refs/pull/42/head", client.PullRequestHeadRef(42))
		require.Equal(t, forge.PlatformGitHub, client.Platform())
	})

	t.Run("enterprise host", func(t *testing.T) {
		client, err := github.NewClient(ctx, github.Options{Token: "t", Repository: repo, Host: "github.example.com"})
		require.NoError(t, err)
		require.Equal(t, "https://github.example.com/api/v3/", client.BaseURL())
		require.Equal(t, "https://github.example.com/bob/widgets.git", client.CloneURL("bob/widgets"))
	})

	t.Run("explicit URLs", func(t *testing.T) {
		client, err := github.NewClient(ctx, github.Options{
			Token:      "t",
			Repository: repo,
			APIURL:     "http://127.0.0.1:8080/api",
			GitURL:     "/srv/git",
		})
		require.NoError(t, err)
		require.Equal(t, "http://127.0.0.1:8080/api/", client.BaseURL())
		require.Equal(t, "/srv/git/acme/widgets.git", client.CloneURL("acme/widgets"))
	})
}
