// Package github implements the forge gateway for GitHub and GitHub Enterprise.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	repostErrors "repost.dev/repost/internal/errors"
	"repost.dev/repost/internal/forge"
)

// DefaultHost is the public GitHub host
const DefaultHost = "github.com"

// Options configures a Client
type Options struct {
	Token      string
	Repository forge.Repository
	// Host is the GitHub hostname; anything other than github.com is treated as Enterprise
	Host string
	// APIURL overrides the REST API base URL derived from Host
	APIURL string
	// GitURL overrides the git base URL derived from Host
	GitURL  string
	Timeout time.Duration
}

// Client implements forge.Forge against the GitHub REST API
type Client struct {
	client *github.Client
	repo   forge.Repository
	gitURL string
}

var _ forge.Forge = (*Client)(nil)

// NewClient creates a GitHub gateway
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	host := opts.Host
	if host == "" {
		host = DefaultHost
	}

	client, err := createGitHubClient(ctx, host, opts.Token, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	if opts.APIURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("failed to parse API URL %s: %w", opts.APIURL, err)
		}
		client.BaseURL = baseURL
		client.UploadURL = baseURL
	}

	gitURL := opts.GitURL
	if gitURL == "" {
		gitURL = "https://" + host
	}

	return &Client{
		client: client,
		repo:   opts.Repository,
		gitURL: gitURL,
	}, nil
}

// NewClientFromGitHub wraps an already configured go-github client
func NewClientFromGitHub(client *github.Client, repo forge.Repository, gitURL string) *Client {
	return &Client{client: client, repo: repo, gitURL: gitURL}
}

// createGitHubClient creates a GitHub client configured for the given hostname
// Supports both github.com and GitHub Enterprise instances
func createGitHubClient(ctx context.Context, hostname, token string, timeout time.Duration) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	if timeout > 0 {
		tc.Timeout = timeout
	}
	client := github.NewClient(tc)

	// Configure for GitHub Enterprise if not github.com
	if hostname != DefaultHost {
		// REST API: https://hostname/api/v3/
		// Upload API: https://hostname/api/uploads/
		baseURL, err := url.Parse(fmt.Sprintf("https://%s/api/v3/", hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL for hostname %s: %w", hostname, err)
		}
		uploadURL, err := url.Parse(fmt.Sprintf("https://%s/api/uploads/", hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse upload URL for hostname %s: %w", hostname, err)
		}

		client.BaseURL = baseURL
		client.UploadURL = uploadURL
	}

	return client, nil
}

// Platform returns forge.PlatformGitHub
func (c *Client) Platform() forge.Platform {
	return forge.PlatformGitHub
}

// Repository returns the base repository
func (c *Client) Repository() forge.Repository {
	return c.repo
}

// BaseURL returns the REST API base URL in use
func (c *Client) BaseURL() string {
	return c.client.BaseURL.String()
}

// CloneURL returns the git URL of a repository on the same host
func (c *Client) CloneURL(fullName string) string {
	return forge.JoinCloneURL(c.gitURL, fullName)
}

// PullRequestHeadRef returns refs/pull/<n>/head
func (c *Client) PullRequestHeadRef(number int) string {
	return fmt.Sprintf("refs/pull/%d/head", number)
}

// FetchPullRequest reads a pull request's metadata
func (c *Client) FetchPullRequest(ctx context.Context, number int) (*forge.PullRequest, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, c.repo.Owner, c.repo.Name, number)
	if err != nil {
		return nil, classifyError(fmt.Sprintf("get pull request #%d", number), err)
	}
	return toPullRequest(pr), nil
}

// CreatePullRequest opens a new pull request against the base repository
func (c *Client) CreatePullRequest(ctx context.Context, opts forge.CreateOptions) (*forge.CreatedPullRequest, error) {
	pr := &github.NewPullRequest{
		Title: github.String(opts.Title),
		Head:  github.String(opts.Head),
		Base:  github.String(opts.Base),
		Draft: github.Bool(opts.Draft),
	}

	if opts.Body != "" {
		pr.Body = github.String(opts.Body)
	}

	createdPR, _, err := c.client.PullRequests.Create(ctx, c.repo.Owner, c.repo.Name, pr)
	if err != nil {
		return nil, classifyError("create pull request", err)
	}

	return &forge.CreatedPullRequest{
		Number: createdPR.GetNumber(),
		URL:    createdPR.GetHTMLURL(),
	}, nil
}

// FindOpenPullRequest returns the open pull request from head into base.
// Head is qualified with the base owner so only same-repository branches match.
func (c *Client) FindOpenPullRequest(ctx context.Context, head, base string) (*forge.CreatedPullRequest, error) {
	op := fmt.Sprintf("list pull requests for %s", head)
	prs, _, err := c.client.PullRequests.List(ctx, c.repo.Owner, c.repo.Name, &github.PullRequestListOptions{
		State: "open",
		Head:  c.repo.Owner + ":" + head,
		Base:  base,
	})
	if err != nil {
		return nil, classifyError(op, err)
	}
	if len(prs) == 0 {
		return nil, &repostErrors.APIError{Platform: platformName, Op: op, Kind: repostErrors.ErrNotFound, Message: "no open pull request"}
	}
	return &forge.CreatedPullRequest{
		Number:   prs[0].GetNumber(),
		URL:      prs[0].GetHTMLURL(),
		Existing: true,
	}, nil
}

// toPullRequest converts a github.PullRequest to forge.PullRequest.
// A missing head repository (deleted fork) is left empty.
func toPullRequest(pr *github.PullRequest) *forge.PullRequest {
	if pr == nil {
		return nil
	}

	info := &forge.PullRequest{
		Number:     pr.GetNumber(),
		Author:     pr.GetUser().GetLogin(),
		Title:      pr.GetTitle(),
		Body:       pr.GetBody(),
		HeadBranch: pr.GetHead().GetRef(),
		BaseBranch: pr.GetBase().GetRef(),
		URL:        pr.GetHTMLURL(),
	}
	if head := pr.GetHead(); head != nil && head.Repo != nil {
		info.HeadRepoFullName = head.Repo.GetFullName()
	}

	return info
}
