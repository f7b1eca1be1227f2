// Package gitlab implements the forge gateway for gitlab.com and self-managed GitLab.
// Merge requests play the role of pull requests.
package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gl "gitlab.com/gitlab-org/api/client-go"

	repostErrors "repost.dev/repost/internal/errors"
	"repost.dev/repost/internal/forge"
)

// DefaultHost is the public GitLab instance
const DefaultHost = "https://gitlab.com"

// draftPrefix marks a merge request as draft
const draftPrefix = "Draft: "

// Options configures a Client
type Options struct {
	Token      string
	Repository forge.Repository
	// Host is the base URL of the GitLab instance (e.g. "https://gitlab.com")
	Host string
	// APIURL overrides the API base URL derived from Host
	APIURL string
	// GitURL overrides the git base URL derived from Host
	GitURL  string
	Timeout time.Duration
}

// Client implements forge.Forge against the GitLab REST API
type Client struct {
	client *gl.Client
	repo   forge.Repository
	gitURL string
}

var _ forge.Forge = (*Client)(nil)

// NewClient validates opts and returns a GitLab gateway
func NewClient(opts Options) (*Client, error) {
	const errCtx = "creating gitlab client"

	if opts.Repository.Owner == "" || opts.Repository.Name == "" {
		return nil, fmt.Errorf("%s: repository must be set", errCtx)
	}

	host := opts.Host
	if host == "" {
		host = DefaultHost
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = host
	}

	clientOpts := []gl.ClientOptionFunc{
		gl.WithBaseURL(apiURL),
		gl.WithoutRetries(),
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, gl.WithHTTPClient(&http.Client{Timeout: opts.Timeout}))
	}

	client, err := gl.NewClient(opts.Token, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: new client: %w", errCtx, err)
	}

	gitURL := opts.GitURL
	if gitURL == "" {
		gitURL = host
	}

	return &Client{
		client: client,
		repo:   opts.Repository,
		gitURL: gitURL,
	}, nil
}

// Platform returns forge.PlatformGitLab
func (c *Client) Platform() forge.Platform {
	return forge.PlatformGitLab
}

// Repository returns the target project
func (c *Client) Repository() forge.Repository {
	return c.repo
}

// CloneURL returns the git URL of a project on the same instance
func (c *Client) CloneURL(fullName string) string {
	return forge.JoinCloneURL(c.gitURL, fullName)
}

// PullRequestHeadRef returns refs/merge-requests/<iid>/head
func (c *Client) PullRequestHeadRef(number int) string {
	return fmt.Sprintf("refs/merge-requests/%d/head", number)
}

// FetchPullRequest reads a merge request's metadata.
// For merge requests from a fork the source project's path is looked up;
// a source project that no longer exists leaves HeadRepoFullName empty.
func (c *Client) FetchPullRequest(ctx context.Context, number int) (*forge.PullRequest, error) {
	op := fmt.Sprintf("get merge request !%d", number)

	mr, err := getMergeRequest(ctx, c.client.MergeRequests.GetMergeRequest, c.repo.FullName(), number)
	if err != nil {
		return nil, classifyError(op, err)
	}

	pr := &forge.PullRequest{
		Number:           int(mr.IID),
		Title:            mr.Title,
		Body:             mr.Description,
		HeadBranch:       mr.SourceBranch,
		BaseBranch:       mr.TargetBranch,
		URL:              mr.WebURL,
		HeadRepoFullName: c.repo.FullName(),
	}
	if mr.Author != nil {
		pr.Author = mr.Author.Username
	}

	if mr.SourceProjectID != mr.TargetProjectID {
		project, _, err := c.client.Projects.GetProject(mr.SourceProjectID, nil, gl.WithContext(ctx))
		switch {
		case err == nil:
			pr.HeadRepoFullName = project.PathWithNamespace
		case isNotFound(err):
			pr.HeadRepoFullName = ""
		default:
			return nil, classifyError(fmt.Sprintf("get source project of !%d", number), err)
		}
	}

	return pr, nil
}

// CreatePullRequest opens a merge request against the target project
func (c *Client) CreatePullRequest(ctx context.Context, opts forge.CreateOptions) (*forge.CreatedPullRequest, error) {
	title := opts.Title
	if opts.Draft && !strings.HasPrefix(title, draftPrefix) {
		title = draftPrefix + title
	}

	created, _, err := c.client.MergeRequests.CreateMergeRequest(
		c.repo.FullName(),
		&gl.CreateMergeRequestOptions{
			Title:        &title,
			Description:  &opts.Body,
			SourceBranch: &opts.Head,
			TargetBranch: &opts.Base,
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, classifyError("create merge request", err)
	}

	return &forge.CreatedPullRequest{
		Number: int(created.IID),
		URL:    created.WebURL,
	}, nil
}

// FindOpenPullRequest returns the opened merge request from head into base
func (c *Client) FindOpenPullRequest(ctx context.Context, head, base string) (*forge.CreatedPullRequest, error) {
	op := fmt.Sprintf("list merge requests for %s", head)
	mrs, _, err := c.client.MergeRequests.ListProjectMergeRequests(
		c.repo.FullName(),
		&gl.ListProjectMergeRequestsOptions{
			State:        gl.Ptr("opened"),
			SourceBranch: &head,
			TargetBranch: &base,
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, classifyError(op, err)
	}
	if len(mrs) == 0 {
		return nil, &repostErrors.APIError{Platform: platformName, Op: op, Kind: repostErrors.ErrNotFound, Message: "no opened merge request"}
	}
	return &forge.CreatedPullRequest{
		Number:   int(mrs[0].IID),
		URL:      mrs[0].WebURL,
		Existing: true,
	}, nil
}

// getMergeRequest adapts the merge request getter to an int number whatever
// integer type the client uses for internal IDs.
func getMergeRequest[N ~int | ~int64](
	ctx context.Context,
	get func(pid any, mergeRequest N, opt *gl.GetMergeRequestsOptions, options ...gl.RequestOptionFunc) (*gl.MergeRequest, *gl.Response, error),
	project string,
	number int,
) (*gl.MergeRequest, error) {
	mr, _, err := get(project, N(number), nil, gl.WithContext(ctx))
	return mr, err
}
