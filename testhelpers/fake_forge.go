package testhelpers

import (
	"context"
	"fmt"
	"sync"

	repostErrors "repost.dev/repost/internal/errors"
	"repost.dev/repost/internal/forge"
)

// FakeForge is an in-memory forge.Forge whose git URLs point at a Scene's GitRoot.
type FakeForge struct {
	Repo    forge.Repository
	GitURL  string
	PRs     map[int]*forge.PullRequest
	Created []forge.CreateOptions
	// FetchErr, CreateErr and FindErr are returned instead of performing the call when set
	FetchErr  error
	CreateErr error
	FindErr   error
	// NextNumber is the number given to the next created PR
	NextNumber int

	mu sync.Mutex
}

var _ forge.Forge = (*FakeForge)(nil)

// NewFakeForge creates a FakeForge for the repository fullName served from gitURL.
func NewFakeForge(owner, name, gitURL string) *FakeForge {
	return &FakeForge{
		Repo:       forge.Repository{Owner: owner, Name: name},
		GitURL:     gitURL,
		PRs:        make(map[int]*forge.PullRequest),
		NextNumber: 100,
	}
}

// AddPR registers a pull request.
func (f *FakeForge) AddPR(pr *forge.PullRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PRs[pr.Number] = pr
}

// CreatedPRs returns a snapshot of the create calls.
func (f *FakeForge) CreatedPRs() []forge.CreateOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]forge.CreateOptions(nil), f.Created...)
}

// Platform returns forge.PlatformGitHub.
func (f *FakeForge) Platform() forge.Platform {
	return forge.PlatformGitHub
}

// Repository returns the base repository.
func (f *FakeForge) Repository() forge.Repository {
	return f.Repo
}

// FetchPullRequest returns a registered pull request.
func (f *FakeForge) FetchPullRequest(_ context.Context, number int) (*forge.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	pr, ok := f.PRs[number]
	if !ok {
		return nil, &repostErrors.APIError{
			Platform:   "fake",
			Op:         fmt.Sprintf("get pull request #%d", number),
			StatusCode: 404,
			Kind:       repostErrors.ErrNotFound,
		}
	}
	prCopy := *pr
	return &prCopy, nil
}

// CreatePullRequest records the call and returns a new PR number.
func (f *FakeForge) CreatePullRequest(_ context.Context, opts forge.CreateOptions) (*forge.CreatedPullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if f.openIndex(opts.Head, opts.Base) >= 0 {
		return nil, &repostErrors.APIError{
			Platform:   "fake",
			Op:         "create pull request",
			StatusCode: 422,
			Kind:       repostErrors.ErrValidation,
			Message:    "a pull request already exists for " + opts.Head,
		}
	}
	f.Created = append(f.Created, opts)
	number := f.NextNumber
	f.NextNumber++
	return &forge.CreatedPullRequest{
		Number: number,
		URL:    f.pullURL(number),
	}, nil
}

// FindOpenPullRequest returns the created PR from head into base.
func (f *FakeForge) FindOpenPullRequest(_ context.Context, head, base string) (*forge.CreatedPullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	i := f.openIndex(head, base)
	if i < 0 {
		return nil, &repostErrors.APIError{Platform: "fake", Op: "list pull requests", Kind: repostErrors.ErrNotFound}
	}
	// Created numbers are assigned in order from the first NextNumber
	number := f.NextNumber - len(f.Created) + i
	return &forge.CreatedPullRequest{Number: number, URL: f.pullURL(number), Existing: true}, nil
}

func (f *FakeForge) openIndex(head, base string) int {
	for i, c := range f.Created {
		if c.Head == head && c.Base == base {
			return i
		}
	}
	return -1
}

func (f *FakeForge) pullURL(number int) string {
	return fmt.Sprintf("https://github.com/%s/pull/%d", f.Repo.FullName(), number)
}

// CloneURL returns the bare repository path under GitURL.
func (f *FakeForge) CloneURL(fullName string) string {
	return forge.JoinCloneURL(f.GitURL, fullName)
}

// PullRequestHeadRef returns refs/pull/<n>/head.
func (f *FakeForge) PullRequestHeadRef(number int) string {
	return fmt.Sprintf("refs/pull/%d/head", number)
}
