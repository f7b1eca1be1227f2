// Package forge defines the hosting-platform contract used to read and open pull requests.
// Implementations live in the github and gitlab packages.
package forge

import (
	"context"
	"fmt"
	"strings"
)

// Platform identifies a hosting platform implementation
type Platform string

const (
	// PlatformGitHub is github.com or a GitHub Enterprise instance
	PlatformGitHub Platform = "github"
	// PlatformGitLab is gitlab.com or a self-managed GitLab instance
	PlatformGitLab Platform = "gitlab"
)

// ParsePlatform returns the platform named by s
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case "", PlatformGitHub:
		return PlatformGitHub, nil
	case PlatformGitLab:
		return PlatformGitLab, nil
	}
	return "", fmt.Errorf("unknown platform %q (expected github or gitlab)", s)
}

// Repository identifies a repository on the platform
type Repository struct {
	Owner string
	Name  string
}

// FullName returns "owner/name"
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// SameAs reports whether fullName names this repository. Platforms treat names case-insensitively.
func (r Repository) SameAs(fullName string) bool {
	return strings.EqualFold(r.FullName(), fullName)
}

// PullRequest is a read-only snapshot of a pull request's metadata
type PullRequest struct {
	Number int
	Author string
	Title  string
	Body   string
	// HeadBranch is the branch holding the changes, in HeadRepoFullName
	HeadBranch string
	// HeadRepoFullName is "owner/name" of the head repository, or "" when the
	// platform returned none (deleted fork). An empty value is treated as same-repo.
	HeadRepoFullName string
	BaseBranch       string
	URL              string
}

// IsFork reports whether the changes live in a repository other than base
func (pr *PullRequest) IsFork(base Repository) bool {
	return pr.HeadRepoFullName != "" && !base.SameAs(pr.HeadRepoFullName)
}

// CreateOptions contains options for opening a pull request
type CreateOptions struct {
	Title string
	Body  string
	Head  string
	Base  string
	Draft bool
}

// CreatedPullRequest identifies a newly opened pull request
type CreatedPullRequest struct {
	Number int
	URL    string
	// Existing is set when the pull request was already open for the head branch
	Existing bool
}

// Forge is the hosting-platform gateway.
// Implementations do not retry; failures are reported once through the
// ErrNotFound, ErrAuth, ErrTransient and ErrValidation kinds.
type Forge interface {
	// Platform returns the implementation's platform
	Platform() Platform

	// Repository returns the base repository pull requests are read from and opened against
	Repository() Repository

	// FetchPullRequest reads a pull request's metadata
	FetchPullRequest(ctx context.Context, number int) (*PullRequest, error)

	// CreatePullRequest opens a new pull request against the base repository
	CreatePullRequest(ctx context.Context, opts CreateOptions) (*CreatedPullRequest, error)

	// FindOpenPullRequest returns the open pull request from head into base in the
	// base repository, or ErrNotFound when there is none
	FindOpenPullRequest(ctx context.Context, head, base string) (*CreatedPullRequest, error)

	// CloneURL returns the git URL of the repository with the given full name on the same host
	CloneURL(fullName string) string

	// PullRequestHeadRef returns the read-only ref holding a pull request's head commit
	PullRequestHeadRef(number int) string
}

// JoinCloneURL builds "<base>/<fullName>.git" from a git base URL or directory
func JoinCloneURL(base, fullName string) string {
	return strings.TrimSuffix(base, "/") + "/" + fullName + ".git"
}
