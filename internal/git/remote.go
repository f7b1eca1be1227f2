package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"

	repostErrors "repost.dev/repost/internal/errors"
)

// AddRemoteIfAbsent adds a remote with the given URL unless one with that name already exists
func (w *WorkingCopy) AddRemoteIfAbsent(name, url string) error {
	_, err := w.Remote(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, git.ErrRemoteNotFound) {
		return fmt.Errorf("failed to look up remote %s: %w", name, err)
	}

	_, err = w.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return fmt.Errorf("failed to add remote %s: %w", name, err)
	}
	return nil
}

// RemoteURL returns the first URL configured for a remote
func (w *WorkingCopy) RemoteURL(name string) (string, error) {
	remote, err := w.Remote(name)
	if err != nil {
		return "", fmt.Errorf("failed to look up remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", name)
	}
	return urls[0], nil
}

// FetchAllBranches fetches every branch of a remote into refs/remotes/<remote>/*
func (w *WorkingCopy) FetchAllBranches(ctx context.Context, remote string) error {
	spec := config.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", remote))
	return w.fetch(ctx, remote, spec)
}

// FetchRef fetches a single remote ref into a local ref
func (w *WorkingCopy) FetchRef(ctx context.Context, remote, src, dst string) error {
	spec := config.RefSpec(fmt.Sprintf("+%s:%s", src, dst))
	return w.fetch(ctx, remote, spec)
}

func (w *WorkingCopy) fetch(ctx context.Context, remote string, specs ...config.RefSpec) error {
	r, err := w.Remote(remote)
	if err != nil {
		return fmt.Errorf("failed to look up remote %s: %w", remote, err)
	}
	url := ""
	if urls := r.Config().URLs; len(urls) > 0 {
		url = urls[0]
	}

	err = r.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remote,
		RefSpecs:   specs,
		Auth:       authFor(url, w.creds),
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return classifyRemoteError("fetch", remote, err)
	}
	return nil
}

// classifyRemoteError maps go-git transport failures onto the error taxonomy
func classifyRemoteError(op, remote string, err error) error {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return repostErrors.NewRemoteError(op, remote, repostErrors.ErrAuth, err)
	case errors.Is(err, git.NoMatchingRefSpecError{}):
		return repostErrors.NewRemoteError(op, remote, repostErrors.ErrRefNotFound, err)
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		return repostErrors.NewRemoteError(op, remote, repostErrors.ErrRemoteRejected, err)
	}
	return repostErrors.NewRemoteError(op, remote, repostErrors.ErrRemoteUnreachable, err)
}

// classifyPushOutput maps git push stderr onto the error taxonomy.
// Missing or bad credentials are ErrAuth; a valid identity the remote refuses
// to accept the push from (403, "permission to ... denied") is ErrRemoteRejected.
func classifyPushOutput(remote string, stderr string, err error) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "could not read username"),
		strings.Contains(lower, "returned error: 401"):
		return repostErrors.NewRemoteError("push", remote, repostErrors.ErrAuth, err)
	case strings.Contains(lower, "permission to"),
		strings.Contains(lower, "returned error: 403"),
		strings.Contains(lower, "[rejected]"),
		strings.Contains(lower, "[remote rejected]"),
		strings.Contains(lower, "pre-receive hook declined"),
		strings.Contains(lower, "protected branch"),
		strings.Contains(lower, "denied"),
		strings.Contains(lower, "non-fast-forward"):
		return repostErrors.NewRemoteError("push", remote, repostErrors.ErrRemoteRejected, err)
	}
	return repostErrors.NewRemoteError("push", remote, repostErrors.ErrRemoteUnreachable, err)
}
