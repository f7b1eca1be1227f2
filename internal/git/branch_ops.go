package git

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	repostErrors "repost.dev/repost/internal/errors"
)

// ResolveRemoteBranch returns the commit a remote-tracking branch points at
func (w *WorkingCopy) ResolveRemoteBranch(remote, branch string) (string, error) {
	ref, err := w.Reference(plumbing.NewRemoteReferenceName(remote, branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", repostErrors.NewBranchNotFoundError(remote, branch)
		}
		return "", fmt.Errorf("failed to resolve %s/%s: %w", remote, branch, err)
	}
	return ref.Hash().String(), nil
}

// ResolveRef returns the commit a fully qualified ref points at
func (w *WorkingCopy) ResolveRef(name string) (string, error) {
	ref, err := w.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", repostErrors.NewBranchNotFoundError("", name)
		}
		return "", fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	return ref.Hash().String(), nil
}

// HeadCommit returns the commit HEAD points at
func (w *WorkingCopy) HeadCommit() (string, error) {
	ref, err := w.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// CurrentBranch returns the short name of the checked-out branch
func (w *WorkingCopy) CurrentBranch() (string, error) {
	ref, err := w.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !ref.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", ref.Hash())
	}
	return ref.Name().Short(), nil
}

// CommitMessage returns the full message of the commit at rev
func (w *WorkingCopy) CommitMessage(rev string) (string, error) {
	hash, err := w.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	commit, err := w.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("failed to read commit %s: %w", hash, err)
	}
	return commit.Message, nil
}

// CreateAndCheckoutBranch creates a branch at fromCommit and checks it out.
// With force an existing branch of the same name is reset to fromCommit.
func (w *WorkingCopy) CreateAndCheckoutBranch(ctx context.Context, branchName, fromCommit string, force bool) error {
	flag := "-b"
	if force {
		flag = "-B"
	}
	_, err := w.runner.Run(ctx, "checkout", "--quiet", flag, branchName, fromCommit)
	if err != nil {
		return fmt.Errorf("failed to create and checkout branch %s: %w", branchName, err)
	}
	return nil
}

// CreateBranch creates a branch at fromCommit without checking it out
func (w *WorkingCopy) CreateBranch(ctx context.Context, branchName, fromCommit string, force bool) error {
	args := []string{"branch"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, branchName, fromCommit)
	_, err := w.runner.Run(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branchName, err)
	}
	return nil
}
