package git

import (
	"context"
	"errors"
	"fmt"

	repostErrors "repost.dev/repost/internal/errors"
)

// PushOptions contains options for publishing a branch
type PushOptions struct {
	Remote       string
	LocalBranch  string
	RemoteBranch string
	// Force overwrites the remote branch. The caller is responsible for
	// checking that the branch may be overwritten.
	Force bool
}

// Push publishes a local branch to a remote.
// It shells out to git so that the working copy's credential helper and
// the remote's hooks take part in the push.
func (w *WorkingCopy) Push(ctx context.Context, opts PushOptions) error {
	if opts.Remote == "" {
		opts.Remote = "origin"
	}
	if opts.RemoteBranch == "" {
		opts.RemoteBranch = opts.LocalBranch
	}

	refspec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", opts.LocalBranch, opts.RemoteBranch)
	args := []string{"push", "--porcelain"}
	if opts.Force {
		args = append(args, "--force")
	}
	args = append(args, opts.Remote, refspec)

	_, err := w.runner.Run(ctx, args...)
	if err == nil {
		return nil
	}

	var cmdErr *repostErrors.GitCommandError
	if errors.As(err, &cmdErr) {
		return classifyPushOutput(opts.Remote, cmdErr.Stderr+"\n"+cmdErr.Stdout, err)
	}
	return repostErrors.NewRemoteError("push", opts.Remote, repostErrors.ErrRemoteUnreachable, err)
}
