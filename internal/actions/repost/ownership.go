package repost

import (
	"errors"
	"fmt"
	"strings"

	repostErrors "repost.dev/repost/internal/errors"
	"repost.dev/repost/internal/forge"
	"repost.dev/repost/internal/git"
)

// TrailerKey marks merge commits created by repost
const TrailerKey = "Repost-Of"

// IntegrationBranch returns the local branch base is merged into
func IntegrationBranch(number int) string {
	return fmt.Sprintf("pr%d_integration", number)
}

// PublishBranch returns the branch pushed for the new pull request
func PublishBranch(number int) string {
	return fmt.Sprintf("pr%d_fix", number)
}

// Trailer returns the trailer line identifying a repost of repo#number
func Trailer(repo forge.Repository, number int) string {
	return fmt.Sprintf("%s: %s#%d", TrailerKey, repo.FullName(), number)
}

// hasTrailer reports whether message carries trailer on a line of its own
func hasTrailer(message, trailer string) bool {
	for _, line := range strings.Split(message, "\n") {
		if strings.EqualFold(strings.TrimSpace(line), trailer) {
			return true
		}
	}
	return false
}

// checkOwnership allows overwriting remote/branch only when it does not exist yet
// or its tip was created by a repost of the same pull request.
func checkOwnership(wc *git.WorkingCopy, remote, branch, trailer string) error {
	tip, err := wc.ResolveRemoteBranch(remote, branch)
	if err != nil {
		if errors.Is(err, repostErrors.ErrBranchNotFound) {
			return nil
		}
		return err
	}

	message, err := wc.CommitMessage(tip)
	if err != nil {
		return err
	}
	if !hasTrailer(message, trailer) {
		return repostErrors.NewBranchCollisionError(branch, tip)
	}
	return nil
}
