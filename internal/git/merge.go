package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	repostErrors "repost.dev/repost/internal/errors"
)

// MergeStatus represents the result of a merge attempt
type MergeStatus int

const (
	// MergeClean indicates the merge produced a merge commit
	MergeClean MergeStatus = iota
	// MergeConflict indicates the merge stopped on conflicts and was aborted
	MergeConflict
	// MergeUpToDate indicates there was nothing to merge
	MergeUpToDate
)

func (s MergeStatus) String() string {
	switch s {
	case MergeClean:
		return "clean"
	case MergeConflict:
		return "conflict"
	case MergeUpToDate:
		return "up-to-date"
	}
	return fmt.Sprintf("MergeStatus(%d)", int(s))
}

// MergeOptions contains options for a merge
type MergeOptions struct {
	// Commit is the revision merged into the checked-out branch
	Commit  string
	Message string
}

// MergeResult is the outcome of a merge attempt
type MergeResult struct {
	Status MergeStatus
	// Commit is the merge commit for MergeClean, HEAD otherwise
	Commit    string
	Conflicts []string
	Output    string
}

// Merge merges opts.Commit into the checked-out branch, always creating a merge commit.
// On conflicts the merge is aborted and the working tree verified clean
// before MergeConflict is returned, so the working copy is left reusable.
func (w *WorkingCopy) Merge(ctx context.Context, opts MergeOptions) (MergeResult, error) {
	before, err := w.HeadCommit()
	if err != nil {
		return MergeResult{}, err
	}

	args := []string{"merge", "--no-ff", "--no-edit"}
	if opts.Message != "" {
		args = append(args, "-m", opts.Message)
	}
	args = append(args, opts.Commit)

	output, mergeErr := w.runner.Run(ctx, args...)
	if mergeErr != nil {
		if !w.IsMerging() {
			return MergeResult{}, fmt.Errorf("failed to merge %s: %w", opts.Commit, mergeErr)
		}

		var cmdErr *repostErrors.GitCommandError
		if errors.As(mergeErr, &cmdErr) {
			output = strings.TrimSpace(cmdErr.Stdout + "\n" + cmdErr.Stderr)
		}

		conflicts, err := w.UnmergedFiles(ctx)
		if err != nil {
			return MergeResult{}, err
		}
		if err := w.AbortMerge(ctx, before); err != nil {
			return MergeResult{}, err
		}
		return MergeResult{
			Status:    MergeConflict,
			Commit:    before,
			Conflicts: conflicts,
			Output:    output,
		}, nil
	}

	after, err := w.HeadCommit()
	if err != nil {
		return MergeResult{}, err
	}
	if after == before {
		return MergeResult{Status: MergeUpToDate, Commit: after, Output: output}, nil
	}
	return MergeResult{Status: MergeClean, Commit: after, Output: output}, nil
}

// IsMerging reports whether a merge is in progress
func (w *WorkingCopy) IsMerging() bool {
	_, err := os.Stat(filepath.Join(w.dir, ".git", "MERGE_HEAD"))
	return err == nil
}

// UnmergedFiles returns the paths with unresolved conflicts
func (w *WorkingCopy) UnmergedFiles(ctx context.Context) ([]string, error) {
	files, err := w.runner.RunLines(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicting files: %w", err)
	}
	return files, nil
}

// Status returns the porcelain status lines of the working tree
func (w *WorkingCopy) Status(ctx context.Context) ([]string, error) {
	lines, err := w.runner.RunLines(ctx, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return lines, nil
}

// AbortMerge abandons an in-progress merge and restores the tree to restoreTo.
// It fails unless the working copy ends up clean and not merging.
func (w *WorkingCopy) AbortMerge(ctx context.Context, restoreTo string) error {
	if _, err := w.runner.Run(ctx, "merge", "--abort"); err != nil {
		if _, resetErr := w.runner.Run(ctx, "reset", "--hard", restoreTo); resetErr != nil {
			return fmt.Errorf("failed to abort merge: %w", resetErr)
		}
	}

	if w.IsMerging() {
		return fmt.Errorf("merge state still present after abort")
	}
	status, err := w.Status(ctx)
	if err != nil {
		return err
	}
	if len(status) > 0 {
		return fmt.Errorf("working tree not clean after abort: %s", strings.Join(status, ", "))
	}
	return nil
}
