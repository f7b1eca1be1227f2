package repost

import (
	"fmt"
	"strings"
)

// OutcomeKind classifies how a repost ended
type OutcomeKind int

const (
	// OutcomePublished means a new pull request was opened
	OutcomePublished OutcomeKind = iota
	// OutcomeConflicts means the merge conflicted and nothing was pushed
	OutcomeConflicts
	// OutcomeFailed means a step failed; Reason and Err describe why
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePublished:
		return "published"
	case OutcomeConflicts:
		return "conflicts"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the single result of a repost attempt
type Outcome struct {
	Kind OutcomeKind
	// State is the last state reached before the outcome was decided
	State State
	// Number is the original pull request's number
	Number int

	// URL and NewNumber identify the opened pull request (OutcomePublished)
	URL       string
	NewNumber int
	// Existing reports that the pull request was already open and the push updated it
	Existing bool
	// Branch is the publish branch
	Branch string
	// BaseRemote is the remote the base branch was taken from
	BaseRemote string

	// Conflicts lists conflicting paths (OutcomeConflicts)
	Conflicts []string

	// WorkDir is the working copy location; WorkDirKept reports whether it is still on disk
	WorkDir     string
	WorkDirKept bool

	// Reason and Err describe a failure (OutcomeFailed)
	Reason string
	Err    error
}

// String renders the outcome as a single line
func (o *Outcome) String() string {
	switch o.Kind {
	case OutcomePublished:
		return fmt.Sprintf("Published: %s", o.URL)
	case OutcomeConflicts:
		return fmt.Sprintf("Conflicts require manual intervention: %s", strings.Join(o.Conflicts, ", "))
	}
	return fmt.Sprintf("Failed: %s", o.Reason)
}
