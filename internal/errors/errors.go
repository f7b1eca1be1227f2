// Package errors provides sentinel errors and custom error types for the repost application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrConfig indicates missing or invalid configuration
	ErrConfig = errors.New("invalid configuration")

	// ErrNotFound indicates that a pull request or repository does not exist on the platform
	ErrNotFound = errors.New("not found")

	// ErrAuth indicates that the platform or remote rejected the credentials
	ErrAuth = errors.New("authentication failed")

	// ErrTransient indicates a retryable platform failure (5xx, rate limit, network)
	ErrTransient = errors.New("transient platform failure")

	// ErrValidation indicates that the platform rejected a request as invalid
	ErrValidation = errors.New("validation failed")

	// ErrRemoteUnreachable indicates that a git remote could not be contacted
	ErrRemoteUnreachable = errors.New("remote unreachable")

	// ErrRemoteRejected indicates that a git remote refused a push
	ErrRemoteRejected = errors.New("remote rejected push")

	// ErrBranchNotFound indicates that a branch does not exist
	ErrBranchNotFound = errors.New("branch not found")

	// ErrRefNotFound indicates that a remote ref could not be fetched
	ErrRefNotFound = errors.New("ref not found")

	// ErrBranchCollision indicates that the publish branch exists and was not created by a repost of the same PR
	ErrBranchCollision = errors.New("branch collision")

	// ErrNothingToRepost indicates that the PR head is already contained in the base branch
	ErrNothingToRepost = errors.New("nothing to repost")

	// ErrPublishDeclined indicates that the user declined to publish the reposted branch
	ErrPublishDeclined = errors.New("publish declined")
)

// BranchNotFoundError represents an error when a branch is not found
type BranchNotFoundError struct {
	Remote     string
	BranchName string
}

func (e *BranchNotFoundError) Error() string {
	if e.Remote != "" {
		return fmt.Sprintf("branch %s/%s does not exist", e.Remote, e.BranchName)
	}
	return fmt.Sprintf("branch %s does not exist", e.BranchName)
}

// Is returns true if the target error is ErrBranchNotFound
func (e *BranchNotFoundError) Is(target error) bool {
	return target == ErrBranchNotFound
}

// NewBranchNotFoundError creates a new BranchNotFoundError
func NewBranchNotFoundError(remote, branchName string) *BranchNotFoundError {
	return &BranchNotFoundError{Remote: remote, BranchName: branchName}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}

// RemoteError represents a failed fetch or push against a git remote.
// Kind is one of ErrRemoteUnreachable, ErrRemoteRejected, ErrAuth or ErrRefNotFound.
type RemoteError struct {
	Op     string
	Remote string
	Kind   error
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Remote, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Remote, e.Kind)
}

// Is returns true if the target error is the error's kind
func (e *RemoteError) Is(target error) bool {
	return target == e.Kind
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewRemoteError creates a new RemoteError
func NewRemoteError(op, remote string, kind, err error) *RemoteError {
	return &RemoteError{Op: op, Remote: remote, Kind: kind, Err: err}
}

// APIError represents a failed call to a hosting platform API.
// Kind is one of ErrNotFound, ErrAuth, ErrTransient or ErrValidation.
type APIError struct {
	Platform   string
	Op         string
	StatusCode int
	Message    string
	Kind       error
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Platform, e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Is returns true if the target error is the error's kind
func (e *APIError) Is(target error) bool {
	return target == e.Kind
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ConfigError represents a missing or invalid configuration value
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Message
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// Is returns true if the target error is ErrConfig
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError creates a new ConfigError
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// BranchCollisionError represents a publish branch that belongs to something else
type BranchCollisionError struct {
	Branch string
	Tip    string
}

func (e *BranchCollisionError) Error() string {
	return fmt.Sprintf("branch %s already exists on origin at %s and was not created by a repost of this pull request", e.Branch, e.Tip)
}

// Is returns true if the target error is ErrBranchCollision
func (e *BranchCollisionError) Is(target error) bool {
	return target == ErrBranchCollision
}

// NewBranchCollisionError creates a new BranchCollisionError
func NewBranchCollisionError(branch, tip string) *BranchCollisionError {
	return &BranchCollisionError{Branch: branch, Tip: tip}
}
