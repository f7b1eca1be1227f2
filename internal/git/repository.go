package git

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// DefaultUsername is presented together with the token for HTTP(S) remotes.
// Hosting platforms ignore the username when the password is an access token.
const DefaultUsername = "x-access-token"

// Credentials authenticate HTTP(S) remote operations
type Credentials struct {
	Username string
	Token    string
}

// CloneOptions contains options for creating a working copy
type CloneOptions struct {
	URL         string
	Dir         string
	RemoteName  string
	Credentials Credentials
}

// WorkingCopy is a disposable local clone used for one repost attempt
type WorkingCopy struct {
	*git.Repository
	dir    string
	runner *CommandRunner
	creds  Credentials
}

// Clone creates a fresh working copy at opts.Dir.
// Anything already present at that path is removed first.
func Clone(ctx context.Context, opts CloneOptions) (*WorkingCopy, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("clone: working directory must be set")
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to remove existing working copy %s: %w", dir, err)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0750); err != nil {
		return nil, fmt.Errorf("failed to create parent directory: %w", err)
	}

	remoteName := opts.RemoteName
	if remoteName == "" {
		remoteName = "origin"
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:        opts.URL,
		RemoteName: remoteName,
		Auth:       authFor(opts.URL, opts.Credentials),
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, classifyRemoteError("clone", remoteName, err)
	}

	return &WorkingCopy{
		Repository: repo,
		dir:        dir,
		runner:     NewCommandRunner(dir),
		creds:      opts.Credentials,
	}, nil
}

// Open opens an existing working copy, mainly for inspection after a failed attempt
func Open(dir string, creds Credentials) (*WorkingCopy, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	repo, err := git.PlainOpen(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return &WorkingCopy{
		Repository: repo,
		dir:        absPath,
		runner:     NewCommandRunner(absPath),
		creds:      creds,
	}, nil
}

// Dir returns the root directory of the working copy
func (w *WorkingCopy) Dir() string {
	return w.dir
}

// Runner returns the command runner bound to the working copy
func (w *WorkingCopy) Runner() *CommandRunner {
	return w.runner
}

// Remove deletes the working copy from disk
func (w *WorkingCopy) Remove() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("failed to remove working copy %s: %w", w.dir, err)
	}
	return nil
}

// authFor returns HTTP basic auth for http(s) URLs when a token is configured.
// Local paths and other schemes get no auth method.
func authFor(rawURL string, creds Credentials) transport.AuthMethod {
	if creds.Token == "" || !IsHTTPURL(rawURL) {
		return nil
	}
	username := creds.Username
	if username == "" {
		username = DefaultUsername
	}
	return &http.BasicAuth{Username: username, Password: creds.Token}
}

// IsHTTPURL reports whether rawURL uses the http or https scheme
func IsHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
