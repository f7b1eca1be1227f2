// Package scenario provides a high-level test scenario that combines a Scene,
// a hosted base repository and a mock GitHub API to drive the repost binary.
package scenario

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"repost.dev/repost/testhelpers"
)

// Scenario represents a hosted repository served over a mock GitHub API,
// with everything the binary needs in its environment.
type Scenario struct {
	T          *testing.T
	Scene      *testhelpers.Scene
	Base       *testhelpers.HostedRepo
	BaseBranch string
	GitHub     *testhelpers.MockGitHubServerConfig
	Server     *httptest.Server
	BinaryPath string

	env map[string]string
}

// Result is the captured output of one CLI run
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// NewScenario creates a scenario for the base repository fullName ("owner/name")
// with baseBranch as its default branch.
func NewScenario(t *testing.T, fullName, baseBranch string) *Scenario {
	t.Helper()

	owner, name, ok := strings.Cut(fullName, "/")
	require.True(t, ok, "repository must be owner/name: %s", fullName)

	scene := testhelpers.NewScene(t, nil)
	base := scene.CreateRepo(fullName, baseBranch)

	gh := testhelpers.NewMockGitHubServerConfig()
	gh.Owner = owner
	gh.Repo = name
	server := testhelpers.NewMockGitHubServer(t, gh)

	return &Scenario{
		T:          t,
		Scene:      scene,
		Base:       base,
		BaseBranch: baseBranch,
		GitHub:     gh,
		Server:     server,
		env: map[string]string{
			"GITHUB_TOKEN":           "test-token",
			"GITLAB_TOKEN":           "",
			"REPOST_TOKEN":           "",
			"REPOST_CONFIG":          "",
			"REPOST_PLATFORM":        "",
			"REPOST_HOST":            "",
			"REPOST_LOG_FILE":        "",
			"REPO_OWNER":             owner,
			"REPO_NAME":              name,
			"BASE_BRANCH":            baseBranch,
			"REPOST_API_URL":         server.URL,
			"REPOST_GIT_URL":         scene.GitRoot,
			"REPOST_WORK_DIR":        scene.WorkDir("repost"),
			"REPOST_CREDENTIAL_FILE": filepath.Join(scene.Dir, "git-credentials"),
			"REPOST_NO_INTERACTIVE":  "1",
		},
	}
}

// WithBinaryPath sets the path to the repost binary for RunCli.
func (s *Scenario) WithBinaryPath(path string) *Scenario {
	s.BinaryPath = path
	return s
}

// WithEnv sets an environment variable for RunCli; an empty value clears it.
func (s *Scenario) WithEnv(key, value string) *Scenario {
	s.env[key] = value
	return s
}

// WithBaseCommit commits a file on the base branch.
func (s *Scenario) WithBaseCommit(path, content, message string) *Scenario {
	s.T.Helper()
	require.NoError(s.T, s.Base.CommitOnBranch(s.BaseBranch, s.BaseBranch, path, content, message))
	return s
}

// WithPR pushes branch to the base repository with one commit and registers
// it as pull request number by author.
func (s *Scenario) WithPR(number int, author, branch, path, content string) *Scenario {
	s.T.Helper()
	require.NoError(s.T, s.Base.CommitOnBranch(branch, s.BaseBranch, path, content, "Change "+path))
	s.GitHub.AddPR(testhelpers.NewGitHubPR(number, author, "Update "+path, "Original description", s.Base.FullName, branch, s.BaseBranch))
	return s
}

// WithForkPR forks the base repository as forkName, pushes branch there and
// registers it as pull request number by author.
func (s *Scenario) WithForkPR(number int, author, forkName, branch, path, content string) *Scenario {
	s.T.Helper()
	fork := s.Scene.Fork(s.Base, forkName)
	require.NoError(s.T, fork.CommitOnBranch(branch, s.BaseBranch, path, content, "Change "+path))
	s.GitHub.AddPR(testhelpers.NewGitHubPR(number, author, "Update "+path, "Original description", forkName, branch, s.BaseBranch))
	return s
}

// RunCli executes the repost binary and returns its output and exit code.
func (s *Scenario) RunCli(args ...string) Result {
	s.T.Helper()
	if s.BinaryPath == "" {
		s.T.Fatal("BinaryPath not set. Call WithBinaryPath first.")
	}

	cmd := exec.Command(s.BinaryPath, args...)
	cmd.Dir = s.Scene.Dir
	cmd.Env = os.Environ()
	for k, v := range s.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	result := Result{}
	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case err != nil:
		s.T.Fatalf("failed to run repost %v: %v", args, err)
	}
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	return result
}

// ExpectBranch asserts that the base repository has a branch.
func (s *Scenario) ExpectBranch(branch string) *Scenario {
	s.T.Helper()
	require.True(s.T, s.Base.HasBranch(branch), "expected branch %s on %s", branch, s.Base.FullName)
	return s
}

// ExpectNoBranch asserts that the base repository does not have a branch.
func (s *Scenario) ExpectNoBranch(branch string) *Scenario {
	s.T.Helper()
	require.False(s.T, s.Base.HasBranch(branch), "unexpected branch %s on %s", branch, s.Base.FullName)
	return s
}
