// Package testhelpers provides testing utilities for repost,
// including a scene of hosted bare repositories, Git repository helpers,
// mock hosting-platform servers and custom assertions.
package testhelpers

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value. This is useful for test setup code
// where errors are not expected and should halt execution immediately.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectBranches asserts that the hosted repository has exactly the expected branches.
func ExpectBranches(t *testing.T, repo *HostedRepo, expected []string) {
	t.Helper()

	branches, err := repo.Branches()
	require.NoError(t, err, "Failed to list branches")

	sort.Strings(branches)
	expected = append([]string(nil), expected...)
	sort.Strings(expected)

	require.Equal(t, expected, branches, "Branches do not match")
}

// ExpectCleanWorkingCopy asserts that dir has no merge in progress, no unmerged
// paths and no uncommitted changes.
func ExpectCleanWorkingCopy(t *testing.T, dir string) {
	t.Helper()

	_, err := os.Stat(filepath.Join(dir, ".git", "MERGE_HEAD"))
	require.True(t, os.IsNotExist(err), "merge still in progress in %s", dir)

	cmd := exec.Command("git", "-C", dir, "status", "--porcelain")
	cmd.Env = testGitEnv()
	output, err := cmd.Output()
	require.NoError(t, err, "Failed to get status")
	require.Empty(t, strings.TrimSpace(string(output)), "working copy %s is not clean", dir)
}
