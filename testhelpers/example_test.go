package testhelpers_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"repost.dev/repost/testhelpers"
)

// TestExampleUsage demonstrates how to use the testhelpers package.
// A scene hosts bare repositories under GitRoot; seeds author commits.
func TestExampleUsage(t *testing.T) {
	scene := testhelpers.NewScene(t, nil)
	base := scene.CreateRepo("acme/widgets", "develop")

	require.NoError(t, base.CommitOnBranch("feature", "develop", "feature.txt", "hello\n", "Add feature"))

	testhelpers.ExpectBranches(t, base, []string{"develop", "feature"})
	require.Equal(t, 1, testhelpers.Must(base.ParentCount("feature")))
	require.Equal(t, "hello", testhelpers.Must(base.FileContent("feature", "feature.txt")))
}

func TestHostedRepoFork(t *testing.T) {
	scene := testhelpers.NewScene(t, nil)
	base := scene.CreateRepo("acme/widgets", "develop")
	fork := scene.Fork(base, "bob/widgets")

	require.NoError(t, fork.CommitOnBranch("fix", "develop", "fix.txt", "fixed\n", "Fix"))
	require.True(t, fork.HasBranch("fix"))
	require.False(t, base.HasBranch("fix"))

	develop := testhelpers.Must(base.Revision("develop"))
	require.True(t, fork.IsAncestor(develop, "fix"))
}

func TestHostedRepoRefs(t *testing.T) {
	scene := testhelpers.NewScene(t, nil)
	base := scene.CreateRepo("acme/widgets", "develop")
	require.NoError(t, base.CommitOnBranch("gone", "develop", "gone.txt", "x\n", "Soon deleted"))

	tip := testhelpers.Must(base.Revision("gone"))
	require.NoError(t, base.SetRef("refs/pull/9/head", tip))
	require.NoError(t, base.DeleteBranch("gone"))
	require.False(t, base.HasBranch("gone"))

	message := testhelpers.Must(base.CommitMessage("develop"))
	require.Contains(t, message, "Initial commit")
}
