package git_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	repostErrors "repost.dev/repost/internal/errors"
	"repost.dev/repost/internal/git"
	"repost.dev/repost/testhelpers"
)

func TestPush(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes a new branch", func(t *testing.T) {
		scene := testhelpers.NewScene(t, nil)
		base := scene.CreateRepo("acme/widgets", "develop")
		wc := cloneBase(t, scene, base)

		develop, err := wc.ResolveRemoteBranch("origin", "develop")
		require.NoError(t, err)
		require.NoError(t, wc.CreateBranch(ctx, "pr1_fix", develop, true))

		require.NoError(t, wc.Push(ctx, git.PushOptions{LocalBranch: "pr1_fix"}))
		got, err := base.Revision("pr1_fix")
		require.NoError(t, err)
		require.Equal(t, develop, got)
	})

	t.Run("force overwrites a diverged branch", func(t *testing.T) {
		scene := testhelpers.NewScene(t, nil)
		base := scene.CreateRepo("acme/widgets", "develop")
		require.NoError(t, base.CommitOnBranch("pr1_fix", "develop", "old.txt", "old\n", "Old attempt"))
		wc := cloneBase(t, scene, base)

		develop, err := wc.ResolveRemoteBranch("origin", "develop")
		require.NoError(t, err)
		require.NoError(t, wc.CreateBranch(ctx, "pr1_fix", develop, true))

		err = wc.Push(ctx, git.PushOptions{LocalBranch: "pr1_fix"})
		require.ErrorIs(t, err, repostErrors.ErrRemoteRejected)

		require.NoError(t, wc.Push(ctx, git.PushOptions{LocalBranch: "pr1_fix", Force: true}))
		got, err := base.Revision("pr1_fix")
		require.NoError(t, err)
		require.Equal(t, develop, got)
	})

	t.Run("rejected by the remote", func(t *testing.T) {
		scene := testhelpers.NewScene(t, nil)
		base := scene.CreateRepo("acme/widgets", "develop")
		require.NoError(t, base.InstallHook("pre-receive", "echo 'branch is protected' >&2\nexit 1"))
		wc := cloneBase(t, scene, base)

		develop, err := wc.ResolveRemoteBranch("origin", "develop")
		require.NoError(t, err)
		require.NoError(t, wc.CreateBranch(ctx, "pr1_fix", develop, true))

		err = wc.Push(ctx, git.PushOptions{LocalBranch: "pr1_fix", Force: true})
		require.ErrorIs(t, err, repostErrors.ErrRemoteRejected)
		require.False(t, base.HasBranch("pr1_fix"))
	})

	t.Run("unreachable remote", func(t *testing.T) {
		scene := testhelpers.NewScene(t, nil)
		base := scene.CreateRepo("acme/widgets", "develop")
		wc := cloneBase(t, scene, base)
		require.NoError(t, wc.AddRemoteIfAbsent("broken", filepath.Join(scene.GitRoot, "gone", "repo.git")))

		develop, err := wc.ResolveRemoteBranch("origin", "develop")
		require.NoError(t, err)
		require.NoError(t, wc.CreateBranch(ctx, "pr1_fix", develop, true))

		err = wc.Push(ctx, git.PushOptions{Remote: "broken", LocalBranch: "pr1_fix", Force: true})
		require.ErrorIs(t, err, repostErrors.ErrRemoteUnreachable)
	})
}
