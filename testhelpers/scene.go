package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
)

// Scene is a temporary directory acting as a git host, plus room for working copies.
// Hosted repositories live at <GitRoot>/<owner>/<name>.git, so GitRoot can be used
// directly as the git base URL of a forge.
type Scene struct {
	Dir      string
	GitRoot  string
	SeedRoot string
	WorkRoot string
	t        *testing.T
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new test scene in a temporary directory.
// It automatically handles cleanup using t.Cleanup().
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "repost-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	// Resolve symlinks (macOS /var -> /private/var) so paths compare equal
	if resolved, err := filepath.EvalSymlinks(tmpDir); err == nil {
		tmpDir = resolved
	}

	scene := &Scene{
		Dir:      tmpDir,
		GitRoot:  filepath.Join(tmpDir, "git"),
		SeedRoot: filepath.Join(tmpDir, "seeds"),
		WorkRoot: filepath.Join(tmpDir, "work"),
		t:        t,
	}
	for _, dir := range []string{scene.GitRoot, scene.SeedRoot, scene.WorkRoot} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			_ = os.RemoveAll(tmpDir)
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	// Keep the user's global git config out of every git process the test starts
	t.Setenv("GIT_CONFIG_GLOBAL", "/dev/null")
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")

	if setup != nil {
		if err := setup(scene); err != nil {
			_ = os.RemoveAll(tmpDir)
			t.Fatalf("Setup failed: %v", err)
		}
	}

	t.Cleanup(func() {
		if os.Getenv("DEBUG") == "" {
			_ = os.RemoveAll(tmpDir)
		}
	})

	return scene
}

// CreateRepo creates a hosted repository with an initial commit on defaultBranch.
func (s *Scene) CreateRepo(fullName, defaultBranch string) *HostedRepo {
	s.t.Helper()
	repo, err := createHostedRepo(s.GitRoot, s.SeedRoot, fullName, defaultBranch)
	if err != nil {
		s.t.Fatalf("Failed to create hosted repo %s: %v", fullName, err)
	}
	return repo
}

// Fork copies a hosted repository under a new full name.
func (s *Scene) Fork(base *HostedRepo, fullName string) *HostedRepo {
	s.t.Helper()
	repo, err := forkHostedRepo(s.GitRoot, s.SeedRoot, base, fullName)
	if err != nil {
		s.t.Fatalf("Failed to fork %s as %s: %v", base.FullName, fullName, err)
	}
	return repo
}

// WorkDir returns a path under the scene for a working copy. The directory is not created.
func (s *Scene) WorkDir(name string) string {
	return filepath.Join(s.WorkRoot, name)
}
