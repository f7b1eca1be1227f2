package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// HostedRepo is a bare repository laid out the way a hosting platform serves it,
// together with a seed clone used to author commits.
type HostedRepo struct {
	FullName string
	BareDir  string
	Seed     *GitRepo
}

// createHostedRepo creates <gitRoot>/<fullName>.git with a single initial commit on defaultBranch.
func createHostedRepo(gitRoot, seedRoot, fullName, defaultBranch string) (*HostedRepo, error) {
	bareDir := filepath.Join(gitRoot, fullName+".git")
	if err := os.MkdirAll(filepath.Dir(bareDir), 0750); err != nil {
		return nil, fmt.Errorf("failed to create host directory: %w", err)
	}
	if err := runBare("", "init", "--quiet", "--bare", "-b", defaultBranch, bareDir); err != nil {
		return nil, err
	}

	seed, err := NewGitRepo(filepath.Join(seedRoot, strings.ReplaceAll(fullName, "/", "-")))
	if err != nil {
		return nil, err
	}
	if err := seed.RunGitCommand("checkout", "-q", "-B", defaultBranch); err != nil {
		return nil, err
	}
	if err := seed.RunGitCommand("remote", "add", "origin", bareDir); err != nil {
		return nil, err
	}
	if err := seed.CommitFile("README.md", "# "+fullName+"\n", "Initial commit"); err != nil {
		return nil, err
	}
	if err := seed.PushBranch("origin", defaultBranch); err != nil {
		return nil, err
	}

	return &HostedRepo{FullName: fullName, BareDir: bareDir, Seed: seed}, nil
}

// forkHostedRepo copies base into <gitRoot>/<fullName>.git, keeping every branch.
func forkHostedRepo(gitRoot, seedRoot string, base *HostedRepo, fullName string) (*HostedRepo, error) {
	bareDir := filepath.Join(gitRoot, fullName+".git")
	if err := os.MkdirAll(filepath.Dir(bareDir), 0750); err != nil {
		return nil, fmt.Errorf("failed to create host directory: %w", err)
	}
	if err := runBare("", "clone", "--quiet", "--bare", base.BareDir, bareDir); err != nil {
		return nil, err
	}
	seed, err := NewGitRepoFromURL(filepath.Join(seedRoot, strings.ReplaceAll(fullName, "/", "-")), bareDir)
	if err != nil {
		return nil, err
	}
	return &HostedRepo{FullName: fullName, BareDir: bareDir, Seed: seed}, nil
}

// CommitOnBranch checks out branch in the seed (creating it from "from" when it
// does not exist yet), commits a file and pushes the branch.
func (h *HostedRepo) CommitOnBranch(branch, from, path, content, message string) error {
	if _, err := h.Seed.GetRevision("refs/heads/" + branch); err != nil {
		start := from
		if _, err := h.Seed.GetRevision("refs/heads/" + from); err != nil {
			start = "origin/" + from
		}
		if err := h.Seed.RunGitCommand("checkout", "-q", "-b", branch, start); err != nil {
			return err
		}
	} else if err := h.Seed.CheckoutBranch(branch); err != nil {
		return err
	}
	if err := h.Seed.CommitFile(path, content, message); err != nil {
		return err
	}
	return h.Seed.ForcePushBranch("origin", branch)
}

// DeleteBranch removes a branch from the hosted repository.
func (h *HostedRepo) DeleteBranch(branch string) error {
	return runBare(h.BareDir, "update-ref", "-d", "refs/heads/"+branch)
}

// Revision returns the commit a hosted branch points at.
func (h *HostedRepo) Revision(branch string) (string, error) {
	return outputBare(h.BareDir, "rev-parse", "refs/heads/"+branch)
}

// HasBranch reports whether the hosted repository has a branch.
func (h *HostedRepo) HasBranch(branch string) bool {
	_, err := h.Revision(branch)
	return err == nil
}

// Branches returns the hosted branch names.
func (h *HostedRepo) Branches() ([]string, error) {
	output, err := outputBare(h.BareDir, "for-each-ref", "refs/heads/", "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	return splitLines(output), nil
}

// CommitMessage returns the full message of a hosted branch's tip commit.
func (h *HostedRepo) CommitMessage(branch string) (string, error) {
	return outputBare(h.BareDir, "log", "-1", "--format=%B", "refs/heads/"+branch)
}

// ParentCount returns the number of parents of a hosted branch's tip commit.
func (h *HostedRepo) ParentCount(branch string) (int, error) {
	output, err := outputBare(h.BareDir, "rev-list", "--parents", "-n", "1", "refs/heads/"+branch)
	if err != nil {
		return 0, err
	}
	return len(strings.Fields(output)) - 1, nil
}

// FileContent returns a file's content at the tip of a hosted branch.
func (h *HostedRepo) FileContent(branch, path string) (string, error) {
	return outputBare(h.BareDir, "show", "refs/heads/"+branch+":"+path)
}

// IsAncestor reports whether commit is reachable from the hosted branch.
func (h *HostedRepo) IsAncestor(commit, branch string) bool {
	return runBare(h.BareDir, "merge-base", "--is-ancestor", commit, "refs/heads/"+branch) == nil
}

// InstallHook writes an executable hook script into the hosted repository.
func (h *HostedRepo) InstallHook(name, script string) error {
	hookPath := filepath.Join(h.BareDir, "hooks", name)
	//nolint:gosec // hooks must be executable
	if err := os.WriteFile(hookPath, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		return fmt.Errorf("failed to write hook: %w", err)
	}
	return nil
}

func runBare(gitDir string, args ...string) error {
	if gitDir != "" {
		args = append([]string{"--git-dir", gitDir}, args...)
	}
	cmd := exec.Command("git", args...)
	cmd.Env = testGitEnv()
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git %s failed: %w, output: %s", strings.Join(args, " "), err, string(output))
	}
	return nil
}

func outputBare(gitDir string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"--git-dir", gitDir}, args...)...)
	cmd.Env = testGitEnv()
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// SetRef points an arbitrary ref of the hosted repository at commit.
func (h *HostedRepo) SetRef(ref, commit string) error {
	return runBare(h.BareDir, "update-ref", ref, commit)
}
