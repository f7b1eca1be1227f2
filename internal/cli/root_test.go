package cli_test

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"repost.dev/repost/testhelpers"
	"repost.dev/repost/testhelpers/scenario"
)

func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return lines[len(lines)-1]
}

func newScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	return scenario.NewScenario(t, "acme/widgets", "develop").WithBinaryPath(getRepostBinary(t))
}

func TestRootCommandArguments(t *testing.T) {
	t.Run("no arguments prints usage", func(t *testing.T) {
		s := newScenario(t)
		result := s.RunCli()
		require.Equal(t, 0, result.ExitCode)
		require.Contains(t, result.Stdout, "Usage:")
		require.Contains(t, result.Stdout, "repost <pr_number>")
	})

	t.Run("non-numeric number is an argument error", func(t *testing.T) {
		s := newScenario(t)
		result := s.RunCli("abc")
		require.Equal(t, 2, result.ExitCode)
		require.Contains(t, result.Stderr, `invalid pull request number "abc"`)
		require.Empty(t, s.GitHub.Created())
	})

	t.Run("too many arguments", func(t *testing.T) {
		s := newScenario(t)
		result := s.RunCli("1", "2")
		require.Equal(t, 2, result.ExitCode)
	})

	t.Run("unknown flag", func(t *testing.T) {
		s := newScenario(t)
		result := s.RunCli("--bogus", "1")
		require.Equal(t, 2, result.ExitCode)
		require.Contains(t, result.Stderr, "unknown flag")
	})

	t.Run("missing token is a configuration error", func(t *testing.T) {
		s := newScenario(t).WithEnv("GITHUB_TOKEN", "")
		result := s.RunCli("42")
		require.Equal(t, 2, result.ExitCode)
		require.Contains(t, result.Stderr, "invalid configuration: token")
	})

	t.Run("unknown platform is a configuration error", func(t *testing.T) {
		s := newScenario(t)
		result := s.RunCli("--platform", "bitbucket", "42")
		require.Equal(t, 2, result.ExitCode)
		require.Contains(t, result.Stderr, "platform")
	})

	t.Run("version", func(t *testing.T) {
		s := newScenario(t)
		result := s.RunCli("--version")
		require.Equal(t, 0, result.ExitCode)
		require.Contains(t, result.Stdout, testhelpers.BinaryVersion+" (commit none, built unknown)")
	})
}

func TestRepostCommand(t *testing.T) {
	t.Run("publishes a same-repository pull request", func(t *testing.T) {
		s := newScenario(t).
			WithPR(42, "alice", "feature/cache", "cache.go", "package cache\n").
			WithBaseCommit("base.txt", "newer base\n", "Advance develop")

		result := s.RunCli("42")
		require.Equal(t, 0, result.ExitCode, "stdout: %s\nstderr: %s", result.Stdout, result.Stderr)
		require.Equal(t, "Published: https://github.com/acme/widgets/pull/100", lastLine(result.Stdout))

		s.ExpectBranch("pr42_fix")
		created := s.GitHub.Created()
		require.Len(t, created, 1)
		require.Equal(t, "[Repost] Update cache.go", created[0].GetTitle())
		require.Equal(t, "pr42_fix", created[0].GetHead().GetRef())
		require.Equal(t, "develop", created[0].GetBase().GetRef())
		require.Contains(t, created[0].GetBody(), "originally created by @alice")
		require.Contains(t, created[0].GetBody(), "Original PR: #42")

		content, err := s.Base.FileContent("pr42_fix", "base.txt")
		require.NoError(t, err)
		require.Equal(t, "newer base", content)
	})

	t.Run("json output for a fork", func(t *testing.T) {
		s := newScenario(t).WithForkPR(7, "bob", "bob/widgets", "fix-typo", "typo.txt", "fixed\n")

		result := s.RunCli("7", "--json", "--draft", "--note", "Rebased by CI")
		require.Equal(t, 0, result.ExitCode, "stderr: %s", result.Stderr)

		var out struct {
			Outcome    string   `json:"outcome"`
			Number     int      `json:"number"`
			NewNumber  int      `json:"new_number"`
			URL        string   `json:"url"`
			Branch     string   `json:"branch"`
			BaseRemote string   `json:"base_remote"`
			States     []string `json:"states"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(result.Stdout)), &out), "stdout: %s", result.Stdout)
		require.Equal(t, "published", out.Outcome)
		require.Equal(t, 7, out.Number)
		require.Equal(t, 100, out.NewNumber)
		require.Equal(t, "https://github.com/acme/widgets/pull/100", out.URL)
		require.Equal(t, "pr7_fix", out.Branch)
		require.Equal(t, "origin", out.BaseRemote)
		require.Equal(t, []string{"Start", "MetadataResolved", "WorkingCopyReady", "BaseMerged", "Published"}, out.States)

		created := s.GitHub.Created()
		require.Len(t, created, 1)
		require.True(t, created[0].GetDraft())
		require.True(t, strings.HasSuffix(created[0].GetBody(), "\n\n---\nRebased by CI"), "body: %s", created[0].GetBody())
		s.ExpectBranch("pr7_fix")
	})

	t.Run("conflicts exit zero and push nothing", func(t *testing.T) {
		s := newScenario(t).
			WithPR(5, "carol", "feature/app", "app.txt", "from the pull request\n").
			WithBaseCommit("app.txt", "from develop\n", "Conflicting change")

		result := s.RunCli("5")
		require.Equal(t, 0, result.ExitCode, "stderr: %s", result.Stderr)
		require.Equal(t, "Conflicts require manual intervention: app.txt", lastLine(result.Stdout))
		s.ExpectNoBranch("pr5_fix")
		require.Empty(t, s.GitHub.Created())
	})

	t.Run("missing pull request fails with exit one", func(t *testing.T) {
		s := newScenario(t)

		result := s.RunCli("404")
		require.Equal(t, 1, result.ExitCode)
		require.True(t, strings.HasPrefix(lastLine(result.Stdout), "Failed: failed to fetch pull request #404"), "stdout: %s", result.Stdout)
		require.Empty(t, result.Stderr)
	})

	t.Run("base flag overrides the environment", func(t *testing.T) {
		s := newScenario(t).WithPR(3, "dave", "feature/x", "x.txt", "x\n")

		result := s.RunCli("3", "--base", "release")
		require.Equal(t, 1, result.ExitCode)
		require.Contains(t, lastLine(result.Stdout), "release")
		s.ExpectNoBranch("pr3_fix")
	})

	t.Run("platform error from the API", func(t *testing.T) {
		s := newScenario(t).WithPR(8, "erin", "feature/y", "y.txt", "y\n")
		s.GitHub.ErrorResponses["POST /repos/acme/widgets/pulls"] = testhelpers.MockError{Status: 422, Message: "A pull request already exists"}

		result := s.RunCli("8")
		require.Equal(t, 1, result.ExitCode)
		require.Contains(t, lastLine(result.Stdout), "A pull request already exists")
		s.ExpectBranch("pr8_fix")
	})

	t.Run("rerun updates the pull request it opened", func(t *testing.T) {
		s := newScenario(t).WithPR(12, "frank", "feature/z", "z.txt", "z\n")

		first := s.RunCli("12")
		require.Equal(t, 0, first.ExitCode, "stdout: %s\nstderr: %s", first.Stdout, first.Stderr)

		s.WithBaseCommit("later.txt", "later\n", "Base moves on")
		second := s.RunCli("12", "--json")
		require.Equal(t, 0, second.ExitCode, "stdout: %s\nstderr: %s", second.Stdout, second.Stderr)

		var out struct {
			Outcome   string `json:"outcome"`
			URL       string `json:"url"`
			NewNumber int    `json:"new_number"`
			Existing  bool   `json:"existing"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(second.Stdout)), &out), "stdout: %s", second.Stdout)
		require.Equal(t, "published", out.Outcome)
		require.True(t, out.Existing)
		require.Equal(t, 100, out.NewNumber)
		require.Equal(t, "https://github.com/acme/widgets/pull/100", out.URL)

		require.Len(t, s.GitHub.Created(), 1)
		content, err := s.Base.FileContent("pr12_fix", "later.txt")
		require.NoError(t, err)
		require.Equal(t, "later", content)
	})
}
