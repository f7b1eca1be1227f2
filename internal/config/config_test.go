package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"repost.dev/repost/internal/config"
	repostErrors "repost.dev/repost/internal/errors"
	"repost.dev/repost/internal/forge"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(config.LoadOptions{Getenv: envMap(map[string]string{
		"GITHUB_TOKEN": "gh-token",
		"REPO_OWNER":   "acme",
		"REPO_NAME":    "widgets",
	})})
	require.NoError(t, err)

	require.Equal(t, forge.PlatformGitHub, cfg.Platform)
	require.Equal(t, "gh-token", cfg.Token)
	require.Equal(t, forge.Repository{Owner: "acme", Name: "widgets"}, cfg.Repository())
	require.Equal(t, "develop", cfg.BaseBranch)
	require.Equal(t, config.DefaultHTTPTimeout, cfg.HTTPTimeout)
	require.Equal(t, config.DefaultTitleTemplate, cfg.TitleTemplate)
	require.Equal(t, config.DefaultBodyTemplate, cfg.BodyTemplate)
	require.NotEmpty(t, cfg.CredentialFile)
	require.False(t, cfg.NoInteractive)
	require.Empty(t, cfg.WorkDir)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
owner: file-owner
repo: file-repo
base_branch: main
token: file-token
work_dir: /from/file
http_timeout: 5s
draft: true
committer:
  name: Release Bot
  email: bot@example.com
`)

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := config.Load(config.LoadOptions{ConfigFile: path, Getenv: envMap(nil)})
		require.NoError(t, err)
		require.Equal(t, "file-owner", cfg.Owner)
		require.Equal(t, "main", cfg.BaseBranch)
		require.Equal(t, "file-token", cfg.Token)
		require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
		require.True(t, cfg.Draft)
		require.Equal(t, "Release Bot", cfg.CommitterName)
		require.Equal(t, "bot@example.com", cfg.CommitterEmail)
	})

	t.Run("env over file", func(t *testing.T) {
		cfg, err := config.Load(config.LoadOptions{ConfigFile: path, Getenv: envMap(map[string]string{
			"GITHUB_TOKEN":    "env-token",
			"REPO_OWNER":      "env-owner",
			"BASE_BRANCH":     "release",
			"REPOST_WORK_DIR": "/from/env",
		})})
		require.NoError(t, err)
		require.Equal(t, "env-token", cfg.Token)
		require.Equal(t, "env-owner", cfg.Owner)
		require.Equal(t, "file-repo", cfg.Repo)
		require.Equal(t, "release", cfg.BaseBranch)
		require.Equal(t, "/from/env", cfg.WorkDir)
	})

	t.Run("flags over env", func(t *testing.T) {
		cfg, err := config.Load(config.LoadOptions{
			ConfigFile: path,
			Getenv: envMap(map[string]string{
				"BASE_BRANCH":           "release",
				"REPOST_WORK_DIR":       "/from/env",
				"REPOST_NO_INTERACTIVE": "1",
			}),
			Overrides: config.Overrides{
				BaseBranch:    strPtr("hotfix"),
				WorkDir:       strPtr("/from/flag"),
				NoInteractive: boolPtr(false),
				Draft:         boolPtr(false),
				Note:          strPtr("rebased on hotfix"),
			},
		})
		require.NoError(t, err)
		require.Equal(t, "hotfix", cfg.BaseBranch)
		require.Equal(t, "/from/flag", cfg.WorkDir)
		require.False(t, cfg.NoInteractive)
		require.False(t, cfg.Draft)
		require.Equal(t, "rebased on hotfix", cfg.Note)
	})

	t.Run("config file from REPOST_CONFIG", func(t *testing.T) {
		cfg, err := config.Load(config.LoadOptions{Getenv: envMap(map[string]string{"REPOST_CONFIG": path})})
		require.NoError(t, err)
		require.Equal(t, "file-owner", cfg.Owner)
	})
}

func TestLoadTokens(t *testing.T) {
	base := map[string]string{"REPO_OWNER": "acme", "REPO_NAME": "widgets"}
	with := func(extra map[string]string) func(string) string {
		m := map[string]string{}
		for k, v := range base {
			m[k] = v
		}
		for k, v := range extra {
			m[k] = v
		}
		return envMap(m)
	}

	t.Run("gitlab token for gitlab", func(t *testing.T) {
		cfg, err := config.Load(config.LoadOptions{Getenv: with(map[string]string{
			"REPOST_PLATFORM": "gitlab",
			"GITHUB_TOKEN":    "gh",
			"GITLAB_TOKEN":    "gl",
		})})
		require.NoError(t, err)
		require.Equal(t, forge.PlatformGitLab, cfg.Platform)
		require.Equal(t, "gl", cfg.Token)
	})

	t.Run("platform flag picks the token variable", func(t *testing.T) {
		cfg, err := config.Load(config.LoadOptions{
			Getenv:    with(map[string]string{"GITHUB_TOKEN": "gh", "GITLAB_TOKEN": "gl"}),
			Overrides: config.Overrides{Platform: strPtr("gitlab")},
		})
		require.NoError(t, err)
		require.Equal(t, "gl", cfg.Token)
	})

	t.Run("REPOST_TOKEN wins", func(t *testing.T) {
		cfg, err := config.Load(config.LoadOptions{Getenv: with(map[string]string{
			"GITHUB_TOKEN": "gh",
			"REPOST_TOKEN": "generic",
		})})
		require.NoError(t, err)
		require.Equal(t, "generic", cfg.Token)
	})
}

func TestLoadValidation(t *testing.T) {
	full := map[string]string{"GITHUB_TOKEN": "t", "REPO_OWNER": "acme", "REPO_NAME": "widgets"}
	without := func(key string) func(string) string {
		m := map[string]string{}
		for k, v := range full {
			if k != key {
				m[k] = v
			}
		}
		return envMap(m)
	}

	tests := []struct {
		name  string
		opts  config.LoadOptions
		field string
	}{
		{name: "missing token", opts: config.LoadOptions{Getenv: without("GITHUB_TOKEN")}, field: "token"},
		{name: "missing owner", opts: config.LoadOptions{Getenv: without("REPO_OWNER")}, field: "owner"},
		{name: "missing repo", opts: config.LoadOptions{Getenv: without("REPO_NAME")}, field: "repo"},
		{
			name:  "unknown platform flag",
			opts:  config.LoadOptions{Getenv: envMap(full), Overrides: config.Overrides{Platform: strPtr("bitbucket")}},
			field: "platform",
		},
		{
			name:  "empty base branch",
			opts:  config.LoadOptions{Getenv: envMap(full), Overrides: config.Overrides{BaseBranch: strPtr(" ")}},
			field: "base_branch",
		},
		{
			name:  "bad log size",
			opts:  config.LoadOptions{Getenv: envMap(map[string]string{"GITHUB_TOKEN": "t", "REPO_OWNER": "a", "REPO_NAME": "b", "REPOST_LOG_MAX_SIZE": "big"})},
			field: "REPOST_LOG_MAX_SIZE",
		},
		{
			name:  "body template without provenance",
			opts:  config.LoadOptions{ConfigFile: writeConfig(t, "templates:\n  body: \"{{body}}\"\n"), Getenv: envMap(full)},
			field: "templates.body",
		},
		{
			name:  "body template without number",
			opts:  config.LoadOptions{ConfigFile: writeConfig(t, "templates:\n  body: \"by @{{author}}\"\n"), Getenv: envMap(full)},
			field: "templates.body",
		},
		{
			name:  "unclosed placeholder",
			opts:  config.LoadOptions{ConfigFile: writeConfig(t, "templates:\n  title: \"[Repost] {{title\"\n"), Getenv: envMap(full)},
			field: "templates.title",
		},
		{
			name:  "bad timeout",
			opts:  config.LoadOptions{ConfigFile: writeConfig(t, "http_timeout: soon\n"), Getenv: envMap(full)},
			field: "http_timeout",
		},
		{
			name:  "missing file",
			opts:  config.LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"), Getenv: envMap(full)},
			field: "config",
		},
		{
			name:  "malformed yaml",
			opts:  config.LoadOptions{ConfigFile: writeConfig(t, "owner: [unterminated\n"), Getenv: envMap(full)},
			field: "config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(tt.opts)
			require.ErrorIs(t, err, repostErrors.ErrConfig)

			var cfgErr *repostErrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestCustomTemplates(t *testing.T) {
	path := writeConfig(t, `
templates:
  title: "Repost of #{{number}}: {{title}}"
  body: "Originally by @{{author}} in #{{number}}\n\n{{body}}"
`)
	cfg, err := config.Load(config.LoadOptions{ConfigFile: path, Getenv: envMap(map[string]string{
		"GITHUB_TOKEN": "t", "REPO_OWNER": "acme", "REPO_NAME": "widgets",
	})})
	require.NoError(t, err)
	require.Equal(t, "Repost of #{{number}}: {{title}}", cfg.TitleTemplate)
	require.Contains(t, cfg.BodyTemplate, "@{{author}}")

	t.Run("spaces inside the braces", func(t *testing.T) {
		path := writeConfig(t, `
templates:
  body: "Originally by @{{ author }} in #{{ number }}\n{{ note }}"
`)
		cfg, err := config.Load(config.LoadOptions{ConfigFile: path, Getenv: envMap(map[string]string{
			"GITHUB_TOKEN": "t", "REPO_OWNER": "acme", "REPO_NAME": "widgets",
		})})
		require.NoError(t, err)
		require.Equal(t, "Originally by @{{ author }} in #{{ number }}\n{{ note }}", cfg.BodyTemplate)
	})
}
