package git

import (
	"fmt"
	"strings"
)

// ConfigureIdentity sets the author and committer used for merge commits in this working copy
func (w *WorkingCopy) ConfigureIdentity(name, email string) error {
	cfg, err := w.Config()
	if err != nil {
		return fmt.Errorf("failed to read git config: %w", err)
	}
	cfg.User.Name = name
	cfg.User.Email = email
	if err := w.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to write git config: %w", err)
	}
	return nil
}

// UseCredentialStore points the working copy's credential helper at an explicit store file.
// The helper is configured locally so the user's global git config is never touched.
func (w *WorkingCopy) UseCredentialStore(path string) error {
	cfg, err := w.Config()
	if err != nil {
		return fmt.Errorf("failed to read git config: %w", err)
	}
	cfg.Raw.Section("credential").SetOption("helper", "store --file "+shellQuote(path))
	if err := w.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to write git config: %w", err)
	}
	return nil
}

// shellQuote single-quotes s for the shell git runs credential helpers through
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ConfigValue reads a local config value, returning "" when unset
func (w *WorkingCopy) ConfigValue(section, key string) (string, error) {
	cfg, err := w.Config()
	if err != nil {
		return "", fmt.Errorf("failed to read git config: %w", err)
	}
	return cfg.Raw.Section(section).Option(key), nil
}
