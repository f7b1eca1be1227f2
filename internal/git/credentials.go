package git

import (
	"bufio"
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// CredentialStore is a file in git-credential-store format
type CredentialStore struct {
	Path string
}

// NewCredentialStore returns a store backed by the file at path
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{Path: path}
}

// Save records credentials for the scheme and host of remoteURL.
// An existing entry for the same scheme and host is replaced; other entries are kept.
func (s *CredentialStore) Save(remoteURL string, creds Credentials) error {
	u, err := url.Parse(remoteURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("credential store: invalid remote URL %q", remoteURL)
	}
	username := creds.Username
	if username == "" {
		username = DefaultUsername
	}
	entry := (&url.URL{
		Scheme: u.Scheme,
		User:   url.UserPassword(username, creds.Token),
		Host:   u.Host,
	}).String()

	lines, err := s.readLines()
	if err != nil {
		return err
	}

	var out []string
	replaced := false
	for _, line := range lines {
		existing, err := url.Parse(line)
		if err == nil && existing.Scheme == u.Scheme && strings.EqualFold(existing.Host, u.Host) {
			if !replaced {
				out = append(out, entry)
				replaced = true
			}
			continue
		}
		out = append(out, line)
	}
	if !replaced {
		out = append(out, entry)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("credential store: failed to create directory: %w", err)
	}
	data := strings.Join(out, "\n") + "\n"
	if err := os.WriteFile(s.Path, []byte(data), 0600); err != nil {
		return fmt.Errorf("credential store: failed to write %s: %w", s.Path, err)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(s.Path, 0600); err != nil {
		return fmt.Errorf("credential store: failed to restrict %s: %w", s.Path, err)
	}
	return nil
}

// Lookup returns the stored credentials for the scheme and host of remoteURL
func (s *CredentialStore) Lookup(remoteURL string) (Credentials, bool, error) {
	u, err := url.Parse(remoteURL)
	if err != nil {
		return Credentials{}, false, fmt.Errorf("credential store: invalid remote URL %q", remoteURL)
	}
	lines, err := s.readLines()
	if err != nil {
		return Credentials{}, false, err
	}
	for _, line := range lines {
		existing, err := url.Parse(line)
		if err != nil || existing.User == nil {
			continue
		}
		if existing.Scheme == u.Scheme && strings.EqualFold(existing.Host, u.Host) {
			token, _ := existing.User.Password()
			return Credentials{Username: existing.User.Username(), Token: token}, true, nil
		}
	}
	return Credentials{}, false, nil
}

func (s *CredentialStore) readLines() ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("credential store: failed to read %s: %w", s.Path, err)
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
