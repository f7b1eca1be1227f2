package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-github/v62/github"
)

// MockError is a canned error response
type MockError struct {
	Status  int
	Message string
	Headers map[string]string
}

// MockGitHubServerConfig configures the behavior of a mock GitHub server
type MockGitHubServerConfig struct {
	// PRs maps PR numbers to PR data for GET /pulls/{number}
	PRs map[int]*github.PullRequest
	// CreatedPRs stores PRs that were created (for testing)
	CreatedPRs []*github.PullRequest
	// ErrorResponses maps "METHOD path" (e.g. "GET /repos/o/r/pulls/42") to error responses
	ErrorResponses map[string]MockError
	// NextNumber is the number given to the next created PR
	NextNumber int
	// Owner and Repo for the mock server
	Owner string
	Repo  string

	mu sync.Mutex
}

// NewMockGitHubServerConfig creates a new mock server config with defaults
func NewMockGitHubServerConfig() *MockGitHubServerConfig {
	return &MockGitHubServerConfig{
		PRs:            make(map[int]*github.PullRequest),
		CreatedPRs:     make([]*github.PullRequest, 0),
		ErrorResponses: make(map[string]MockError),
		NextNumber:     100,
		Owner:          "owner",
		Repo:           "repo",
	}
}

// AddPR registers a pull request returned by GET /pulls/{number}
func (c *MockGitHubServerConfig) AddPR(pr *github.PullRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PRs[pr.GetNumber()] = pr
}

// Created returns a snapshot of the created PRs
func (c *MockGitHubServerConfig) Created() []*github.PullRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*github.PullRequest(nil), c.CreatedPRs...)
}

// findOpen returns the created PR from head into base; an empty base matches any.
// Callers hold c.mu.
func (c *MockGitHubServerConfig) findOpen(head, base string) *github.PullRequest {
	for _, pr := range c.CreatedPRs {
		if pr.GetHead().GetRef() == head && (base == "" || pr.GetBase().GetRef() == base) {
			return pr
		}
	}
	return nil
}

// NewMockGitHubServer creates an httptest server that mocks GitHub API endpoints
func NewMockGitHubServer(t *testing.T, config *MockGitHubServerConfig) *httptest.Server {
	t.Helper()
	if config == nil {
		config = NewMockGitHubServerConfig()
	}

	basePath := "/repos/" + config.Owner + "/" + config.Repo + "/pulls"

	handler := func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()

		if mockErr, ok := config.ErrorResponses[r.Method+" "+r.URL.Path]; ok {
			writeMockError(w, mockErr)
			return
		}

		path := r.URL.Path
		switch {
		case path == basePath && r.Method == http.MethodPost:
			var newPR github.NewPullRequest
			if err := json.NewDecoder(r.Body).Decode(&newPR); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if newPR.GetTitle() == "" || newPR.GetHead() == "" || newPR.GetBase() == "" {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
					"message": "Validation Failed",
					"errors":  []map[string]string{{"resource": "PullRequest", "code": "missing_field"}},
				})
				return
			}

			if existing := config.findOpen(newPR.GetHead(), newPR.GetBase()); existing != nil {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
					"message": "Validation Failed",
					"errors": []map[string]string{{
						"resource": "PullRequest",
						"code":     "custom",
						"message":  fmt.Sprintf("A pull request already exists for %s:%s.", config.Owner, newPR.GetHead()),
					}},
				})
				return
			}

			prNumber := config.NextNumber
			if prNumber == 0 {
				prNumber = len(config.CreatedPRs) + 1
			}
			config.NextNumber = prNumber + 1

			pr := &github.PullRequest{
				Number:  github.Int(prNumber),
				Title:   newPR.Title,
				Body:    newPR.Body,
				Head:    &github.PullRequestBranch{Ref: newPR.Head},
				Base:    &github.PullRequestBranch{Ref: newPR.Base},
				Draft:   newPR.Draft,
				HTMLURL: github.String(fmt.Sprintf("https://github.com/%s/%s/pull/%d", config.Owner, config.Repo, prNumber)),
			}
			config.CreatedPRs = append(config.CreatedPRs, pr)
			writeJSON(w, http.StatusCreated, pr)

		case path == basePath && r.Method == http.MethodGet:
			query := r.URL.Query()
			head := query.Get("head")
			if owner, branch, ok := strings.Cut(head, ":"); ok {
				if owner != config.Owner {
					writeJSON(w, http.StatusOK, []*github.PullRequest{})
					return
				}
				head = branch
			}
			matches := make([]*github.PullRequest, 0, 1)
			if state := query.Get("state"); state == "" || state == "open" {
				if pr := config.findOpen(head, query.Get("base")); pr != nil {
					matches = append(matches, pr)
				}
			}
			writeJSON(w, http.StatusOK, matches)

		case strings.HasPrefix(path, basePath+"/") && r.Method == http.MethodGet:
			prNumber, err := strconv.Atoi(strings.TrimPrefix(path, basePath+"/"))
			if err != nil {
				http.Error(w, "Invalid PR number", http.StatusBadRequest)
				return
			}
			pr, ok := config.PRs[prNumber]
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
				return
			}
			writeJSON(w, http.StatusOK, pr)

		default:
			http.Error(w, fmt.Sprintf("Unhandled path: %s (method: %s)", path, r.Method), http.StatusNotFound)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", handler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() { server.Close() })
	return server
}

// NewMockGitHubClient creates a GitHub client configured to use a mock server
func NewMockGitHubClient(t *testing.T, config *MockGitHubServerConfig) (*github.Client, *httptest.Server) {
	t.Helper()
	server := NewMockGitHubServer(t, config)
	client := github.NewClient(nil)
	baseURL, _ := url.Parse(server.URL + "/")
	client.BaseURL = baseURL
	client.UploadURL = baseURL
	return client, server
}

// NewGitHubPR builds a pull request payload as returned by the GitHub API.
// An empty headRepo leaves the head repository out, as GitHub does for deleted forks.
func NewGitHubPR(number int, author, title, body, headRepo, headBranch, baseBranch string) *github.PullRequest {
	head := &github.PullRequestBranch{Ref: github.String(headBranch)}
	if headRepo != "" {
		head.Repo = &github.Repository{FullName: github.String(headRepo)}
	}
	return &github.PullRequest{
		Number:  github.Int(number),
		Title:   github.String(title),
		Body:    github.String(body),
		User:    &github.User{Login: github.String(author)},
		Head:    head,
		Base:    &github.PullRequestBranch{Ref: github.String(baseBranch)},
	}
}

func writeMockError(w http.ResponseWriter, mockErr MockError) {
	for k, v := range mockErr.Headers {
		w.Header().Set(k, v)
	}
	msg := mockErr.Message
	if msg == "" {
		msg = http.StatusText(mockErr.Status)
	}
	writeJSON(w, mockErr.Status, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
