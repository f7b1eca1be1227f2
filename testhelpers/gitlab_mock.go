package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// MockMergeRequest is the subset of a GitLab merge request the mock serves
type MockMergeRequest struct {
	IID             int
	Author          string
	Title           string
	Description     string
	SourceBranch    string
	TargetBranch    string
	SourceProjectID int
	TargetProjectID int
}

// MockGitLabServerConfig configures the behavior of a mock GitLab server
type MockGitLabServerConfig struct {
	// Project is the target project path, e.g. "acme/widgets"
	Project string
	// ProjectID is the target project's numeric ID
	ProjectID int
	// Projects maps project IDs to their path with namespace
	Projects map[int]string
	// MergeRequests maps IIDs to merge requests in the target project
	MergeRequests map[int]*MockMergeRequest
	// Created stores request bodies of created merge requests
	Created []map[string]any
	// ErrorResponses maps "METHOD path" (decoded path) to error responses
	ErrorResponses map[string]MockError
	NextIID        int

	createdIIDs []int
	mu          sync.Mutex
}

// NewMockGitLabServerConfig creates a config for project acme/widgets with ID 1
func NewMockGitLabServerConfig() *MockGitLabServerConfig {
	return &MockGitLabServerConfig{
		Project:        "acme/widgets",
		ProjectID:      1,
		Projects:       map[int]string{1: "acme/widgets"},
		MergeRequests:  make(map[int]*MockMergeRequest),
		ErrorResponses: make(map[string]MockError),
		NextIID:        100,
	}
}

// AddMergeRequest registers a merge request; zero project IDs default to the target project
func (c *MockGitLabServerConfig) AddMergeRequest(mr *MockMergeRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mr.TargetProjectID == 0 {
		mr.TargetProjectID = c.ProjectID
	}
	if mr.SourceProjectID == 0 {
		mr.SourceProjectID = c.ProjectID
	}
	c.MergeRequests[mr.IID] = mr
}

// CreatedMergeRequests returns a snapshot of created merge request payloads
func (c *MockGitLabServerConfig) CreatedMergeRequests() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]any(nil), c.Created...)
}

// findOpen returns the index into Created of the merge request from source into target, or -1.
// Callers hold c.mu.
func (c *MockGitLabServerConfig) findOpen(source, target string) int {
	for i, body := range c.Created {
		if body["source_branch"] == source && (target == "" || body["target_branch"] == target) {
			return i
		}
	}
	return -1
}

func (c *MockGitLabServerConfig) webURL(iid int) string {
	return fmt.Sprintf("https://gitlab.com/%s/-/merge_requests/%d", c.Project, iid)
}

// NewMockGitLabServer creates an httptest server that mocks the GitLab v4 API
func NewMockGitLabServer(t *testing.T, config *MockGitLabServerConfig) *httptest.Server {
	t.Helper()
	if config == nil {
		config = NewMockGitLabServerConfig()
	}

	mrPath := "/api/v4/projects/" + config.Project + "/merge_requests"
	projectPrefix := "/api/v4/projects/"

	handler := func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()

		path := r.URL.Path
		if mockErr, ok := config.ErrorResponses[r.Method+" "+path]; ok {
			writeMockError(w, mockErr)
			return
		}

		switch {
		case path == mrPath && r.Method == http.MethodPost:
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			for _, field := range []string{"title", "source_branch", "target_branch"} {
				if s, _ := body[field].(string); s == "" {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": field + " is missing"})
					return
				}
			}
			source, _ := body["source_branch"].(string)
			target, _ := body["target_branch"].(string)
			if i := config.findOpen(source, target); i >= 0 {
				writeJSON(w, http.StatusConflict, map[string]any{
					"message": []string{fmt.Sprintf("Another open merge request already exists for this source branch: !%d", config.createdIIDs[i])},
				})
				return
			}
			iid := config.NextIID
			config.NextIID++
			config.Created = append(config.Created, body)
			config.createdIIDs = append(config.createdIIDs, iid)
			writeJSON(w, http.StatusCreated, map[string]any{
				"id":            iid * 10,
				"iid":           iid,
				"title":         body["title"],
				"source_branch": source,
				"target_branch": target,
				"web_url":       config.webURL(iid),
			})

		case path == mrPath && r.Method == http.MethodGet:
			query := r.URL.Query()
			matches := make([]map[string]any, 0, 1)
			if state := query.Get("state"); state == "" || state == "opened" {
				if i := config.findOpen(query.Get("source_branch"), query.Get("target_branch")); i >= 0 {
					iid := config.createdIIDs[i]
					matches = append(matches, map[string]any{
						"id":            iid * 10,
						"iid":           iid,
						"state":         "opened",
						"source_branch": config.Created[i]["source_branch"],
						"target_branch": config.Created[i]["target_branch"],
						"web_url":       config.webURL(iid),
					})
				}
			}
			writeJSON(w, http.StatusOK, matches)

		case strings.HasPrefix(path, mrPath+"/") && r.Method == http.MethodGet:
			iid, err := strconv.Atoi(strings.TrimPrefix(path, mrPath+"/"))
			if err != nil {
				http.Error(w, "invalid merge request iid", http.StatusBadRequest)
				return
			}
			mr, ok := config.MergeRequests[iid]
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]string{"message": "404 Not found"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"id":                iid * 10,
				"iid":               mr.IID,
				"title":             mr.Title,
				"description":       mr.Description,
				"source_branch":     mr.SourceBranch,
				"target_branch":     mr.TargetBranch,
				"source_project_id": mr.SourceProjectID,
				"target_project_id": mr.TargetProjectID,
				"author":            map[string]any{"username": mr.Author},
				"web_url":           config.webURL(mr.IID),
			})

		case strings.HasPrefix(path, projectPrefix) && r.Method == http.MethodGet:
			id, err := strconv.Atoi(strings.TrimPrefix(path, projectPrefix))
			if err != nil {
				http.Error(w, "unhandled project path", http.StatusNotFound)
				return
			}
			fullName, ok := config.Projects[id]
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]string{"message": "404 Project Not Found"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"id":                  id,
				"path_with_namespace": fullName,
			})

		default:
			http.Error(w, fmt.Sprintf("Unhandled path: %s (method: %s)", path, r.Method), http.StatusNotFound)
		}
	}

	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(func() { server.Close() })
	return server
}
