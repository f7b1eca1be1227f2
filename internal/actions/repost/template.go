package repost

import (
	"io"
	"strconv"
	"strings"

	"github.com/valyala/fasttemplate"

	"repost.dev/repost/internal/forge"
)

const (
	templateStart = "{{"
	templateEnd   = "}}"
	noteTag       = "note"
	noteSeparator = "\n\n---\n"
)

// templateFields returns the placeholder values for a pull request
func templateFields(pr *forge.PullRequest, baseBranch, note string) map[string]string {
	return map[string]string{
		"author":      pr.Author,
		"number":      strconv.Itoa(pr.Number),
		"title":       pr.Title,
		"body":        pr.Body,
		"head_branch": pr.HeadBranch,
		"head_repo":   pr.HeadRepoFullName,
		"base_branch": baseBranch,
		"url":         pr.URL,
		"note":        note,
	}
}

// execute substitutes placeholders, ignoring spaces inside the braces.
// Unknown placeholders are left as-is.
func execute(tmpl string, fields map[string]string) string {
	return fasttemplate.ExecuteFuncString(tmpl, templateStart, templateEnd, func(w io.Writer, tag string) (int, error) {
		if v, ok := fields[strings.TrimSpace(tag)]; ok {
			return w.Write([]byte(v))
		}
		return w.Write([]byte(templateStart + tag + templateEnd))
	})
}

// hasPlaceholder reports whether tmpl references name
func hasPlaceholder(tmpl, name string) bool {
	found := false
	fasttemplate.ExecuteFuncString(tmpl, templateStart, templateEnd, func(_ io.Writer, tag string) (int, error) {
		if strings.TrimSpace(tag) == name {
			found = true
		}
		return 0, nil
	})
	return found
}

// renderTitle renders the new pull request's title
func renderTitle(tmpl string, pr *forge.PullRequest, baseBranch string) string {
	return strings.TrimSpace(execute(tmpl, templateFields(pr, baseBranch, "")))
}

// renderBody renders the new pull request's body.
// A note is placed at {{note}} when the template has one, otherwise appended after a separator.
func renderBody(tmpl string, pr *forge.PullRequest, baseBranch, note string) string {
	note = strings.TrimSpace(note)
	body := execute(tmpl, templateFields(pr, baseBranch, note))
	if note != "" && !hasPlaceholder(tmpl, noteTag) {
		body = strings.TrimRight(body, "\n") + noteSeparator + note
	}
	return body
}
