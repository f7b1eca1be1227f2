package github

import (
	"errors"
	"net/http"

	"github.com/google/go-github/v62/github"

	repostErrors "repost.dev/repost/internal/errors"
)

const platformName = "github"

// classifyError maps go-github failures onto the error taxonomy
func classifyError(op string, err error) error {
	apiErr := &repostErrors.APIError{Platform: platformName, Op: op, Err: err, Kind: repostErrors.ErrTransient}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		apiErr.Message = rateErr.Message
		if rateErr.Response != nil {
			apiErr.StatusCode = rateErr.Response.StatusCode
		}
		return apiErr
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		apiErr.Message = abuseErr.Message
		if abuseErr.Response != nil {
			apiErr.StatusCode = abuseErr.Response.StatusCode
		}
		return apiErr
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		apiErr.Message = respErr.Message
		if respErr.Response != nil {
			apiErr.StatusCode = respErr.Response.StatusCode
		}
		apiErr.Kind = kindForStatus(apiErr.StatusCode)
		if apiErr.Kind == repostErrors.ErrValidation && len(respErr.Errors) > 0 {
			for _, e := range respErr.Errors {
				if e.Message != "" {
					apiErr.Message += ": " + e.Message
				}
			}
		}
		return apiErr
	}

	// Transport failures (DNS, refused connections, timeouts) stay transient
	return apiErr
}

// kindForStatus returns the error kind for an HTTP status code
func kindForStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return repostErrors.ErrNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return repostErrors.ErrAuth
	case status == http.StatusUnprocessableEntity, status == http.StatusBadRequest:
		return repostErrors.ErrValidation
	}
	return repostErrors.ErrTransient
}
