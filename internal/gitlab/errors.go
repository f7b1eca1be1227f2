package gitlab

import (
	"errors"
	"net/http"

	gl "gitlab.com/gitlab-org/api/client-go"

	repostErrors "repost.dev/repost/internal/errors"
)

const platformName = "gitlab"

// classifyError maps client-go failures onto the error taxonomy.
// Anything without an HTTP response (DNS, refused connections, timeouts) is transient.
func classifyError(op string, err error) error {
	apiErr := &repostErrors.APIError{Platform: platformName, Op: op, Err: err, Kind: repostErrors.ErrTransient}

	var respErr *gl.ErrorResponse
	if errors.As(err, &respErr) {
		apiErr.Message = respErr.Message
		if respErr.Response != nil {
			apiErr.StatusCode = respErr.Response.StatusCode
		}
		apiErr.Kind = kindForStatus(apiErr.StatusCode)
	}

	return apiErr
}

func isNotFound(err error) bool {
	var respErr *gl.ErrorResponse
	return errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound
}

// kindForStatus returns the error kind for an HTTP status code
func kindForStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return repostErrors.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return repostErrors.ErrAuth
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return repostErrors.ErrValidation
	}
	return repostErrors.ErrTransient
}
