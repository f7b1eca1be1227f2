package git

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	repostErrors "repost.dev/repost/internal/errors"
)

func TestClassifyPushOutput(t *testing.T) {
	cause := errors.New("exit status 128")

	tests := []struct {
		name   string
		stderr string
		want   error
	}{
		{
			name:   "bad token",
			stderr: "remote: Invalid username or password.\nfatal: Authentication failed for 'https://github.com/acme/widgets.git/'",
			want:   repostErrors.ErrAuth,
		},
		{
			name:   "no credentials",
			stderr: "fatal: could not read Username for 'https://github.com': terminal prompts disabled",
			want:   repostErrors.ErrAuth,
		},
		{
			name:   "401 from the server",
			stderr: "error: RPC failed; HTTP 401 curl 22 The requested URL returned error: 401",
			want:   repostErrors.ErrAuth,
		},
		{
			name:   "token without write access",
			stderr: "remote: Permission to acme/widgets.git denied to bot.\nfatal: unable to access 'https://github.com/acme/widgets.git/': The requested URL returned error: 403",
			want:   repostErrors.ErrRemoteRejected,
		},
		{
			name:   "bare 403",
			stderr: "fatal: unable to access 'https://gitlab.com/acme/widgets.git/': The requested URL returned error: 403",
			want:   repostErrors.ErrRemoteRejected,
		},
		{
			name:   "protected branch",
			stderr: "remote: GitLab: You are not allowed to push code to protected branches on this project.\n ! [remote rejected] pr1_fix -> pr1_fix (pre-receive hook declined)",
			want:   repostErrors.ErrRemoteRejected,
		},
		{
			name:   "non-fast-forward",
			stderr: "!\trefs/heads/pr1_fix:refs/heads/pr1_fix\t[rejected] (non-fast-forward)",
			want:   repostErrors.ErrRemoteRejected,
		},
		{
			name:   "unknown host",
			stderr: "fatal: unable to access 'https://nowhere.invalid/acme/widgets.git/': Could not resolve host: nowhere.invalid",
			want:   repostErrors.ErrRemoteUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyPushOutput("origin", tt.stderr, cause)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, cause)

			var remoteErr *repostErrors.RemoteError
			require.True(t, errors.As(err, &remoteErr))
			require.Equal(t, "origin", remoteErr.Remote)
		})
	}
}
