// Package git provides the version-control operations needed to repost a pull request.
//
// All operations act on a single disposable WorkingCopy:
//   - Clone, remote management and fetches go through go-git
//   - Checkout, merge and push shell out to the git binary via CommandRunner
//   - Credentials are written to an explicit git-credential-store file
//
// This package should be the only place where direct git commands are executed.
package git
