package repost

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"repost.dev/repost/internal/config"
	repostErrors "repost.dev/repost/internal/errors"
	"repost.dev/repost/internal/forge"
	"repost.dev/repost/internal/git"
	"repost.dev/repost/internal/runtime"
	"repost.dev/repost/internal/tui"
)

const (
	// OriginRemote is the base repository
	OriginRemote = "origin"
	// SourceRemote is the fork holding the pull request's changes
	SourceRemote = "source"

	gitlabUsername = "oauth2"
)

// PublishPlan is what will be pushed and opened once confirmed
type PublishPlan struct {
	Branch string
	Base   string
	Commit string
	Title  string
	// Note is appended to the rendered body
	Note string
}

// ConfirmFunc is asked before anything is pushed. It may edit the plan's Title and Note;
// returning false declines the publish.
type ConfirmFunc func(ctx context.Context, plan PublishPlan) (PublishPlan, bool, error)

// Options contains options for one repost
type Options struct {
	// Number is the pull request to repost
	Number int
	// Confirm is called before pushing when set
	Confirm ConfirmFunc
	// Observer is notified of every state change when set
	Observer Observer
}

// DefaultWorkDir returns the per-PR working copy location under the system temp dir
func DefaultWorkDir(repo forge.Repository, number int) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("repost-%s-%s-pr%d", repo.Owner, repo.Name, number))
}

// reposter carries the state of a single attempt
type reposter struct {
	ctx   context.Context
	cfg   *config.Config
	splog *tui.Splog
	forge forge.Forge
	opts  Options

	repo    forge.Repository
	state   State
	workDir string
	wc      *git.WorkingCopy

	pr         *forge.PullRequest
	fork       bool
	headCommit string
	headRef    string
	baseRemote string
	merge      git.MergeResult
}

// Action reposts a pull request: it merges the PR head into a fresh copy of the
// base branch, force-pushes the result as pr<N>_fix and opens a new pull request.
// Exactly one Outcome is returned; conflicts are an outcome, not an error.
func Action(ctx *runtime.Context, opts Options) *Outcome {
	r := &reposter{
		ctx:   ctx.Context,
		cfg:   ctx.Config,
		splog: ctx.Splog,
		forge: ctx.Forge,
		opts:  opts,
		repo:  ctx.Forge.Repository(),
		state: StateStart,
	}
	if r.ctx == nil {
		r.ctx = context.Background()
	}
	if r.splog == nil {
		r.splog = tui.NewSplog()
	}

	r.workDir = r.cfg.WorkDir
	if r.workDir == "" {
		r.workDir = DefaultWorkDir(r.repo, opts.Number)
	}

	return r.run()
}

func (r *reposter) run() *Outcome {
	if r.opts.Number <= 0 {
		return r.fail(fmt.Errorf("invalid pull request number %d", r.opts.Number))
	}

	if err := r.resolveMetadata(); err != nil {
		return r.fail(err)
	}
	r.advance(StateMetadataResolved, fmt.Sprintf("#%d %q by @%s", r.pr.Number, r.pr.Title, r.pr.Author))

	if err := r.prepareWorkingCopy(); err != nil {
		return r.fail(err)
	}
	r.advance(StateWorkingCopyReady, fmt.Sprintf("head %s at %s", r.headRef, shortSHA(r.headCommit)))

	if err := r.mergeBase(); err != nil {
		return r.fail(err)
	}
	if r.merge.Status == git.MergeConflict {
		return r.conflicts()
	}
	r.advance(StateBaseMerged, fmt.Sprintf("%s at %s", IntegrationBranch(r.opts.Number), shortSHA(r.merge.Commit)))

	created, err := r.publish()
	if err != nil {
		return r.fail(err)
	}
	r.advance(StatePublished, created.URL)

	outcome := r.outcome(OutcomePublished)
	outcome.URL = created.URL
	outcome.NewNumber = created.Number
	outcome.Existing = created.Existing
	r.cleanup(outcome)
	return outcome
}

func (r *reposter) resolveMetadata() error {
	r.splog.Info("Fetching pull request #%d from %s...", r.opts.Number, r.repo.FullName())

	pr, err := r.forge.FetchPullRequest(r.ctx, r.opts.Number)
	if err != nil {
		return fmt.Errorf("failed to fetch pull request #%d: %w", r.opts.Number, err)
	}
	r.pr = pr
	r.fork = pr.IsFork(r.repo)

	if pr.HeadRepoFullName == "" {
		r.splog.Warn("Pull request #%d has no head repository (deleted fork?); treating it as same-repository", pr.Number)
	}
	return nil
}

func (r *reposter) prepareWorkingCopy() error {
	originURL := r.forge.CloneURL(r.repo.FullName())
	creds := r.credentials()

	r.splog.Info("Cloning %s into %s...", r.repo.FullName(), r.workDir)
	wc, err := git.Clone(r.ctx, git.CloneOptions{
		URL:         originURL,
		Dir:         r.workDir,
		RemoteName:  OriginRemote,
		Credentials: creds,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", r.repo.FullName(), err)
	}
	r.wc = wc

	if err := wc.ConfigureIdentity(r.cfg.CommitterName, r.cfg.CommitterEmail); err != nil {
		return err
	}
	if err := r.configureCredentialStore(originURL, creds); err != nil {
		return err
	}

	headRemote := OriginRemote
	if r.fork {
		headRemote = SourceRemote
		sourceURL := r.forge.CloneURL(r.pr.HeadRepoFullName)
		r.splog.Info("Fetching fork %s...", r.pr.HeadRepoFullName)
		if err := wc.AddRemoteIfAbsent(SourceRemote, sourceURL); err != nil {
			return err
		}
		if err := wc.FetchAllBranches(r.ctx, SourceRemote); err != nil {
			return fmt.Errorf("failed to fetch fork %s: %w", r.pr.HeadRepoFullName, err)
		}
	}
	if err := wc.FetchAllBranches(r.ctx, OriginRemote); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", r.repo.FullName(), err)
	}

	return r.resolveHead(headRemote)
}

// resolveHead finds the head commit on headRemote, falling back to the
// platform's read-only pull request ref when the branch is gone.
func (r *reposter) resolveHead(headRemote string) error {
	var branchErr error
	if r.pr.HeadBranch != "" {
		sha, err := r.wc.ResolveRemoteBranch(headRemote, r.pr.HeadBranch)
		if err == nil {
			r.headCommit = sha
			r.headRef = headRemote + "/" + r.pr.HeadBranch
			return nil
		}
		if !errors.Is(err, repostErrors.ErrBranchNotFound) {
			return err
		}
		branchErr = err
	} else {
		branchErr = repostErrors.NewBranchNotFoundError(headRemote, "(unknown head branch)")
	}

	prRef := r.forge.PullRequestHeadRef(r.pr.Number)
	localRef := fmt.Sprintf("refs/remotes/%s/pr/%d", OriginRemote, r.pr.Number)
	r.splog.Warn("Head branch not found on %s; fetching %s instead", headRemote, prRef)
	if err := r.wc.FetchRef(r.ctx, OriginRemote, prRef, localRef); err != nil {
		return fmt.Errorf("%w (fallback %s: %v)", branchErr, prRef, err)
	}
	sha, err := r.wc.ResolveRef(localRef)
	if err != nil {
		return err
	}
	r.headCommit = sha
	r.headRef = prRef
	return nil
}

// mergeBase builds the integration branch from the base branch and merges the head into it.
// origin/<base> always wins over source/<base>.
func (r *reposter) mergeBase() error {
	base := r.cfg.BaseBranch

	baseCommit, err := r.wc.ResolveRemoteBranch(OriginRemote, base)
	r.baseRemote = OriginRemote
	if err != nil && errors.Is(err, repostErrors.ErrBranchNotFound) && r.fork {
		baseCommit, err = r.wc.ResolveRemoteBranch(SourceRemote, base)
		r.baseRemote = SourceRemote
	}
	if err != nil {
		r.baseRemote = ""
		return fmt.Errorf("failed to resolve base branch %s: %w", base, err)
	}
	r.splog.Info("Using base %s/%s at %s", r.baseRemote, base, shortSHA(baseCommit))

	integration := IntegrationBranch(r.opts.Number)
	if err := r.wc.CreateAndCheckoutBranch(r.ctx, integration, baseCommit, true); err != nil {
		return err
	}

	message := fmt.Sprintf("Merge %s into %s\n\n%s", r.headRef, base, Trailer(r.repo, r.opts.Number))
	r.splog.Info("Merging %s into %s...", r.headRef, integration)
	result, err := r.wc.Merge(r.ctx, git.MergeOptions{Commit: r.headCommit, Message: message})
	if err != nil {
		return err
	}
	r.merge = result

	if result.Status == git.MergeUpToDate {
		return fmt.Errorf("%s is already contained in %s/%s: %w", r.headRef, r.baseRemote, base, repostErrors.ErrNothingToRepost)
	}
	return nil
}

func (r *reposter) publish() (*forge.CreatedPullRequest, error) {
	branch := PublishBranch(r.opts.Number)
	base := r.cfg.BaseBranch

	if err := r.wc.CreateBranch(r.ctx, branch, r.merge.Commit, true); err != nil {
		return nil, err
	}
	if err := checkOwnership(r.wc, OriginRemote, branch, Trailer(r.repo, r.opts.Number)); err != nil {
		return nil, err
	}

	plan := PublishPlan{
		Branch: branch,
		Base:   base,
		Commit: r.merge.Commit,
		Title:  renderTitle(r.cfg.TitleTemplate, r.pr, base),
		Note:   r.cfg.Note,
	}
	if r.opts.Confirm != nil {
		confirmed, ok, err := r.opts.Confirm(r.ctx, plan)
		if err != nil {
			return nil, fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			return nil, repostErrors.ErrPublishDeclined
		}
		if strings.TrimSpace(confirmed.Title) != "" {
			plan.Title = strings.TrimSpace(confirmed.Title)
		}
		plan.Note = confirmed.Note
	}

	r.splog.Info("Pushing %s to %s...", branch, OriginRemote)
	if err := r.wc.Push(r.ctx, git.PushOptions{
		Remote:       OriginRemote,
		LocalBranch:  branch,
		RemoteBranch: branch,
		Force:        true,
	}); err != nil {
		return nil, fmt.Errorf("failed to push %s: %w", branch, err)
	}

	r.splog.Info("Opening pull request %s -> %s...", branch, base)
	created, err := r.forge.CreatePullRequest(r.ctx, forge.CreateOptions{
		Title: plan.Title,
		Body:  renderBody(r.cfg.BodyTemplate, r.pr, base, plan.Note),
		Head:  branch,
		Base:  base,
		Draft: r.cfg.Draft,
	})
	if errors.Is(err, repostErrors.ErrValidation) {
		// A rerun leaves the earlier pull request open; the push above already updated it
		existing, findErr := r.forge.FindOpenPullRequest(r.ctx, branch, base)
		if findErr == nil {
			r.splog.Info("Pull request #%d is already open for %s; updated it", existing.Number, branch)
			return existing, nil
		}
		if !errors.Is(findErr, repostErrors.ErrNotFound) {
			r.splog.Debug("Looking up existing pull request failed: %v", findErr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open pull request: %w", err)
	}
	return created, nil
}

func (r *reposter) credentials() git.Credentials {
	username := git.DefaultUsername
	if r.forge.Platform() == forge.PlatformGitLab {
		username = gitlabUsername
	}
	return git.Credentials{Username: username, Token: r.cfg.Token}
}

// configureCredentialStore saves the token for the origin host into the explicit
// store file and points the working copy's credential helper at it.
func (r *reposter) configureCredentialStore(originURL string, creds git.Credentials) error {
	if r.cfg.CredentialFile == "" || creds.Token == "" || !git.IsHTTPURL(originURL) {
		return nil
	}
	store := git.NewCredentialStore(r.cfg.CredentialFile)
	if err := store.Save(originURL, creds); err != nil {
		return err
	}
	r.splog.Debug("Credentials for %s stored in %s", originURL, r.cfg.CredentialFile)
	return r.wc.UseCredentialStore(r.cfg.CredentialFile)
}

func (r *reposter) advance(to State, detail string) {
	from := r.state
	r.state = to
	r.splog.Debug("%s -> %s: %s", from, to, detail)
	if r.opts.Observer != nil {
		r.opts.Observer(Transition{From: from, To: to, Detail: detail})
	}
}

func (r *reposter) outcome(kind OutcomeKind) *Outcome {
	return &Outcome{
		Kind:        kind,
		State:       r.state,
		Number:      r.opts.Number,
		Branch:      PublishBranch(r.opts.Number),
		BaseRemote:  r.baseRemote,
		WorkDir:     r.workDir,
		WorkDirKept: r.wc != nil,
	}
}

func (r *reposter) conflicts() *Outcome {
	outcome := r.outcome(OutcomeConflicts)
	outcome.Conflicts = r.merge.Conflicts
	r.advance(StateAborted, fmt.Sprintf("%d conflicting files", len(r.merge.Conflicts)))
	r.splog.Warn("Merging %s into %s/%s conflicts in %d files", r.headRef, r.baseRemote, r.cfg.BaseBranch, len(r.merge.Conflicts))
	r.splog.Tip("Working copy kept at %s for manual resolution", r.workDir)
	return outcome
}

func (r *reposter) fail(err error) *Outcome {
	outcome := r.outcome(OutcomeFailed)
	outcome.Reason = err.Error()
	outcome.Err = err
	r.advance(StateAborted, err.Error())
	if r.wc != nil {
		r.splog.Tip("Working copy kept at %s for inspection", r.workDir)
	}
	return outcome
}

func (r *reposter) cleanup(outcome *Outcome) {
	if r.wc == nil {
		return
	}
	if r.cfg.KeepWorkDir {
		r.splog.Info("Working copy kept at %s", r.workDir)
		return
	}
	if err := r.wc.Remove(); err != nil {
		r.splog.Warn("Failed to remove working copy: %v", err)
		return
	}
	outcome.WorkDirKept = false
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
