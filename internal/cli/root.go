package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"repost.dev/repost/internal/actions/repost"
	"repost.dev/repost/internal/config"
	"repost.dev/repost/internal/runtime"
	"repost.dev/repost/internal/tui"
)

type rootFlags struct {
	configFile     string
	platform       string
	base           string
	workDir        string
	keepWorkDir    bool
	credentialFile string
	logFile        string
	log            bool
	noInteractive  bool
	jsonOutput     bool
	draft          bool
	note           string
}

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "repost <pr_number>",
		Short: "Repost a pull request on top of the current base branch",
		Long: `Repost re-creates a pull request whose branch has fallen behind its base.

The pull request's head is merged into a fresh copy of the base branch. A clean
result is force-pushed as pr<N>_fix and opened as a new pull request that credits
the original author. Conflicts are reported and nothing is pushed.

Configuration comes from GITHUB_TOKEN (or GITLAB_TOKEN), REPO_OWNER, REPO_NAME and
BASE_BRANCH, optionally preceded by a YAML file given with --config.`,
		Example: `  REPO_OWNER=acme REPO_NAME=widgets repost 42
  repost 42 --base main --draft --note "Rebased onto main"
  repost 7 --no-interactive --json`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			number, err := parsePRNumber(args[0])
			if err != nil {
				return err
			}
			return runRepost(cmd, flags, number)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&flags.configFile, "config", "", "YAML configuration file (default $REPOST_CONFIG)")
	f.StringVar(&flags.platform, "platform", "", "Hosting platform: github or gitlab")
	f.StringVar(&flags.base, "base", "", "Base branch the pull request is reposted onto (default $BASE_BRANCH or develop)")
	f.StringVar(&flags.workDir, "work-dir", "", "Directory for the working copy (default a per-PR temp directory)")
	f.BoolVar(&flags.keepWorkDir, "keep-work-dir", false, "Keep the working copy after a successful repost")
	f.StringVar(&flags.credentialFile, "credential-file", "", "Git credential store written for the working copy")
	f.StringVar(&flags.logFile, "log-file", "", "Write a rotating debug log to this file")
	f.BoolVar(&flags.log, "log", false, "Write a rotating debug log to ~/.repost/logs/repost.log")
	f.BoolVar(&flags.noInteractive, "no-interactive", false, "Never prompt; publish without confirmation")
	f.BoolVar(&flags.jsonOutput, "json", false, "Print the outcome as a JSON object")
	f.BoolVar(&flags.draft, "draft", false, "Open the new pull request as a draft")
	f.StringVar(&flags.note, "note", "", "Note appended to the new pull request's description")

	return rootCmd
}

func parsePRNumber(arg string) (int, error) {
	number, err := strconv.Atoi(arg)
	if err != nil || number <= 0 {
		return 0, fmt.Errorf("invalid pull request number %q: must be a positive integer", arg)
	}
	return number, nil
}

// overrides collects the flags that were set explicitly so they take precedence over the environment
func (f *rootFlags) overrides(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	changed := cmd.Flags().Changed
	if changed("platform") {
		o.Platform = &f.platform
	}
	if changed("base") {
		o.BaseBranch = &f.base
	}
	if changed("work-dir") {
		o.WorkDir = &f.workDir
	}
	if changed("keep-work-dir") {
		o.KeepWorkDir = &f.keepWorkDir
	}
	if changed("credential-file") {
		o.CredentialFile = &f.credentialFile
	}
	if changed("log-file") {
		o.LogFile = &f.logFile
	} else if f.log {
		path := tui.DefaultLogFilePath()
		o.LogFile = &path
	}
	if changed("no-interactive") {
		o.NoInteractive = &f.noInteractive
	}
	if changed("json") {
		o.JSON = &f.jsonOutput
	}
	if changed("draft") {
		o.Draft = &f.draft
	}
	if changed("note") {
		o.Note = &f.note
	}
	return o
}

func runRepost(cmd *cobra.Command, flags *rootFlags, number int) error {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: flags.configFile,
		Overrides:  flags.overrides(cmd),
	})
	if err != nil {
		return err
	}

	// Progress goes to stderr under --json so stdout carries only the outcome
	console := cmd.OutOrStdout()
	if cfg.JSON {
		console = cmd.ErrOrStderr()
	}
	splog, err := tui.NewSplogWithConfig(tui.SplogConfig{
		Writer:  console,
		LogFile: cfg.LogFile,
		Rotation: tui.LogRotation{
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = splog.Close() }()

	rctx, err := runtime.NewContextAuto(cmd.Context(), cfg, splog)
	if err != nil {
		return err
	}

	var trail []repost.Transition
	opts := repost.Options{
		Number: number,
		Observer: func(t repost.Transition) {
			trail = append(trail, t)
		},
	}
	if !cfg.NoInteractive && !cfg.JSON && tui.IsTTY() {
		opts.Confirm = confirmPublish(splog, cfg.Note == "")
	}

	outcome := repost.Action(rctx, opts)
	if err := printOutcome(cmd.OutOrStdout(), outcome, trail, cfg.JSON); err != nil {
		return err
	}
	if outcome.Kind == repost.OutcomeFailed {
		return &ExitError{Code: ExitFailed, Err: outcome.Err}
	}
	return nil
}

// isTerminalWriter reports whether w is a terminal, for styling the outcome line
func isTerminalWriter(w any) bool {
	f, ok := w.(*os.File)
	return ok && tui.IsTerminal(f)
}
