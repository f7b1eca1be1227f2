package runtime

import (
	"context"
	"fmt"

	"repost.dev/repost/internal/config"
	"repost.dev/repost/internal/forge"
	"repost.dev/repost/internal/github"
	"repost.dev/repost/internal/gitlab"
	"repost.dev/repost/internal/tui"
)

// Context provides access to configuration, output and the forge for actions
type Context struct {
	Context context.Context
	Config  *config.Config
	Splog   *tui.Splog
	Forge   forge.Forge
}

// NewContext creates a context from already built dependencies
func NewContext(ctx context.Context, cfg *config.Config, splog *tui.Splog, f forge.Forge) *Context {
	if splog == nil {
		splog = tui.NewSplog()
	}
	return &Context{
		Context: ctx,
		Config:  cfg,
		Splog:   splog,
		Forge:   f,
	}
}

// NewContextAuto creates a context with the forge selected by cfg.Platform
func NewContextAuto(ctx context.Context, cfg *config.Config, splog *tui.Splog) (*Context, error) {
	f, err := NewForge(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewContext(ctx, cfg, splog, f), nil
}

// NewForge creates the forge gateway for cfg.Platform
func NewForge(ctx context.Context, cfg *config.Config) (forge.Forge, error) {
	switch cfg.Platform {
	case forge.PlatformGitHub:
		return github.NewClient(ctx, github.Options{
			Token:      cfg.Token,
			Repository: cfg.Repository(),
			Host:       cfg.Host,
			APIURL:     cfg.APIURL,
			GitURL:     cfg.GitURL,
			Timeout:    cfg.HTTPTimeout,
		})
	case forge.PlatformGitLab:
		return gitlab.NewClient(gitlab.Options{
			Token:      cfg.Token,
			Repository: cfg.Repository(),
			Host:       cfg.Host,
			APIURL:     cfg.APIURL,
			GitURL:     cfg.GitURL,
			Timeout:    cfg.HTTPTimeout,
		})
	}
	return nil, fmt.Errorf("unsupported platform %q", cfg.Platform)
}
