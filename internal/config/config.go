package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasttemplate"
	"gopkg.in/yaml.v3"

	repostErrors "repost.dev/repost/internal/errors"
	"repost.dev/repost/internal/forge"
)

const (
	// DefaultBaseBranch is the branch pull requests are reposted against
	DefaultBaseBranch = "develop"
	// DefaultHTTPTimeout bounds each forge API request
	DefaultHTTPTimeout = 30 * time.Second
	// DefaultCommitterName is the identity recorded on merge commits
	DefaultCommitterName = "repost"
	// DefaultCommitterEmail is the email recorded on merge commits
	DefaultCommitterEmail = "repost@users.noreply.github.com"

	// DefaultTitleTemplate renders the reposted pull request's title
	DefaultTitleTemplate = "[Repost] {{title}}"
	// DefaultBodyTemplate renders the reposted pull request's body
	DefaultBodyTemplate = "This is a reposted PR originally created by @{{author}}\n\nOriginal PR: #{{number}}\n\n---\n{{body}}"

	templateStart = "{{"
	templateEnd   = "}}"
)

// requiredBodyPlaceholders keep the reposted pull request traceable to the original
var requiredBodyPlaceholders = []string{"author", "number"}

// Config is the fully resolved configuration of one invocation
type Config struct {
	Platform   forge.Platform
	Token      string
	Owner      string
	Repo       string
	BaseBranch string

	// Host is the platform host; empty means the public instance
	Host   string
	APIURL string
	GitURL string

	// WorkDir is where the working copy is cloned; empty derives a per-PR temp directory
	WorkDir        string
	KeepWorkDir    bool
	CredentialFile string

	LogFile        string
	LogMaxSize     int
	LogMaxBackups  int
	LogMaxAge      int
	NoInteractive  bool
	JSON           bool
	Draft          bool
	Note           string
	CommitterName  string
	CommitterEmail string
	HTTPTimeout    time.Duration

	TitleTemplate string
	BodyTemplate  string
}

// Repository returns the base repository
func (c *Config) Repository() forge.Repository {
	return forge.Repository{Owner: c.Owner, Name: c.Repo}
}

// File is the YAML configuration file layout
type File struct {
	Platform       string `yaml:"platform"`
	Token          string `yaml:"token"`
	Owner          string `yaml:"owner"`
	Repo           string `yaml:"repo"`
	BaseBranch     string `yaml:"base_branch"`
	Host           string `yaml:"host"`
	APIURL         string `yaml:"api_url"`
	GitURL         string `yaml:"git_url"`
	WorkDir        string `yaml:"work_dir"`
	KeepWorkDir    *bool  `yaml:"keep_work_dir"`
	CredentialFile string `yaml:"credential_file"`
	LogFile        string `yaml:"log_file"`
	HTTPTimeout    string `yaml:"http_timeout"`
	Draft          *bool  `yaml:"draft"`
	Committer      struct {
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
	} `yaml:"committer"`
	Templates struct {
		Title string `yaml:"title"`
		Body  string `yaml:"body"`
	} `yaml:"templates"`
}

// Overrides holds values set explicitly on the command line; nil means unset
type Overrides struct {
	Platform       *string
	BaseBranch     *string
	WorkDir        *string
	KeepWorkDir    *bool
	CredentialFile *string
	LogFile        *string
	NoInteractive  *bool
	JSON           *bool
	Draft          *bool
	Note           *string
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// ConfigFile is the YAML file to read; empty falls back to REPOST_CONFIG
	ConfigFile string
	// Getenv looks up environment variables; defaults to os.Getenv
	Getenv    func(string) string
	Overrides Overrides
}

// Load builds a Config from defaults, the optional YAML file, the environment
// and flag overrides, in increasing order of precedence, then validates it.
func Load(opts LoadOptions) (*Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := defaults()

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = getenv("REPOST_CONFIG")
	}
	if configFile != "" {
		file, err := ReadFile(configFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.applyFile(file); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	cfg.applyOverrides(opts.Overrides)

	// The platform's own variable wins over a token from the file; REPOST_TOKEN wins over both
	setString(&cfg.Token, getenv(cfg.tokenEnv()))
	setString(&cfg.Token, getenv("REPOST_TOKEN"))

	if cfg.CredentialFile == "" {
		cfg.CredentialFile = defaultCredentialFile()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Platform:       forge.PlatformGitHub,
		BaseBranch:     DefaultBaseBranch,
		HTTPTimeout:    DefaultHTTPTimeout,
		CommitterName:  DefaultCommitterName,
		CommitterEmail: DefaultCommitterEmail,
		TitleTemplate:  DefaultTitleTemplate,
		BodyTemplate:   DefaultBodyTemplate,
	}
}

// ReadFile parses a YAML configuration file
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, repostErrors.NewConfigError("config", fmt.Sprintf("failed to read %s: %v", path, err))
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, repostErrors.NewConfigError("config", fmt.Sprintf("failed to parse %s: %v", path, err))
	}
	return &file, nil
}

func (c *Config) applyFile(f *File) error {
	if f.Platform != "" {
		platform, err := forge.ParsePlatform(f.Platform)
		if err != nil {
			return repostErrors.NewConfigError("platform", err.Error())
		}
		c.Platform = platform
	}
	setString(&c.Token, f.Token)
	setString(&c.Owner, f.Owner)
	setString(&c.Repo, f.Repo)
	setString(&c.BaseBranch, f.BaseBranch)
	setString(&c.Host, f.Host)
	setString(&c.APIURL, f.APIURL)
	setString(&c.GitURL, f.GitURL)
	setString(&c.WorkDir, f.WorkDir)
	setString(&c.CredentialFile, f.CredentialFile)
	setString(&c.LogFile, f.LogFile)
	setString(&c.CommitterName, f.Committer.Name)
	setString(&c.CommitterEmail, f.Committer.Email)
	setString(&c.TitleTemplate, f.Templates.Title)
	setString(&c.BodyTemplate, f.Templates.Body)
	if f.KeepWorkDir != nil {
		c.KeepWorkDir = *f.KeepWorkDir
	}
	if f.Draft != nil {
		c.Draft = *f.Draft
	}
	if f.HTTPTimeout != "" {
		d, err := time.ParseDuration(f.HTTPTimeout)
		if err != nil || d <= 0 {
			return repostErrors.NewConfigError("http_timeout", fmt.Sprintf("invalid duration %q", f.HTTPTimeout))
		}
		c.HTTPTimeout = d
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if p := getenv("REPOST_PLATFORM"); p != "" {
		platform, err := forge.ParsePlatform(p)
		if err != nil {
			return repostErrors.NewConfigError("REPOST_PLATFORM", err.Error())
		}
		c.Platform = platform
	}

	setString(&c.Owner, getenv("REPO_OWNER"))
	setString(&c.Repo, getenv("REPO_NAME"))
	setString(&c.BaseBranch, getenv("BASE_BRANCH"))
	setString(&c.Host, getenv("REPOST_HOST"))
	setString(&c.APIURL, getenv("REPOST_API_URL"))
	setString(&c.GitURL, getenv("REPOST_GIT_URL"))
	setString(&c.WorkDir, getenv("REPOST_WORK_DIR"))
	setString(&c.CredentialFile, getenv("REPOST_CREDENTIAL_FILE"))
	setString(&c.LogFile, getenv("REPOST_LOG_FILE"))

	if v := getenv("REPOST_NO_INTERACTIVE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			// Any other non-empty value still disables prompts
			b = true
		}
		c.NoInteractive = b
	}

	for key, dst := range map[string]*int{
		"REPOST_LOG_MAX_SIZE":    &c.LogMaxSize,
		"REPOST_LOG_MAX_BACKUPS": &c.LogMaxBackups,
		"REPOST_LOG_MAX_AGE":     &c.LogMaxAge,
	} {
		v := getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return repostErrors.NewConfigError(key, fmt.Sprintf("expected a non-negative integer, got %q", v))
		}
		*dst = n
	}

	if v := getenv("REPOST_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return repostErrors.NewConfigError("REPOST_HTTP_TIMEOUT", fmt.Sprintf("invalid duration %q", v))
		}
		c.HTTPTimeout = d
	}
	return nil
}

func (c *Config) applyOverrides(o Overrides) {
	if o.Platform != nil {
		// Validated below so an unknown value is reported as a config error
		c.Platform = forge.Platform(strings.ToLower(*o.Platform))
	}
	if o.BaseBranch != nil {
		c.BaseBranch = *o.BaseBranch
	}
	if o.WorkDir != nil {
		c.WorkDir = *o.WorkDir
	}
	if o.KeepWorkDir != nil {
		c.KeepWorkDir = *o.KeepWorkDir
	}
	if o.CredentialFile != nil {
		c.CredentialFile = *o.CredentialFile
	}
	if o.LogFile != nil {
		c.LogFile = *o.LogFile
	}
	if o.NoInteractive != nil {
		c.NoInteractive = *o.NoInteractive
	}
	if o.JSON != nil {
		c.JSON = *o.JSON
	}
	if o.Draft != nil {
		c.Draft = *o.Draft
	}
	if o.Note != nil {
		c.Note = *o.Note
	}
}

// Validate checks that the configuration can drive a repost
func (c *Config) Validate() error {
	if _, err := forge.ParsePlatform(string(c.Platform)); err != nil {
		return repostErrors.NewConfigError("platform", err.Error())
	}
	if strings.TrimSpace(c.Token) == "" {
		return repostErrors.NewConfigError("token", fmt.Sprintf("no API token (set %s or REPOST_TOKEN)", c.tokenEnv()))
	}
	if strings.TrimSpace(c.Owner) == "" {
		return repostErrors.NewConfigError("owner", "repository owner is not set (REPO_OWNER)")
	}
	if strings.TrimSpace(c.Repo) == "" {
		return repostErrors.NewConfigError("repo", "repository name is not set (REPO_NAME)")
	}
	if strings.TrimSpace(c.BaseBranch) == "" {
		return repostErrors.NewConfigError("base_branch", "base branch is empty")
	}
	if c.HTTPTimeout <= 0 {
		return repostErrors.NewConfigError("http_timeout", "must be positive")
	}

	if err := checkTemplate("templates.title", c.TitleTemplate, nil); err != nil {
		return err
	}
	return checkTemplate("templates.body", c.BodyTemplate, requiredBodyPlaceholders)
}

func (c *Config) tokenEnv() string {
	if c.Platform == forge.PlatformGitLab {
		return "GITLAB_TOKEN"
	}
	return "GITHUB_TOKEN"
}

// checkTemplate ensures tmpl parses and references every required placeholder
func checkTemplate(field, tmpl string, required []string) error {
	if strings.TrimSpace(tmpl) == "" {
		return repostErrors.NewConfigError(field, "template is empty")
	}

	found := map[string]bool{}
	t, err := fasttemplate.NewTemplate(tmpl, templateStart, templateEnd)
	if err != nil {
		return repostErrors.NewConfigError(field, err.Error())
	}
	_, err = t.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		found[strings.TrimSpace(tag)] = true
		return 0, nil
	})
	if err != nil {
		return repostErrors.NewConfigError(field, err.Error())
	}

	for _, name := range required {
		if !found[name] {
			return repostErrors.NewConfigError(field, fmt.Sprintf("template must reference %s%s%s", templateStart, name, templateEnd))
		}
	}
	return nil
}

func defaultCredentialFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "repost", "git-credentials")
	}
	return filepath.Join(dir, "repost", "git-credentials")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
