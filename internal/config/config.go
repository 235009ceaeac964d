package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"updaterepos/internal/vcs"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in
	// sync:
	// - CLI flags in internal/cli/update.go
	// - config file keys in internal/config/file.go
	Discovery Discovery
	Update    Update
	Output    Output
	Runtime   Runtime
}

type Discovery struct {
	// Roots are the directories to search (positional arguments). Defaults to
	// the working directory.
	Roots []string

	// MaxDepth bounds how deep below a root discovery looks (see --max-depth).
	// -1 means unlimited.
	MaxDepth int

	// Nested keeps searching inside working copies for nested checkouts (see --nested).
	Nested bool

	// FollowSymlinks descends into symlinked directories (see --follow-symlinks).
	FollowSymlinks bool

	// Include restricts updated repositories by path.Match pattern (see --include).
	// If a pattern contains '/', it matches the path relative to the root, else the directory name.
	Include []string

	// Exclude prunes directories by pattern (see --exclude). Same matching rules as Include.
	Exclude []string
}

type Update struct {
	// Kinds restricts updates to these VCS kinds (see --kinds). Empty means all.
	Kinds []string

	// ExcludeKinds never updates these kinds (see --exclude-kinds).
	ExcludeKinds []string

	// FailOn lists outcome statuses that make the process exit non-zero (see --fail-on).
	FailOn []string

	// ExtraArgs appends arguments to the update command per kind (config file only).
	ExtraArgs map[string][]string

	// DryRun lists what would be updated without running anything (see --dry-run).
	DryRun bool
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus filters console output by outcome status (see --console-filter-status).
	ConsoleFilterStatus []string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool

	// Color controls ANSI colors: auto, always, never (see --color).
	Color string
}

type Runtime struct {
	// Concurrency is the number of update workers (see --concurrency). Must be >= 1.
	Concurrency int

	// RepoTimeout bounds each repository's update (see --repo-timeout). Must be > 0.
	RepoTimeout time.Duration

	// GracePeriod is how long a terminated update may take to exit before it
	// is killed (see --grace-period). Must be > 0.
	GracePeriod time.Duration

	// RunTimeout cancels the whole run after this long (see --run-timeout). 0 disables it.
	RunTimeout time.Duration

	// ConfigFile is the YAML config file path (see --config).
	ConfigFile string

	// Verbose prints commands and full diagnostics.
	Verbose bool
}

// Default values.
const (
	DefaultMaxDepth    = 8
	DefaultRepoTimeout = 5 * time.Minute
	DefaultGracePeriod = 5 * time.Second
)

// DefaultFailOn lists the statuses that make a run exit non-zero by default.
var DefaultFailOn = []string{string(vcs.StatusFailed), string(vcs.StatusTimedOut)}

func DefaultConcurrency() int {
	return max(1, runtime.NumCPU())
}

func New() *Config {
	return &Config{
		Discovery: Discovery{
			MaxDepth: DefaultMaxDepth,
		},
		Update: Update{
			FailOn: append([]string(nil), DefaultFailOn...),
		},
		Output: Output{
			ConsoleFormat: "text",
			Color:         "auto",
		},
		Runtime: Runtime{
			Concurrency: DefaultConcurrency(),
			RepoTimeout: DefaultRepoTimeout,
			GracePeriod: DefaultGracePeriod,
		},
	}
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Discovery.Include = splitCommaList(c.Discovery.Include)
	c.Discovery.Exclude = splitCommaList(c.Discovery.Exclude)
	c.Update.Kinds = splitCommaList(c.Update.Kinds)
	c.Update.ExcludeKinds = splitCommaList(c.Update.ExcludeKinds)
	c.Update.FailOn = splitCommaList(c.Update.FailOn)
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)
	c.Output.Emit = splitCommaList(c.Output.Emit)

	// Discovery validation
	if len(c.Discovery.Roots) == 0 {
		c.Discovery.Roots = []string{"."}
	}
	for i, r := range c.Discovery.Roots {
		if strings.TrimSpace(r) == "" {
			return errors.New("root directory must not be empty")
		}
		c.Discovery.Roots[i] = filepath.Clean(expandHome(r))
	}
	if c.Discovery.MaxDepth < -1 {
		return errors.New("--max-depth must be >= -1 (-1 = unlimited)")
	}

	// Update validation
	var err error
	if c.Update.Kinds, err = normalizeKinds(c.Update.Kinds, "--kinds"); err != nil {
		return err
	}
	if c.Update.ExcludeKinds, err = normalizeKinds(c.Update.ExcludeKinds, "--exclude-kinds"); err != nil {
		return err
	}
	if c.Update.FailOn, err = normalizeStatuses(c.Update.FailOn, "--fail-on"); err != nil {
		return err
	}
	if len(c.Update.ExtraArgs) > 0 {
		normalized := make(map[string][]string, len(c.Update.ExtraArgs))
		for k, args := range c.Update.ExtraArgs {
			kind, err := vcs.ParseKind(k)
			if err != nil {
				return fmt.Errorf("invalid adapters entry: %w", err)
			}
			normalized[string(kind)] = args
		}
		c.Update.ExtraArgs = normalized
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}
	if c.Output.ConsoleFilterStatus, err = normalizeStatuses(c.Output.ConsoleFilterStatus, "--console-filter-status"); err != nil {
		return err
	}

	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
		c.Output.Emit[i] = v
	}

	c.Output.Color = normalizeEnumValue(c.Output.Color)
	if c.Output.Color == "" {
		c.Output.Color = "auto"
	}
	if c.Output.Color != "auto" && c.Output.Color != "always" && c.Output.Color != "never" {
		return fmt.Errorf("unsupported --color: %s (must be one of: auto, always, never)", c.Output.Color)
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.RepoTimeout <= 0 {
		return errors.New("--repo-timeout must be > 0")
	}
	if c.Runtime.GracePeriod <= 0 {
		return errors.New("--grace-period must be > 0")
	}
	if c.Runtime.RunTimeout < 0 {
		return errors.New("--run-timeout must be >= 0")
	}

	return nil
}

// AllowedKinds returns the validated --kinds values.
func (c *Config) AllowedKinds() []vcs.Kind {
	return toKinds(c.Update.Kinds)
}

// DeniedKinds returns the validated --exclude-kinds values.
func (c *Config) DeniedKinds() []vcs.Kind {
	return toKinds(c.Update.ExcludeKinds)
}

// FailOnStatuses returns the validated --fail-on values.
func (c *Config) FailOnStatuses() []vcs.Status {
	out := make([]vcs.Status, 0, len(c.Update.FailOn))
	for _, s := range c.Update.FailOn {
		out = append(out, vcs.Status(s))
	}
	return out
}

// KindExtraArgs returns ExtraArgs keyed by kind.
func (c *Config) KindExtraArgs() map[vcs.Kind][]string {
	if len(c.Update.ExtraArgs) == 0 {
		return nil
	}
	out := make(map[vcs.Kind][]string, len(c.Update.ExtraArgs))
	for k, v := range c.Update.ExtraArgs {
		out[vcs.Kind(k)] = v
	}
	return out
}

func toKinds(values []string) []vcs.Kind {
	out := make([]vcs.Kind, 0, len(values))
	for _, v := range values {
		out = append(out, vcs.Kind(v))
	}
	return out
}

func normalizeKinds(values []string, flag string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		k, err := vcs.ParseKind(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", flag, err)
		}
		out = append(out, string(k))
	}
	return out, nil
}

func normalizeStatuses(values []string, flag string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, err := vcs.ParseStatus(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", flag, err)
		}
		out = append(out, string(s))
	}
	return out, nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
