package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"updaterepos/internal/flags"
)

// DefaultFileName is looked up under the user config directory
// ($XDG_CONFIG_HOME/update-repos/config.yaml on Linux).
const DefaultFileName = "config.yaml"

// File is the optional YAML config file. All fields are optional; zero values
// leave the built-in defaults or command line flags in place.
type File struct {
	Roots          []string `yaml:"roots"`
	MaxDepth       *int     `yaml:"max_depth"`
	Nested         *bool    `yaml:"nested"`
	FollowSymlinks *bool    `yaml:"follow_symlinks"`
	Include        []string `yaml:"include"`
	Exclude        []string `yaml:"exclude"`

	Kinds        []string `yaml:"kinds"`
	ExcludeKinds []string `yaml:"exclude_kinds"`
	FailOn       []string `yaml:"fail_on"`

	Concurrency    int    `yaml:"concurrency"`
	RawRepoTimeout string `yaml:"repo_timeout"` // e.g. "2m"
	RawGracePeriod string `yaml:"grace_period"` // e.g. "5s"
	RawRunTimeout  string `yaml:"run_timeout"`

	Adapters map[string]AdapterConfig `yaml:"adapters"`
}

// AdapterConfig tunes one VCS adapter.
type AdapterConfig struct {
	Args []string `yaml:"args"` // extra arguments appended to the update command
}

// DefaultFilePath returns the default config file location, or "" when the
// user config directory is unknown.
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "update-repos", DefaultFileName)
}

// LoadFile reads path. When explicit is false a missing file is not an error
// and yields (nil, nil).
func LoadFile(path string, explicit bool) (*File, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &f, nil
}

// Apply copies file values into c for every setting not given on the command
// line. isSet reports whether a flag was set explicitly.
func (f *File) Apply(c *Config, isSet func(flag string) bool) error {
	if f == nil {
		return nil
	}
	if len(c.Discovery.Roots) == 0 && len(f.Roots) > 0 {
		c.Discovery.Roots = append([]string(nil), f.Roots...)
	}
	if f.MaxDepth != nil && !isSet(flags.FlagMaxDepth) {
		c.Discovery.MaxDepth = *f.MaxDepth
	}
	if f.Nested != nil && !isSet(flags.FlagNested) {
		c.Discovery.Nested = *f.Nested
	}
	if f.FollowSymlinks != nil && !isSet(flags.FlagFollowSymlinks) {
		c.Discovery.FollowSymlinks = *f.FollowSymlinks
	}
	if len(f.Include) > 0 && !isSet(flags.FlagInclude) {
		c.Discovery.Include = f.Include
	}
	if len(f.Exclude) > 0 && !isSet(flags.FlagExclude) {
		c.Discovery.Exclude = f.Exclude
	}
	if len(f.Kinds) > 0 && !isSet(flags.FlagKinds) {
		c.Update.Kinds = f.Kinds
	}
	if len(f.ExcludeKinds) > 0 && !isSet(flags.FlagExcludeKinds) {
		c.Update.ExcludeKinds = f.ExcludeKinds
	}
	if len(f.FailOn) > 0 && !isSet(flags.FlagFailOn) {
		c.Update.FailOn = f.FailOn
	}
	if f.Concurrency != 0 && !isSet(flags.FlagConcurrency) {
		c.Runtime.Concurrency = f.Concurrency
	}

	durations := []struct {
		raw  string
		flag string
		dst  *time.Duration
	}{
		{f.RawRepoTimeout, flags.FlagRepoTimeout, &c.Runtime.RepoTimeout},
		{f.RawGracePeriod, flags.FlagGracePeriod, &c.Runtime.GracePeriod},
		{f.RawRunTimeout, flags.FlagRunTimeout, &c.Runtime.RunTimeout},
	}
	for _, d := range durations {
		if d.raw == "" || isSet(d.flag) {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s in config file: %w", strings.ReplaceAll(d.flag, "-", "_"), err)
		}
		*d.dst = v
	}

	if len(f.Adapters) > 0 {
		c.Update.ExtraArgs = make(map[string][]string, len(f.Adapters))
		for kind, ac := range f.Adapters {
			if len(ac.Args) > 0 {
				c.Update.ExtraArgs[kind] = append([]string(nil), ac.Args...)
			}
		}
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
