package main

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/jaxxstorm/flowvers"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// settings is the configuration gathered from the config file and the
// environment, before command line flags are applied.
type settings struct {
	TagPattern    string `yaml:"tag_pattern" env:"FLOWVERS_TAG_PATTERN"`
	RCTagPattern  string `yaml:"rc_tag_pattern" env:"FLOWVERS_RC_TAG_PATTERN"`
	ReleasePrefix string `yaml:"release_prefix" env:"FLOWVERS_RELEASE_PREFIX"`
	HotfixPrefix  string `yaml:"hotfix_prefix" env:"FLOWVERS_HOTFIX_PREFIX"`
	DefaultBranch string `yaml:"default_branch" env:"FLOWVERS_DEFAULT_BRANCH"`
	ReleaseType   string `yaml:"release_type" env:"FLOWVERS_RELEASE_TYPE"`
	MinVersion    string `yaml:"min_version" env:"FLOWVERS_MIN_VERSION"`
	Snapshot      string `yaml:"snapshot" env:"FLOWVERS_SNAPSHOT"`
	LogLevel      string `yaml:"log_level" env:"FLOWVERS_LOG_LEVEL"`

	// Branch hints exported by CI systems that build from a detached HEAD
	GithubHeadRef string `yaml:"-" env:"GITHUB_HEAD_REF"`
	GithubRefName string `yaml:"-" env:"GITHUB_REF_NAME"`
	GitlabRefName string `yaml:"-" env:"CI_COMMIT_REF_NAME"`
}

// loadSettings reads the optional YAML file and overlays the environment.
// Variables from envFile are loaded first without replacing ones already set.
func loadSettings(configPath, envFile string) (*settings, error) {
	s := &settings{}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	return s, nil
}

// defaultBranch returns the configured branch hint, falling back to CI refs.
// GITHUB_HEAD_REF is only set for pull requests, where GITHUB_REF_NAME holds
// the merge ref instead of a branch.
func (s *settings) defaultBranch() string {
	for _, b := range []string{s.DefaultBranch, s.GithubHeadRef, s.GithubRefName, s.GitlabRefName} {
		if b != "" {
			return b
		}
	}
	return ""
}

// override replaces each setting with its flag when the flag was given.
func (s *settings) override(c *CLI) {
	set := func(dst *string, flag string) {
		if flag != "" {
			*dst = flag
		}
	}
	set(&s.TagPattern, c.TagPattern)
	set(&s.RCTagPattern, c.RCTagPattern)
	set(&s.ReleasePrefix, c.ReleasePrefix)
	set(&s.HotfixPrefix, c.HotfixPrefix)
	set(&s.DefaultBranch, c.DefaultBranch)
	set(&s.ReleaseType, c.ReleaseType)
	set(&s.MinVersion, c.MinVersion)
	set(&s.Snapshot, c.Snapshot)
	set(&s.LogLevel, c.LogLevel)
}

// resolveConfig turns settings into a library configuration.
func (s *settings) resolveConfig(dir string) (flowvers.Config, error) {
	cfg := flowvers.Config{
		Dir:             dir,
		TagPattern:      s.TagPattern,
		RCTagPattern:    s.RCTagPattern,
		ReleasePrefix:   s.ReleasePrefix,
		HotfixPrefix:    s.HotfixPrefix,
		DefaultBranch:   s.defaultBranch(),
		ReleaseTypeHint: s.ReleaseType,
		SnapshotPath:    s.Snapshot,
	}

	if s.MinVersion != "" {
		override, err := flowvers.ParseOverride(s.MinVersion)
		if err != nil {
			return flowvers.Config{}, fmt.Errorf("invalid minimum version %q: %w", s.MinVersion, err)
		}
		cfg.Override = override
	}

	return cfg, nil
}
