// Package flowvers derives git-flow style version descriptors for Git repositories.
package flowvers

import (
	"github.com/blang/semver"
	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"
)

// Unknown is the placeholder used for every string field that could not be resolved.
const Unknown = "unknown"

// Flags carried by a resolved version.
const (
	FlagRelease = ""
	FlagAlpha   = "alpha"
	FlagRC      = "rc"
	FlagUnknown = Unknown
)

// BranchCategory classifies a branch according to git-flow naming.
type BranchCategory int

const (
	CategoryUnknown BranchCategory = iota
	CategoryMaster
	CategoryRelease
	CategoryHotfix
	CategoryOther
)

func (c BranchCategory) String() string {
	switch c {
	case CategoryMaster:
		return "master"
	case CategoryRelease:
		return "release"
	case CategoryHotfix:
		return "hotfix"
	case CategoryOther:
		return "other"
	default:
		return Unknown
	}
}

// RawTagMatch is the version parsed from the nearest matching tag together
// with the number of commits between that tag and HEAD.
type RawTagMatch struct {
	Tag      string
	Major    uint64
	Minor    uint64
	Patch    uint64
	Distance uint64
}

// Semver returns the numeric triple of the tag.
func (m RawTagMatch) Semver() semver.Version {
	return semver.Version{Major: m.Major, Minor: m.Minor, Patch: m.Patch}
}

// CustomOverride is a minimum version floor supplied by the caller.
type CustomOverride struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// Semver returns the override as a comparable version.
func (o CustomOverride) Semver() semver.Version {
	return semver.Version{Major: o.Major, Minor: o.Minor, Patch: o.Patch}
}

// ParseOverride parses "X.Y.Z" (a leading "v" and a missing patch are tolerated).
func ParseOverride(s string) (*CustomOverride, error) {
	v, err := semver.ParseTolerant(s)
	if err != nil {
		return nil, err
	}
	return &CustomOverride{Major: v.Major, Minor: v.Minor, Patch: v.Patch}, nil
}

// VersionComponents is the resolved version record. It is produced once per
// Resolve call and is not modified afterwards.
type VersionComponents struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Flag       string
	Distance   uint64
	IsDirty    bool
	ShortHash  string
	FullHash   string
	BranchName string
	Category   BranchCategory
	Success    bool
}

// Semver returns the numeric triple of the resolved version.
func (v VersionComponents) Semver() semver.Version {
	return semver.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
}

// String renders the canonical version string.
func (v VersionComponents) String() string {
	return Render(v)
}

// Config configures a single resolution. It is passed by value and never
// mutated by this package.
type Config struct {
	// Dir is the repository working directory. Required unless Repository is set.
	Dir string

	// Repository is an already opened repository. When set Dir is only used
	// to locate the archive snapshot.
	Repository *git.Repository

	// TagPattern is the regex version tags must match (e.g. `^v[0-9]+\.[0-9]+`)
	TagPattern string

	// RCTagPattern is the regex release-candidate start tags must match
	RCTagPattern string

	// ReleasePrefix and HotfixPrefix select the release and hotfix branches
	ReleasePrefix string
	HotfixPrefix  string

	// DefaultBranch is used when HEAD is detached
	DefaultBranch string

	// ReleaseTypeHint makes an undeterminable branch resolve with master rules
	ReleaseTypeHint string

	// Override is an optional minimum version
	Override *CustomOverride

	// SnapshotPath is the archive snapshot file, relative to Dir unless absolute
	SnapshotPath string

	Logger *zap.Logger
}

// Default configuration values.
const (
	DefaultTagPattern    = `^v[0-9]+\.[0-9]+`
	DefaultRCTagPattern  = `^rc-[0-9]+\.[0-9]+`
	DefaultReleasePrefix = "release/"
	DefaultHotfixPrefix  = "hotfix/"
	DefaultSnapshotPath  = ".git_archival.yml"
)

// WithDefaults returns a copy of c with empty fields set to their defaults.
func (c Config) WithDefaults() Config {
	if c.TagPattern == "" {
		c.TagPattern = DefaultTagPattern
	}
	if c.RCTagPattern == "" {
		c.RCTagPattern = DefaultRCTagPattern
	}
	if c.ReleasePrefix == "" {
		c.ReleasePrefix = DefaultReleasePrefix
	}
	if c.HotfixPrefix == "" {
		c.HotfixPrefix = DefaultHotfixPrefix
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = DefaultSnapshotPath
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
