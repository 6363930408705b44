package flowvers

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/blang/semver"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"
)

const shortHashLength = 7

// Resolve computes the version of the repository described by cfg.
//
// Only configuration errors are returned. Every repository failure is logged
// and replaced with its fallback: the archive snapshot when the repository
// cannot be read, the zero version when no tag matches, and so on. Success on
// the result reports whether the hash fields are real.
func Resolve(cfg Config) (*VersionComponents, error) {
	if cfg.Dir == "" && cfg.Repository == nil {
		return nil, ErrMissingDirectory
	}
	cfg = cfg.WithDefaults()

	tagPattern, err := regexp.Compile(cfg.TagPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid tag pattern: %w", err)
	}
	rcPattern, err := regexp.Compile(cfg.RCTagPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid rc tag pattern: %w", err)
	}

	r := &resolver{
		cfg:        cfg,
		tagPattern: tagPattern,
		rcPattern:  rcPattern,
		log:        cfg.Logger.With(zap.String("dir", cfg.Dir)),
	}

	in, src, err := r.live()
	if err != nil {
		r.log.Warn("Repository query failed, using archive snapshot", zap.Error(err))
		in, src = r.snapshot()
	}

	v := ApplyOverride(Compose(in), cfg.Override)
	v.ShortHash = src.ShortHash
	v.FullHash = src.FullHash
	v.BranchName = src.Branch
	v.IsDirty = src.Dirty
	v.Success = src.Success

	r.log.Debug("Resolved version",
		zap.String("version", Render(v)),
		zap.Stringer("category", v.Category),
		zap.Bool("success", v.Success),
	)

	return &v, nil
}

// source is the non-version data of a resolution.
type source struct {
	ShortHash string
	FullHash  string
	Branch    string
	Dirty     bool
	Success   bool
}

func unresolvedSource() source {
	return source{ShortHash: Unknown, FullHash: Unknown, Branch: Unknown}
}

type resolver struct {
	cfg        Config
	tagPattern *regexp.Regexp
	rcPattern  *regexp.Regexp
	log        *zap.Logger
}

// live reads the repository. It fails only when no commit hash can be
// obtained; every later failure degrades the result instead.
func (r *resolver) live() (ComposeInput, source, error) {
	repo := r.cfg.Repository
	if repo == nil {
		var err error
		repo, err = OpenRepository(r.cfg.Dir)
		if err != nil {
			return ComposeInput{}, source{}, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
		}
	}

	head, err := currentHead(repo)
	if err != nil {
		return ComposeInput{}, source{}, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}

	branch := r.branchOrDefault(head.Branch)
	in := ComposeInput{
		Category:        Classify(branch, r.cfg.ReleasePrefix, r.cfg.HotfixPrefix),
		ReleaseTypeHint: r.cfg.ReleaseTypeHint,
	}

	tag, err := FindLatestTag(repo, head.Hash, r.tagPattern)
	if err != nil {
		r.log.Debug("No version tag found, counting all commits", zap.Error(err))
		total, cerr := CountCommits(repo, head.Hash, plumbing.ZeroHash)
		if cerr != nil {
			r.log.Warn("Counting commits failed", zap.Error(cerr))
		}
		tag = &RawTagMatch{Distance: total}
	}
	in.Tag = *tag

	if in.Category == CategoryRelease || in.Category == CategoryHotfix {
		in.BranchVersion = r.branchVersion(branch, in.Category)

		rc, err := FindLatestRCTag(repo, head.Hash, r.rcPattern)
		if err != nil {
			r.log.Debug("No rc start tag found", zap.Error(err))
		} else {
			in.RCTag = rc
		}
	}

	dirty, err := workTreeIsDirty(repo)
	if err != nil {
		r.log.Warn("Checking worktree failed", zap.Error(err))
	}

	full := head.Hash.String()
	src := source{
		ShortHash: full[:shortHashLength],
		FullHash:  full,
		Branch:    branch,
		Dirty:     dirty,
		Success:   true,
	}
	if src.Branch == "" {
		src.Branch = Unknown
	}

	return in, src, nil
}

// snapshot builds the inputs from the archive snapshot. It always succeeds;
// without a usable snapshot every field takes its placeholder.
func (r *resolver) snapshot() (ComposeInput, source) {
	in := ComposeInput{ReleaseTypeHint: r.cfg.ReleaseTypeHint}

	snap, err := r.loadSnapshot()
	if err != nil {
		r.log.Warn("No usable archive snapshot", zap.Error(err))
		return in, unresolvedSource()
	}

	descriptorBranch, tags := ParseBranchDescriptor(snap.Branch, r.cfg.ReleasePrefix, r.cfg.HotfixPrefix)
	branch := r.branchOrDefault(descriptorBranch)
	in.Category = Classify(branch, r.cfg.ReleasePrefix, r.cfg.HotfixPrefix)

	tag, err := snap.tagMatch(tags, r.tagPattern)
	if err != nil {
		r.log.Debug("Archive snapshot names no version tag", zap.Error(err))
	} else {
		in.Tag = *tag
	}

	if in.Category == CategoryRelease || in.Category == CategoryHotfix {
		in.BranchVersion = r.branchVersion(branch, in.Category)
	}

	src := source{
		ShortHash: snap.ShortHash,
		FullHash:  snap.FullHash,
		Branch:    branch,
		Success:   true,
	}
	if src.Branch == "" {
		src.Branch = Unknown
	}

	return in, src
}

func (r *resolver) loadSnapshot() (*Snapshot, error) {
	name := r.cfg.SnapshotPath
	if filepath.IsAbs(name) {
		return LoadSnapshot(osfs.New(filepath.Dir(name)), filepath.Base(name))
	}
	if r.cfg.Dir == "" {
		return nil, fmt.Errorf("%w: no directory to look for %s", ErrArchiveSnapshotMissing, name)
	}
	return LoadSnapshot(osfs.New(r.cfg.Dir), name)
}

func (r *resolver) branchOrDefault(branch string) string {
	if branch != "" {
		return branch
	}
	if r.cfg.DefaultBranch != "" {
		r.log.Debug("HEAD is detached, using default branch", zap.String("branch", r.cfg.DefaultBranch))
		return r.cfg.DefaultBranch
	}
	r.log.Debug("Branch could not be determined", zap.Error(ErrBranchUndetermined))
	return ""
}

func (r *resolver) branchVersion(branch string, category BranchCategory) *semver.Version {
	prefix := r.cfg.ReleasePrefix
	if category == CategoryHotfix {
		prefix = r.cfg.HotfixPrefix
	}

	v, err := ExtractBranchVersion(branch, prefix)
	if err != nil {
		r.log.Debug("Branch carries no version, bumping from tag", zap.Error(err))
		return nil
	}
	return v
}
