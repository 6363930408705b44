package flowvers

import (
	"github.com/blang/semver"
)

// ComposeInput is everything the version rules look at. It is built the same
// way whether the data came from a live repository or an archive snapshot.
type ComposeInput struct {
	Category BranchCategory

	// Tag is the nearest version tag. When no tag exists it is the zero
	// version with the total commit count as distance.
	Tag RawTagMatch

	// BranchVersion is the version embedded in a release or hotfix branch name
	BranchVersion *semver.Version

	// RCTag is the nearest release-candidate start tag, if any
	RCTag *RawTagMatch

	// ReleaseTypeHint, when set, resolves CategoryUnknown with master rules
	ReleaseTypeHint string
}

// Compose applies the branch category rules and returns the version part of
// the record. Hash, branch and dirty fields are left for the caller.
func Compose(in ComposeInput) VersionComponents {
	category := in.Category
	if category == CategoryUnknown && in.ReleaseTypeHint != "" {
		category = CategoryMaster
	}

	tag := in.Tag.Semver()
	v := VersionComponents{Category: category}

	switch category {
	case CategoryMaster:
		v.setVersion(tag)
		v.Flag = FlagRelease
		v.Distance = in.Tag.Distance

	case CategoryRelease, CategoryHotfix:
		candidate := semver.Version{Major: tag.Major, Minor: tag.Minor + 1}
		if in.BranchVersion != nil {
			candidate = *in.BranchVersion
		}
		if !candidate.GT(tag) {
			candidate = bump(tag, category)
		}
		v.setVersion(candidate)
		v.Flag = FlagRC
		v.Distance = in.Tag.Distance
		if in.RCTag != nil {
			v.Distance = in.RCTag.Distance
		}

	case CategoryOther:
		v.setVersion(semver.Version{Major: tag.Major, Minor: tag.Minor + 1})
		v.Flag = FlagAlpha
		v.Distance = in.Tag.Distance

	default:
		v.Flag = FlagUnknown
	}

	return v
}

func bump(v semver.Version, category BranchCategory) semver.Version {
	if category == CategoryHotfix {
		return semver.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	}
	return semver.Version{Major: v.Major, Minor: v.Minor + 1}
}

func (v *VersionComponents) setVersion(s semver.Version) {
	v.Major, v.Minor, v.Patch = s.Major, s.Minor, s.Patch
}

// ApplyOverride raises the version to the override when the override is
// strictly greater. Flag and distance are kept.
func ApplyOverride(v VersionComponents, override *CustomOverride) VersionComponents {
	if override == nil {
		return v
	}
	if override.Semver().GT(v.Semver()) {
		v.setVersion(override.Semver())
	}
	return v
}
