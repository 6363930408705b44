package flowvers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blang/semver"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

var branchVersionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// Classify returns the git-flow category of a branch name. An empty name is
// CategoryUnknown.
func Classify(branch, releasePrefix, hotfixPrefix string) BranchCategory {
	switch {
	case branch == "":
		return CategoryUnknown
	case branch == "master":
		return CategoryMaster
	case releasePrefix != "" && strings.HasPrefix(branch, releasePrefix):
		return CategoryRelease
	case hotfixPrefix != "" && strings.HasPrefix(branch, hotfixPrefix):
		return CategoryHotfix
	default:
		return CategoryOther
	}
}

// ExtractBranchVersion returns the "X.Y[.Z]" embedded in a release or hotfix
// branch name after its prefix. It returns ErrMalformedBranchVersion when the
// name carries no usable version.
func ExtractBranchVersion(branch, prefix string) (*semver.Version, error) {
	rest := strings.TrimPrefix(branch, prefix)
	m := branchVersionRe.FindStringSubmatch(rest)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedBranchVersion, branch)
	}

	var nums [3]uint64
	for i, s := range m[1:] {
		if s == "" {
			continue
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedBranchVersion, branch, err)
		}
		nums[i] = n
	}

	return &semver.Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// headState is what the live repository says about HEAD.
type headState struct {
	Hash   plumbing.Hash
	Branch string
}

// currentHead resolves HEAD. A detached HEAD yields an empty branch name.
func currentHead(repo *git.Repository) (*headState, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	state := &headState{Hash: head.Hash()}
	if head.Name().IsBranch() {
		state.Branch = head.Name().Short()
	}

	return state, nil
}
