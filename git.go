// Package flowvers derives git-flow style version descriptors for Git repositories.
//
// This file contains code adapted from pulumictl (https://github.com/pulumi/pulumictl)
// which is licensed under the Apache License 2.0. See NOTICE file for full attribution.
package flowvers

import (
	"errors"
	"fmt"
	"os/exec"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// The version starts at the first digit; anything after it must be part of
// the version.
var tagVersionRe = regexp.MustCompile(`^\D*(\d+)\.(\d+)(?:\.(\d+))?(?:-(\d+))?$`)

// OpenRepository opens a Git repository at the specified path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// ParseTagName parses "major.minor[.patch][-distance]" from a tag or describe
// string such as "v1.4", "sdk/v1.4.2" or "v1.4.2-3". Patch and distance
// default to zero.
func ParseTagName(name string) (RawTagMatch, bool) {
	m := tagVersionRe.FindStringSubmatch(stripModuleTagPrefixes(name))
	if m == nil {
		return RawTagMatch{}, false
	}

	var nums [4]uint64
	for i, s := range m[1:] {
		if s == "" {
			continue
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return RawTagMatch{}, false
		}
		nums[i] = n
	}

	return RawTagMatch{
		Tag:      name,
		Major:    nums[0],
		Minor:    nums[1],
		Patch:    nums[2],
		Distance: nums[3],
	}, true
}

func stripModuleTagPrefixes(tag string) string {
	_, versionComponent := path.Split(tag)
	return strings.TrimPrefix(versionComponent, "v")
}

// FindLatestTag locates the nearest ancestor of head (head included) tagged
// with a version tag matching pattern. The returned Distance is the number of
// commits reachable from head but not from the tag.
func FindLatestTag(repo *git.Repository, head plumbing.Hash, pattern *regexp.Regexp) (*RawTagMatch, error) {
	name, target, err := nearestTag(repo, head, func(tag string) bool {
		if !pattern.MatchString(tag) {
			return false
		}
		_, ok := ParseTagName(tag)
		return ok
	})
	if err != nil {
		return nil, err
	}

	match, _ := ParseTagName(name)
	distance, err := CountCommits(repo, head, target)
	if err != nil {
		return nil, fmt.Errorf("counting commits since %s: %w", name, err)
	}
	match.Distance = distance

	return &match, nil
}

// FindLatestRCTag is FindLatestTag for release-candidate start tags. The tag
// name does not need to carry a parseable version; only the distance is
// guaranteed to be meaningful.
func FindLatestRCTag(repo *git.Repository, head plumbing.Hash, pattern *regexp.Regexp) (*RawTagMatch, error) {
	name, target, err := nearestTag(repo, head, pattern.MatchString)
	if err != nil {
		return nil, err
	}

	match, _ := ParseTagName(name)
	match.Tag = name
	distance, err := CountCommits(repo, head, target)
	if err != nil {
		return nil, fmt.Errorf("counting commits since %s: %w", name, err)
	}
	match.Distance = distance

	return &match, nil
}

// CountCommits returns the number of commits reachable from head that are not
// reachable from exclude. A zero exclude counts the whole history.
func CountCommits(repo *git.Repository, head, exclude plumbing.Hash) (uint64, error) {
	seen := map[plumbing.Hash]bool{}
	if !exclude.IsZero() {
		base, err := repo.CommitObject(exclude)
		if err != nil {
			return 0, fmt.Errorf("getting commit object: %w", err)
		}
		err = ignoreMissing(object.NewCommitPreorderIter(base, nil, nil).ForEach(func(c *object.Commit) error {
			seen[c.Hash] = true
			return nil
		}))
		if err != nil {
			return 0, err
		}
	}

	commit, err := repo.CommitObject(head)
	if err != nil {
		return 0, fmt.Errorf("getting commit object: %w", err)
	}

	var count uint64
	err = ignoreMissing(object.NewCommitPreorderIter(commit, seen, nil).ForEach(func(*object.Commit) error {
		count++
		return nil
	}))

	return count, err
}

// taggedCommits maps commit hashes to the names of the tags pointing at them.
func taggedCommits(repo *git.Repository, accept func(string) bool) (map[plumbing.Hash][]string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	tagged := map[plumbing.Hash][]string{}
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		name := ref.Name().Short()
		if !accept(name) {
			return nil
		}

		obj, err := repo.TagObject(ref.Hash())
		switch err {
		case nil:
			// Annotated tag
			tagged[obj.Target] = append(tagged[obj.Target], name)
		case plumbing.ErrObjectNotFound:
			// Lightweight tag
			tagged[ref.Hash()] = append(tagged[ref.Hash()], name)
		default:
			return err
		}

		return nil
	})

	return tagged, err
}

// nearestTag walks the history of head breadth first and returns the first
// accepted tag it meets. Several tags on the same commit resolve to the
// highest version, then the greatest name.
func nearestTag(repo *git.Repository, head plumbing.Hash, accept func(string) bool) (string, plumbing.Hash, error) {
	tagged, err := taggedCommits(repo, accept)
	if err != nil {
		return "", plumbing.ZeroHash, err
	}
	if len(tagged) == 0 {
		return "", plumbing.ZeroHash, ErrNoMatchingTag
	}

	commit, err := repo.CommitObject(head)
	if err != nil {
		return "", plumbing.ZeroHash, fmt.Errorf("getting commit object: %w", err)
	}

	seen := map[plumbing.Hash]bool{commit.Hash: true}
	queue := []*object.Commit{commit}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if names, ok := tagged[current.Hash]; ok {
			return preferredTag(names), current.Hash, nil
		}

		err := current.Parents().ForEach(func(parent *object.Commit) error {
			if !seen[parent.Hash] {
				seen[parent.Hash] = true
				queue = append(queue, parent)
			}
			return nil
		})
		if err := ignoreMissing(err); err != nil {
			return "", plumbing.ZeroHash, err
		}
	}

	return "", plumbing.ZeroHash, ErrNoMatchingTag
}

func preferredTag(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Slice(sorted, func(i, j int) bool {
		a, aok := ParseTagName(sorted[i])
		b, bok := ParseTagName(sorted[j])
		if aok && bok {
			if c := a.Semver().Compare(b.Semver()); c != 0 {
				return c > 0
			}
		}
		return sorted[i] > sorted[j]
	})
	return sorted[0]
}

// ignoreMissing treats the end of a shallow history as the end of the walk.
func ignoreMissing(err error) error {
	if err == nil || errors.Is(err, plumbing.ErrObjectNotFound) || errors.Is(err, storer.ErrStop) {
		return nil
	}
	return err
}

func workTreeIsDirty(repo *git.Repository) (bool, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return false, nil
		}
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	// Fast path for filesystem storage when the git binary is available
	if _, ok := repo.Storer.(*filesystem.Storage); ok && gitAvailable() {
		return checkDirtyWithGitCommand(workTree.Filesystem.Root())
	}

	// Fallback to go-git status check
	status, err := workTree.Status()
	if err != nil {
		return false, fmt.Errorf("getting git status: %w", err)
	}

	return !status.IsClean(), nil
}

func gitAvailable() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func checkDirtyWithGitCommand(repoPath string) (bool, error) {
	// Refresh index first
	cmd := exec.Command("git", "update-index", "-q", "--refresh")
	cmd.Dir = repoPath
	if err := cmd.Run(); err != nil {
		// If update-index fails, assume dirty
		return true, nil
	}

	// Check for changes
	cmd = exec.Command("git", "diff-files", "--name-status", "--ignore-space-at-eol")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return true, nil
		}
		return false, err
	}

	return len(output) > 0, nil
}
