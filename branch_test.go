package flowvers

import (
	"testing"

	"github.com/blang/semver"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		branch   string
		expected BranchCategory
	}{
		{"master", CategoryMaster},
		{"release/2.0", CategoryRelease},
		{"release/next", CategoryRelease},
		{"hotfix/1.4.3", CategoryHotfix},
		{"develop", CategoryOther},
		{"feature/login", CategoryOther},
		{"main", CategoryOther},
		{"masterpiece", CategoryOther},
		{"", CategoryUnknown},
	}

	for _, test := range tests {
		t.Run(test.branch, func(t *testing.T) {
			require.Equal(t, test.expected, Classify(test.branch, "release/", "hotfix/"))
		})
	}

	t.Run("Custom prefixes", func(t *testing.T) {
		require.Equal(t, CategoryRelease, Classify("rel-3.1", "rel-", "fix-"))
		require.Equal(t, CategoryHotfix, Classify("fix-3.1.1", "rel-", "fix-"))
		require.Equal(t, CategoryOther, Classify("release/3.1", "rel-", "fix-"))
	})
}

func TestBranchCategoryString(t *testing.T) {
	require.Equal(t, "master", CategoryMaster.String())
	require.Equal(t, "release", CategoryRelease.String())
	require.Equal(t, "hotfix", CategoryHotfix.String())
	require.Equal(t, "other", CategoryOther.String())
	require.Equal(t, "unknown", CategoryUnknown.String())
}

func TestExtractBranchVersion(t *testing.T) {
	t.Run("Release with major and minor", func(t *testing.T) {
		v, err := ExtractBranchVersion("release/2.0", "release/")
		require.NoError(t, err)
		require.Equal(t, semver.Version{Major: 2}, *v)
	})

	t.Run("Hotfix with patch", func(t *testing.T) {
		v, err := ExtractBranchVersion("hotfix/1.4.3", "hotfix/")
		require.NoError(t, err)
		require.Equal(t, semver.Version{Major: 1, Minor: 4, Patch: 3}, *v)
	})

	t.Run("Version with a v prefix", func(t *testing.T) {
		v, err := ExtractBranchVersion("release/v3.2", "release/")
		require.NoError(t, err)
		require.Equal(t, semver.Version{Major: 3, Minor: 2}, *v)
	})

	t.Run("No version", func(t *testing.T) {
		_, err := ExtractBranchVersion("release/next", "release/")
		require.ErrorIs(t, err, ErrMalformedBranchVersion)
	})

	t.Run("Incomplete version", func(t *testing.T) {
		_, err := ExtractBranchVersion("hotfix/2", "hotfix/")
		require.ErrorIs(t, err, ErrMalformedBranchVersion)
	})
}

func TestCurrentHead(t *testing.T) {
	repo := testRepoCreate(t)
	first := testCommit(t, repo, "one")

	state, err := currentHead(repo)
	require.NoError(t, err)
	require.Equal(t, first, state.Hash)
	require.Equal(t, "master", state.Branch)

	testCheckoutBranch(t, repo, "release/2.0")
	state, err = currentHead(repo)
	require.NoError(t, err)
	require.Equal(t, "release/2.0", state.Branch)

	testDetach(t, repo, first)
	state, err = currentHead(repo)
	require.NoError(t, err)
	require.Equal(t, first, state.Hash)
	require.Empty(t, state.Branch)

	t.Run("Empty repository", func(t *testing.T) {
		_, err := currentHead(testRepoCreate(t))
		require.Error(t, err)
	})
}
