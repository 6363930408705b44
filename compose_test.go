package flowvers

import (
	"testing"

	"github.com/blang/semver"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name     string
		input    ComposeInput
		expected string
		flag     string
	}{
		{
			name:     "Master on tag",
			input:    ComposeInput{Category: CategoryMaster, Tag: RawTagMatch{Major: 1, Minor: 4}},
			expected: "1.4",
		},
		{
			name:     "Master after tag",
			input:    ComposeInput{Category: CategoryMaster, Tag: RawTagMatch{Major: 1, Minor: 4, Patch: 2, Distance: 3}},
			expected: "1.4.2-3",
		},
		{
			name:     "Develop",
			input:    ComposeInput{Category: CategoryOther, Tag: RawTagMatch{Major: 1, Minor: 4, Distance: 7}},
			expected: "1.5-alpha.7",
			flag:     FlagAlpha,
		},
		{
			name:     "Feature branch on tag keeps distance",
			input:    ComposeInput{Category: CategoryOther, Tag: RawTagMatch{Major: 1, Minor: 4, Patch: 3}},
			expected: "1.5-alpha.0",
			flag:     FlagAlpha,
		},
		{
			name: "Release with branch version and rc tag",
			input: ComposeInput{
				Category:      CategoryRelease,
				Tag:           RawTagMatch{Major: 1, Minor: 9, Patch: 4, Distance: 30},
				BranchVersion: &semver.Version{Major: 2},
				RCTag:         &RawTagMatch{Distance: 12},
			},
			expected: "2.0-rc.12",
			flag:     FlagRC,
		},
		{
			name: "Release without rc tag uses tag distance",
			input: ComposeInput{
				Category:      CategoryRelease,
				Tag:           RawTagMatch{Major: 1, Minor: 9, Distance: 30},
				BranchVersion: &semver.Version{Major: 2},
			},
			expected: "2.0-rc.30",
			flag:     FlagRC,
		},
		{
			name: "Release without branch version bumps minor",
			input: ComposeInput{
				Category: CategoryRelease,
				Tag:      RawTagMatch{Major: 1, Minor: 9, Patch: 2, Distance: 5},
			},
			expected: "1.10-rc.5",
			flag:     FlagRC,
		},
		{
			name: "Release with stale branch version bumps minor",
			input: ComposeInput{
				Category:      CategoryRelease,
				Tag:           RawTagMatch{Major: 2, Minor: 0, Patch: 1, Distance: 2},
				BranchVersion: &semver.Version{Major: 2},
			},
			expected: "2.1-rc.2",
			flag:     FlagRC,
		},
		{
			name: "Hotfix with branch version",
			input: ComposeInput{
				Category:      CategoryHotfix,
				Tag:           RawTagMatch{Major: 1, Minor: 4, Patch: 2, Distance: 1},
				BranchVersion: &semver.Version{Major: 1, Minor: 4, Patch: 3},
			},
			expected: "1.4.3-rc.1",
			flag:     FlagRC,
		},
		{
			name: "Hotfix with stale branch version bumps patch",
			input: ComposeInput{
				Category:      CategoryHotfix,
				Tag:           RawTagMatch{Major: 1, Minor: 4, Patch: 2, Distance: 1},
				BranchVersion: &semver.Version{Major: 1, Minor: 4},
			},
			expected: "1.4.3-rc.1",
			flag:     FlagRC,
		},
		{
			name: "Hotfix without branch version",
			input: ComposeInput{
				Category: CategoryHotfix,
				Tag:      RawTagMatch{Major: 1, Minor: 4, Patch: 2, Distance: 1},
				RCTag:    &RawTagMatch{Distance: 0},
			},
			expected: "1.5-rc.0",
			flag:     FlagRC,
		},
		{
			name:     "Unknown without hint",
			input:    ComposeInput{Category: CategoryUnknown, Tag: RawTagMatch{Major: 3, Minor: 1, Distance: 9}},
			expected: "0.0-unknown.0",
			flag:     FlagUnknown,
		},
		{
			name: "Unknown with release type hint uses master rules",
			input: ComposeInput{
				Category:        CategoryUnknown,
				Tag:             RawTagMatch{Major: 3, Minor: 1, Distance: 9},
				ReleaseTypeHint: "master",
			},
			expected: "3.1-9",
		},
		{
			name:     "No tag on develop",
			input:    ComposeInput{Category: CategoryOther, Tag: RawTagMatch{Distance: 42}},
			expected: "0.1-alpha.42",
			flag:     FlagAlpha,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v := Compose(test.input)
			require.Equal(t, test.expected, Render(v))
			require.Equal(t, test.flag, v.Flag)
		})
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	in := ComposeInput{
		Category:      CategoryRelease,
		Tag:           RawTagMatch{Major: 1, Minor: 9, Distance: 30},
		BranchVersion: &semver.Version{Major: 2},
		RCTag:         &RawTagMatch{Distance: 12},
	}
	require.Equal(t, Compose(in), Compose(in))
}

func TestApplyOverride(t *testing.T) {
	computed := Compose(ComposeInput{Category: CategoryOther, Tag: RawTagMatch{Distance: 5}})
	require.Equal(t, "0.1-alpha.5", Render(computed))

	t.Run("Greater override replaces the triple", func(t *testing.T) {
		v := ApplyOverride(computed, &CustomOverride{Major: 80, Minor: 11, Patch: 4})
		require.Equal(t, "80.11.4-alpha.5", Render(v))
		require.Equal(t, FlagAlpha, v.Flag)
		require.Equal(t, uint64(5), v.Distance)
	})

	t.Run("Smaller override is ignored", func(t *testing.T) {
		v := ApplyOverride(computed, &CustomOverride{Minor: 0, Patch: 9})
		require.Equal(t, computed, v)
	})

	t.Run("Equal override is ignored", func(t *testing.T) {
		v := ApplyOverride(computed, &CustomOverride{Minor: 1})
		require.Equal(t, computed, v)
	})

	t.Run("Lexicographic comparison", func(t *testing.T) {
		base := VersionComponents{Major: 1, Minor: 9, Patch: 9, Category: CategoryMaster}
		v := ApplyOverride(base, &CustomOverride{Major: 1, Minor: 10})
		require.Equal(t, "1.10", Render(v))
	})

	t.Run("No override", func(t *testing.T) {
		require.Equal(t, computed, ApplyOverride(computed, nil))
	})
}

func TestParseOverride(t *testing.T) {
	o, err := ParseOverride("80.11.4")
	require.NoError(t, err)
	require.Equal(t, CustomOverride{Major: 80, Minor: 11, Patch: 4}, *o)

	o, err = ParseOverride("v2.1")
	require.NoError(t, err)
	require.Equal(t, CustomOverride{Major: 2, Minor: 1}, *o)

	_, err = ParseOverride("not-a-version")
	require.Error(t, err)
}
