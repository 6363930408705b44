package flowvers

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
}

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate(t testing.TB) *git.Repository {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	return repo
}

// testRepoFSCreate creates a new filesystem-based git repository for testing
func testRepoFSCreate(t testing.TB, path string) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(path, false)
	require.NoError(t, err)
	return repo
}

// testCommit writes a file named after msg and commits it
func testCommit(t testing.TB, repo *git.Repository, msg string) plumbing.Hash {
	t.Helper()
	workTree, err := repo.Worktree()
	require.NoError(t, err)

	filename := "file_" + msg + ".txt"
	require.NoError(t, writeFile(workTree.Filesystem, filename, "Content for "+msg))
	_, err = workTree.Add(filename)
	require.NoError(t, err)

	hash, err := workTree.Commit("Commit "+msg, &git.CommitOptions{Author: testSignature})
	require.NoError(t, err)
	return hash
}

// testCommits adds n commits and returns the last hash
func testCommits(t testing.TB, repo *git.Repository, prefix string, n int) plumbing.Hash {
	t.Helper()
	var hash plumbing.Hash
	for i := 0; i < n; i++ {
		hash = testCommit(t, repo, prefix+"-"+string(rune('a'+i)))
	}
	return hash
}

// testTag creates a lightweight tag at hash
func testTag(t testing.TB, repo *git.Repository, name string, hash plumbing.Hash) {
	t.Helper()
	_, err := repo.CreateTag(name, hash, nil)
	require.NoError(t, err)
}

// testAnnotatedTag creates an annotated tag at hash
func testAnnotatedTag(t testing.TB, repo *git.Repository, name string, hash plumbing.Hash) {
	t.Helper()
	_, err := repo.CreateTag(name, hash, &git.CreateTagOptions{
		Tagger:  testSignature,
		Message: "Release " + name,
	})
	require.NoError(t, err)
}

// testCheckoutBranch creates and checks out a branch at HEAD
func testCheckoutBranch(t testing.TB, repo *git.Repository, branch string) {
	t.Helper()
	workTree, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, workTree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: true,
	}))
}

// testDetach checks out hash with a detached HEAD
func testDetach(t testing.TB, repo *git.Repository, hash plumbing.Hash) {
	t.Helper()
	workTree, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, workTree.Checkout(&git.CheckoutOptions{Hash: hash}))
}
