package storage

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitwalk/internal/graph"
	"gitwalk/internal/walker"
)

func openRepo(t *testing.T, opts InitOptions) *Store {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, InitRepo(dir, opts))
	s, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInitRepo(t *testing.T) {
	for _, bare := range []bool{false, true} {
		dir := t.TempDir()
		opts := InitOptions{Bare: bare}
		require.NoError(t, InitRepo(dir, opts))
		assert.True(t, InRepo(dir, opts))
		assert.Error(t, InitRepo(dir, opts), "second init must fail")

		detected, err := DetectOptions(dir)
		require.NoError(t, err)
		assert.Equal(t, opts, detected)

		s, err := Open(dir)
		require.NoError(t, err)
		branch, err := s.ReadHEADBranch()
		require.NoError(t, err)
		assert.Equal(t, "master", branch)
		tip, err := s.ReadBranch("master")
		require.NoError(t, err)
		assert.Empty(t, tip)
		require.NoError(t, s.Close())
	}
}

func TestOpenNotARepo(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}

func TestWriteReadCommit(t *testing.T) {
	s := openRepo(t, InitOptions{})

	root, err := s.WriteCommit("initial", "master", 1)
	require.NoError(t, err)
	child, err := s.WriteCommit("second", "master", 2, root.ID)
	require.NoError(t, err)
	assert.Len(t, child.ID, 40)
	assert.NotEqual(t, root.ID, child.ID)

	got, err := s.ReadCommit(child.ID)
	require.NoError(t, err)
	assert.Equal(t, child, got)

	node, err := s.Lookup(context.Background(), child.ID)
	require.NoError(t, err)
	assert.Equal(t, &graph.Commit{ID: child.ID, Parents: []string{root.ID}}, node)

	_, err = s.WriteCommit("orphan", "master", 3, "deadbeef")
	assert.True(t, errors.Is(err, graph.ErrNotFound))

	_, err = s.Lookup(context.Background(), "deadbeef")
	assert.True(t, errors.Is(err, graph.ErrNotFound))
}

func TestBranchesAndRevisions(t *testing.T) {
	s := openRepo(t, InitOptions{Bare: true})

	_, err := s.ResolveRevision("HEAD")
	assert.Error(t, err, "empty master has no commits")

	c, err := s.WriteCommit("initial", "master", 1)
	require.NoError(t, err)
	require.NoError(t, s.WriteBranch("master", c.ID))
	require.NoError(t, s.EnsureBranch("feature"))
	require.NoError(t, s.WriteHEADBranch("feature"))
	assert.Error(t, s.EnsureBranch("bad name"))
	assert.Error(t, s.WriteHEADBranch("a..b"))

	branches, err := s.ListBranches()
	require.NoError(t, err)
	assert.Equal(t, []string{"master", "feature"}, branches)

	for _, rev := range []string{"master", c.ID} {
		id, err := s.ResolveRevision(rev)
		require.NoError(t, err)
		assert.Equal(t, c.ID, id)
	}
	_, err = s.ResolveRevision("")
	assert.Error(t, err, "HEAD points at empty feature branch")
	_, err = s.ResolveRevision("nope")
	assert.Error(t, err)
}

func TestSeedIsWalkable(t *testing.T) {
	s := openRepo(t, InitOptions{})

	tip, err := s.Seed("master", graph.Synthesize(12, 3))
	require.NoError(t, err)
	head, err := s.ResolveRevision("HEAD")
	require.NoError(t, err)
	assert.Equal(t, tip, head)

	start, err := s.Lookup(context.Background(), tip)
	require.NoError(t, err)
	resolver, err := graph.NewResolver(s)
	require.NoError(t, err)

	res := walker.New(resolver, walker.Options{SkipVisited: true}).Walk(context.Background(), walker.Task{Worker: 1, Root: start})
	require.NoError(t, res.Err)
	root, err := s.ReadCommit(res.Root.ID)
	require.NoError(t, err)
	assert.Equal(t, "synthetic c0", root.Message)
}
