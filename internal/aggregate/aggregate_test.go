package aggregate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oconnor663/founder/internal/history"
	"github.com/oconnor663/founder/internal/mode"
	"github.com/oconnor663/founder/internal/pathutil"
)

func entry(path string, count int, when time.Time) history.Entry {
	return history.Entry{Path: path, Count: count, LastSelected: when}
}

func paths(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Path
	}
	return out
}

func TestMerge_HistoryWinsOverListing(t *testing.T) {
	// History: foo.txt (recent, count 3) and bar.txt (older, count 1).
	// Listing under /a: foo.txt and baz.txt.
	now := time.Now()
	entries := []history.Entry{
		entry("/a/foo.txt", 3, now),
		entry("/b/bar.txt", 1, now.Add(-time.Hour)),
	}
	got := Merge(mode.Combined, entries, []string{"foo.txt", "baz.txt"}, "/a", "")

	require.Len(t, got, 3)
	assert.Equal(t, []string{"/a/foo.txt", "/b/bar.txt", "/a/baz.txt"}, paths(got))

	// foo.txt surfaced once, tagged as a history hit.
	assert.Equal(t, SourceHistory, got[0].Source)
	assert.Equal(t, SourceHistory, got[1].Source)
	assert.Equal(t, SourceListing, got[2].Source)
}

func TestMerge_NoDuplicates(t *testing.T) {
	now := time.Now()
	entries := []history.Entry{
		entry("/a/one.txt", 1, now),
		entry("/a/two.txt", 1, now.Add(-time.Minute)),
	}
	listing := []string{"one.txt", "two.txt", "three.txt", "one.txt"}

	got := Merge(mode.Combined, entries, listing, "/a", "")

	seen := make(map[string]int)
	for _, c := range got {
		seen[c.Path]++
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, "path %s appeared %d times", p, n)
	}
	// Every path from history ∪ listing appears exactly once.
	assert.Len(t, seen, 3)
}

func TestMerge_EmptyHistory(t *testing.T) {
	got := Merge(mode.Combined, nil, []string{"x", "y"}, "/a", "")
	require.Len(t, got, 2)
	assert.Equal(t, "x", got[0].Display)
	assert.Equal(t, "y", got[1].Display)
	assert.Equal(t, SourceListing, got[0].Source)
}

func TestMerge_LocalIgnoresHistory(t *testing.T) {
	now := time.Now()
	entries := []history.Entry{
		entry("/a/remembered.txt", 9, now),
	}
	listing := []string{".hidden", "visible.txt"}

	got := Merge(mode.Local, entries, listing, "/a", "")

	require.Len(t, got, 2)
	assert.Equal(t, []string{"/a/.hidden", "/a/visible.txt"}, paths(got))
	for _, c := range got {
		assert.Equal(t, SourceListing, c.Source)
	}
}

func TestMerge_LocalListingPassesThrough(t *testing.T) {
	// No dedup in Local mode: the matcher sees exactly what the lister
	// produced, repeats and all.
	listing := []string{"a.txt", "b.txt", "a.txt"}

	got := Merge(mode.Local, nil, listing, "/a", "")

	require.Len(t, got, 3)
	assert.Equal(t, []string{"/a/a.txt", "/a/b.txt", "/a/a.txt"}, paths(got))
}

func TestMerge_SymlinkedDuplicate(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	canonical, err := pathutil.Canonicalize(target)
	require.NoError(t, err)

	entries := []history.Entry{entry(canonical, 1, time.Now())}
	got := Merge(mode.Combined, entries, []string{"link.txt"}, dir, "")

	// The symlink resolves to the remembered file: one candidate,
	// history provenance.
	require.Len(t, got, 1)
	assert.Equal(t, SourceHistory, got[0].Source)
}

func TestMerge_DisplayMapping(t *testing.T) {
	home := "/home/dev"
	now := time.Now()
	entries := []history.Entry{
		entry("/home/dev/docs/plan.md", 1, now),
		entry("/work/proj/main.go", 1, now.Add(-time.Minute)),
	}
	got := Merge(mode.Combined, entries, []string{"lib/util.go"}, "/work/proj", home)

	require.Len(t, got, 3)
	assert.Equal(t, "~/docs/plan.md", got[0].Display)
	assert.Equal(t, "main.go", got[1].Display, "history under the root displays relative")
	assert.Equal(t, "lib/util.go", got[2].Display)
}

func TestAggregator_SkipsEmptyLines(t *testing.T) {
	a := New(mode.Combined, "/a", "")
	_, ok := a.FromListing("")
	assert.False(t, ok)
}

func TestMerge_StaleHistoryStillListed(t *testing.T) {
	// A remembered path that no longer exists on disk remains a
	// candidate; the user may be working from a different root.
	gone := filepath.Join(t.TempDir(), "deleted.txt")
	entries := []history.Entry{entry(gone, 1, time.Now())}

	got := Merge(mode.Combined, entries, nil, "/a", "")
	require.Len(t, got, 1)
	assert.Equal(t, gone, got[0].Path)
}
