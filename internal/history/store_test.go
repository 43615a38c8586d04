package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock returns a time source that ticks one second per call.
func fakeClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Load(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)
	s.now = fakeClock(time.UnixMilli(1700000000000))
	return s
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestRecord_SamePathTwice(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Record("/remote/foo.txt"))
	require.NoError(t, s.Record("/remote/foo.txt"))

	entries := s.Entries(OrderRecent)
	require.Len(t, entries, 1, "re-selection must not duplicate the entry")
	assert.Equal(t, "/remote/foo.txt", entries[0].Path)
	assert.Equal(t, 2, entries[0].Count)
	// The timestamp reflects the second selection, one tick later.
	assert.Equal(t, time.UnixMilli(1700000000000).Add(2*time.Second), entries[0].LastSelected)
}

func TestRecord_CanonicalizesSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	s := newTestStore(t)
	require.NoError(t, s.Record(target))
	require.NoError(t, s.Record(link))

	entries := s.Entries(OrderRecent)
	require.Len(t, entries, 1, "a symlinked duplicate must fold into one entry")
	assert.Equal(t, 2, entries[0].Count)
}

func TestFlushLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	// A clock with sub-millisecond fractions: the stamps still have to
	// survive persistence exactly.
	s.now = fakeClock(time.Unix(1700000000, 123456789))
	require.NoError(t, s.Record("/remote/a.txt"))
	require.NoError(t, s.Record("/remote/b.txt"))
	require.NoError(t, s.Record("/remote/a.txt"))
	require.NoError(t, s.Flush())

	loaded, err := Load(s.Path())
	require.NoError(t, err)

	want := s.Entries(OrderRecent)
	got := loaded.Entries(OrderRecent)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Path, got[i].Path)
		assert.Equal(t, want[i].Count, got[i].Count)
		assert.True(t, want[i].LastSelected.Equal(got[i].LastSelected),
			"timestamp mismatch for %s: %v vs %v", want[i].Path, want[i].LastSelected, got[i].LastSelected)
	}
}

func TestFlush_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Record("/remote/a.txt"))
	require.NoError(t, s.Flush())

	first, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	// No new selection in between: the second flush must not change
	// the persisted state.
	require.NoError(t, s.Flush())
	second, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFlush_PersistFailureDropsDelta(t *testing.T) {
	// Point the store's file at a directory so the rename fails.
	s, err := Load(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)
	s.now = fakeClock(time.UnixMilli(1700000000000))
	require.NoError(t, os.Mkdir(s.Path(), 0o755))

	require.NoError(t, s.Record("/remote/a.txt"))
	require.ErrorIs(t, s.Flush(), ErrPersist)

	// The delta is dropped, not retried: with the obstruction gone a
	// second Flush has nothing left to write.
	require.NoError(t, os.Remove(s.Path()))
	require.NoError(t, s.Flush())
	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestFlush_LeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Record("/remote/a.txt"))
	require.NoError(t, s.Flush())

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	require.NoError(t, os.WriteFile(path, []byte("not-a-timestamp\t5\t/x\n"), 0o644))

	s, err := Load(path)
	require.ErrorIs(t, err, ErrCorrupt)

	// The store is empty but fully usable.
	assert.Equal(t, 0, s.Len())
	require.NoError(t, s.Record("/remote/a.txt"))
	require.NoError(t, s.Flush())
}

func TestLoad_Unavailable(t *testing.T) {
	// A directory where the file should be: readable as a path, not as
	// a store.
	dir := t.TempDir()
	s, err := Load(dir)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 0, s.Len())
}

func TestLoad_LegacyBarePaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	content := "/old/one.txt\n/old/two.txt\n/old/one.txt\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	entries := s.Entries(OrderRecent)
	require.Len(t, entries, 2)
	// File order is recency for legacy entries: the re-appended
	// one.txt is most recent and its lines folded into one count.
	assert.Equal(t, "/old/one.txt", entries[0].Path)
	assert.Equal(t, 2, entries[0].Count)
	assert.Equal(t, "/old/two.txt", entries[1].Path)
}

func TestEntries_OrderFrequent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Record("/remote/rare.txt"))
	require.NoError(t, s.Record("/remote/common.txt"))
	require.NoError(t, s.Record("/remote/common.txt"))
	require.NoError(t, s.Record("/remote/common.txt"))

	byRecent := s.Entries(OrderRecent)
	require.Len(t, byRecent, 2)
	assert.Equal(t, "/remote/common.txt", byRecent[0].Path)

	byFrequent := s.Entries(OrderFrequent)
	assert.Equal(t, "/remote/common.txt", byFrequent[0].Path)
	assert.Equal(t, 3, byFrequent[0].Count)
	assert.Equal(t, "/remote/rare.txt", byFrequent[1].Path)
}

func TestCompact(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Record(fmt.Sprintf("/remote/%d.txt", i)))
	}
	require.NoError(t, s.Compact(4))

	entries := s.Entries(OrderRecent)
	require.Len(t, entries, 4)
	// The most recent selections survive.
	assert.Equal(t, "/remote/9.txt", entries[0].Path)
	assert.Equal(t, "/remote/6.txt", entries[3].Path)

	// Compaction persisted.
	loaded, err := Load(s.Path())
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Len())
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Record("/remote/a.txt"))
	require.NoError(t, s.Flush())
	require.NoError(t, s.Clear())

	assert.Equal(t, 0, s.Len())
	loaded, err := Load(s.Path())
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}
