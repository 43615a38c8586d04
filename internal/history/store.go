// Package history persists the set of previously selected file paths.
//
// The store is a line-delimited file, one selection per line, oldest to
// newest: "<unix-ms>\t<count>\t<path>". A line that is a bare path (the
// pre-1.0 format) is accepted as count=1 with its recency taken from
// file order. All writes go through an atomic write-temp-then-rename, so
// concurrent founder processes never observe a torn file; the race
// between two writers is last-writer-wins, which is acceptable for
// advisory ranking data.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oconnor663/founder/internal/pathutil"
)

// Sentinel errors for the storage layer. Callers recover from all of
// them by degrading to an empty or stale in-memory store; history
// failure must never take down a search.
var (
	// ErrCorrupt means the persisted data was unparseable.
	ErrCorrupt = errors.New("history store corrupt")

	// ErrUnavailable means the backing file could not be accessed.
	ErrUnavailable = errors.New("history store unavailable")

	// ErrPersist means a flush could not replace the persisted state.
	ErrPersist = errors.New("history store persist failed")
)

// Order selects how Entries ranks history.
type Order string

const (
	// OrderRecent ranks by last-selected time, newest first.
	OrderRecent Order = "recent"

	// OrderFrequent ranks by selection count, then recency.
	OrderFrequent Order = "frequent"
)

// Entry is one remembered selection.
type Entry struct {
	// Path is the canonical (absolute, symlink-resolved) file path.
	Path string

	// LastSelected is the time of the most recent selection. Zero for
	// entries imported from the bare-path legacy format.
	LastSelected time.Time

	// Count is the total number of times the path was selected.
	Count int

	// seq preserves file order, breaking ties between equal timestamps.
	seq int
}

// Store is the in-memory history, loaded once per process and flushed
// back with atomic replace. Safe for concurrent use; a background
// compaction may run while the session records a selection.
type Store struct {
	mu      sync.Mutex
	path    string
	entries map[string]*Entry
	nextSeq int
	dirty   bool
	now     func() time.Time
}

// Load reads the persisted history at path. A missing file is an empty
// store. On ErrUnavailable or ErrCorrupt the returned store is empty
// but usable; the caller logs the condition and continues.
func Load(path string) (*Store, error) {
	s := &Store{
		path:    path,
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := s.parse(data); err != nil {
		s.entries = make(map[string]*Entry)
		s.nextSeq = 0
		return s, err
	}
	return s, nil
}

func (s *Store) parse(data []byte) error {
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		if line == "" {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrCorrupt, lineno, err)
		}
		s.insert(e)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// parseLine accepts the tab-separated current format and the bare-path
// legacy format.
func parseLine(line string) (Entry, error) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 3 {
		// Legacy format: the whole line is a path.
		return Entry{Path: line, Count: 1}, nil
	}
	ms, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("bad timestamp %q", parts[0])
	}
	count, err := strconv.Atoi(parts[1])
	if err != nil || count < 1 {
		return Entry{}, fmt.Errorf("bad count %q", parts[1])
	}
	if parts[2] == "" {
		return Entry{}, errors.New("empty path")
	}
	e := Entry{Path: parts[2], Count: count}
	if ms != 0 {
		e.LastSelected = time.UnixMilli(ms)
	}
	return e, nil
}

// insert merges an entry during load. Duplicate paths in the file fold
// into one entry, keeping the later line's recency and summing counts.
func (s *Store) insert(e Entry) {
	if prev, ok := s.entries[e.Path]; ok {
		prev.Count += e.Count
		prev.LastSelected = e.LastSelected
		prev.seq = s.nextSeq
	} else {
		e.seq = s.nextSeq
		s.entries[e.Path] = &e
	}
	s.nextSeq++
}

// Record notes a selection of path. The path is canonicalized first; a
// re-selection bumps the existing entry's count and timestamp instead
// of duplicating it. The store is marked dirty until the next Flush.
func (s *Store) Record(path string) error {
	canonical, err := pathutil.Canonicalize(path)
	if err != nil {
		return fmt.Errorf("canonicalize %q: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Stamp at the persisted format's millisecond grain, so a flushed
	// and reloaded store compares equal to this one.
	stamp := s.now().Truncate(time.Millisecond)
	if e, ok := s.entries[canonical]; ok {
		e.Count++
		e.LastSelected = stamp
		e.seq = s.nextSeq
	} else {
		s.entries[canonical] = &Entry{
			Path:         canonical,
			LastSelected: stamp,
			Count:        1,
			seq:          s.nextSeq,
		}
	}
	s.nextSeq++
	s.dirty = true
	return nil
}

// Entries returns a ranked snapshot of the store, best candidate first.
func (s *Store) Entries(order Order) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if order == OrderFrequent && out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if !out[i].LastSelected.Equal(out[j].LastSelected) {
			return out[i].LastSelected.After(out[j].LastSelected)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

// Len reports the number of unique paths in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Compact drops all but the keep most recent entries and flushes. It
// runs when the store reaches capacity, and keeps well under the cap
// so that compactions stay rare instead of firing on every selection
// once the file fills up.
func (s *Store) Compact(keep int) error {
	s.mu.Lock()
	if keep < 0 {
		keep = 0
	}
	if len(s.entries) > keep {
		ranked := make([]*Entry, 0, len(s.entries))
		for _, e := range s.entries {
			ranked = append(ranked, e)
		}
		sort.Slice(ranked, func(i, j int) bool {
			if !ranked[i].LastSelected.Equal(ranked[j].LastSelected) {
				return ranked[i].LastSelected.After(ranked[j].LastSelected)
			}
			return ranked[i].seq > ranked[j].seq
		})
		for _, e := range ranked[keep:] {
			delete(s.entries, e.Path)
		}
		s.dirty = true
	}
	s.mu.Unlock()
	return s.Flush()
}

// Clear empties the store and flushes.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.entries = make(map[string]*Entry)
	s.dirty = true
	s.mu.Unlock()
	return s.Flush()
}

// Flush persists dirty state with write-temp-then-rename. The temp
// file lives next to the real one (rename does not cross filesystems)
// and carries a unique suffix so concurrent flushers cannot collide
// before the rename. A clean store is a no-op. After ErrPersist the
// in-memory delta is simply dropped; a later run re-derives it from
// future selections.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	// Clean from here on, success or not: a failed flush drops the
	// delta instead of queueing a retry.
	s.dirty = false
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	// Oldest first, so file order doubles as a recency tiebreak.
	ordered := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].LastSelected.Equal(ordered[j].LastSelected) {
			return ordered[i].LastSelected.Before(ordered[j].LastSelected)
		}
		return ordered[i].seq < ordered[j].seq
	})

	tmp := s.path + "." + uuid.NewString() + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	w := bufio.NewWriter(f)
	for _, e := range ordered {
		var ms int64
		if !e.LastSelected.IsZero() {
			ms = e.LastSelected.UnixMilli()
		}
		fmt.Fprintf(w, "%d\t%d\t%s\n", ms, e.Count, e.Path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}
