// Package aggregate merges history entries with a live directory
// listing into one deduplicated, ordered candidate sequence.
//
// History candidates come first, ranked by the configured order, then
// live-listing candidates in whatever order the lister produced them.
// When a path shows up in both sources it is surfaced once, as a
// history hit: the aggregator iterates history first and the seen-set
// suppresses the listing duplicate, so the history provenance and
// ranking survive. Deduplication is by canonical path (absolute,
// symlinks resolved, case-sensitive), so a symlinked duplicate is not
// double-counted.
package aggregate

import (
	"path/filepath"

	"github.com/oconnor663/founder/internal/history"
	"github.com/oconnor663/founder/internal/mode"
	"github.com/oconnor663/founder/internal/pathutil"
)

// Source tags a candidate's provenance.
type Source int

const (
	// SourceHistory marks a candidate sourced from the history store.
	SourceHistory Source = iota

	// SourceListing marks a candidate sourced from the live listing.
	SourceListing
)

// Candidate is one entry in the merged sequence.
type Candidate struct {
	// Path is the canonical path, the dedup key.
	Path string

	// Display is what the matcher shows: cwd-relative where possible,
	// ~-contracted under the home directory.
	Display string

	// Source records where the candidate came from.
	Source Source
}

// Aggregator builds the candidate sequence incrementally, so the live
// listing can be streamed to the matcher as the external lister emits
// it. Call FromHistory once, then FromListing per listing line. Not
// safe for concurrent use; each aggregation pass gets a fresh one.
type Aggregator struct {
	mode mode.Mode
	root string
	home string
	seen map[string]struct{}
}

// New returns an aggregator for one pass. root is the directory the
// live listing is relative to (the session's working directory); home
// is used for ~-contraction of display paths and may be empty.
func New(m mode.Mode, root, home string) *Aggregator {
	return &Aggregator{
		mode: m,
		root: root,
		home: home,
		seen: make(map[string]struct{}),
	}
}

// FromHistory converts ranked history entries into candidates. In
// Local mode history is not a candidate source and the result is
// empty. Entries must arrive best-first; their order is preserved.
func (a *Aggregator) FromHistory(entries []history.Entry) []Candidate {
	if a.mode == mode.Local {
		return nil
	}
	out := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		if _, dup := a.seen[e.Path]; dup {
			continue
		}
		a.seen[e.Path] = struct{}{}
		display := pathutil.Contract(pathutil.MakeRelative(e.Path, a.root), a.home)
		out = append(out, Candidate{Path: e.Path, Display: display, Source: SourceHistory})
	}
	return out
}

// FromListing filters one live-listing line. It reports false when the
// path was already surfaced (normally as a history hit) and must be
// suppressed. In Local mode the listing is the whole candidate set and
// its lines pass through as-is.
func (a *Aggregator) FromListing(line string) (Candidate, bool) {
	if line == "" {
		return Candidate{}, false
	}
	canonical := a.key(line)
	if a.mode != mode.Local {
		if _, dup := a.seen[canonical]; dup {
			return Candidate{}, false
		}
		a.seen[canonical] = struct{}{}
	}
	return Candidate{
		Path:    canonical,
		Display: pathutil.Contract(line, a.home),
		Source:  SourceListing,
	}, true
}

func (a *Aggregator) key(line string) string {
	p := line
	if !filepath.IsAbs(p) {
		p = filepath.Join(a.root, p)
	}
	canonical, err := pathutil.Canonicalize(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return canonical
}

// Merge runs a whole aggregation pass over in-memory inputs. The
// streaming session uses the incremental methods instead; this is the
// one-shot form for non-streaming callers.
func Merge(m mode.Mode, entries []history.Entry, listing []string, root, home string) []Candidate {
	a := New(m, root, home)
	out := a.FromHistory(entries)
	for _, line := range listing {
		if c, ok := a.FromListing(line); ok {
			out = append(out, c)
		}
	}
	return out
}
