// Package session orchestrates one interactive find.
//
// A session is a loop: aggregate candidates for the current mode, hand
// them to the external matcher, and either record the selection, give
// up (user aborted), or toggle the mode and go around again with a
// fresh candidate set. The loop shape is what makes live mode
// switching work without any shared mutable state mid-match.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/oconnor663/founder/internal/aggregate"
	"github.com/oconnor663/founder/internal/history"
	"github.com/oconnor663/founder/internal/lister"
	"github.com/oconnor663/founder/internal/matcher"
	"github.com/oconnor663/founder/internal/mode"
	"github.com/oconnor663/founder/internal/pathutil"
	"github.com/oconnor663/founder/internal/recorder"
)

// Outcome is what a finished session reports back to the CLI.
type Outcome struct {
	// Path is the chosen path, ~-expanded, ready to print. Empty when
	// Aborted.
	Path string

	// Aborted means the user left without choosing. Not an error;
	// callers skip post-processing and exit non-zero.
	Aborted bool

	// ExitCode is the matcher's exit status when Aborted.
	ExitCode int
}

// Session wires the collaborators for one invocation.
type Session struct {
	Store      *history.Store
	Lister     lister.Lister
	Matcher    *matcher.Matcher
	Recorder   *recorder.Recorder
	Modes      *mode.Controller
	Order      history.Order
	MaxHistory int
	Root       string // working directory the listing is rooted at
	Home       string // for ~ display mapping, may be empty
	Log        *zap.Logger

	compacting sync.WaitGroup
	compacted  bool
}

// Run drives the session until a selection, an abort, or a failure.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	for {
		res, err := s.runOnce(ctx, s.Modes.Current())
		if err != nil {
			s.compacting.Wait()
			return Outcome{}, err
		}
		if res.Toggled {
			s.Modes.Toggle()
			continue
		}

		// Settle any background compaction before touching the store
		// again, so the recorded selection wins the replace race.
		s.compacting.Wait()

		if res.Aborted {
			return Outcome{Aborted: true, ExitCode: res.ExitCode}, nil
		}
		chosen := pathutil.Expand(res.Selection, s.Home)
		recordPath := chosen
		if !filepath.IsAbs(recordPath) {
			recordPath = filepath.Join(s.Root, recordPath)
		}
		s.Recorder.OnSelected(recordPath)
		return Outcome{Path: chosen}, nil
	}
}

// runOnce performs one aggregate-and-match pass in the given mode.
func (s *Session) runOnce(ctx context.Context, m mode.Mode) (matcher.Result, error) {
	agg := aggregate.New(m, s.Root, s.Home)
	fromHistory := agg.FromHistory(s.Store.Entries(s.Order))

	// The history snapshot above is done with the file, so a rewrite
	// cannot disturb this pass. Compact in the background while the
	// user is busy picking.
	if !s.compacted && s.MaxHistory > 0 && s.Store.Len() >= s.MaxHistory {
		s.compacted = true
		s.compacting.Add(1)
		go func() {
			defer s.compacting.Done()
			if err := s.Store.Compact(s.MaxHistory / 2); err != nil {
				s.Log.Warn("history compaction failed", zap.Error(err))
			}
		}()
	}

	return s.Matcher.Run(ctx, m.String(), func(ctx context.Context, w io.Writer) error {
		bw := bufio.NewWriter(w)
		for _, c := range fromHistory {
			if _, err := fmt.Fprintln(bw, c.Display); err != nil {
				return err
			}
		}
		// Put history on screen before the listing starts trickling in.
		if err := bw.Flush(); err != nil {
			return err
		}
		// The listing runs under the feed context: when the matcher
		// exits early the lister gets killed rather than run to
		// completion against a closed pipe.
		stream, err := s.Lister.List(ctx, s.Root, m.Hidden())
		if err != nil {
			// Stale history beats no results.
			s.Log.Warn("live listing unavailable, degrading to history only", zap.Error(err))
			return nil
		}
		defer stream.Close()
		for stream.Scan() {
			if c, ok := agg.FromListing(stream.Text()); ok {
				if _, err := fmt.Fprintln(bw, c.Display); err != nil {
					return err
				}
			}
		}
		if err := stream.Err(); err != nil {
			s.Log.Warn("file listing interrupted", zap.Error(err))
		}
		return bw.Flush()
	})
}
