// Package recorder routes chosen paths into the history store.
//
// Selections are flushed durably right away rather than at process
// exit: losing a just-made selection would defeat the tool's purpose,
// and the extra write is one small file. Storage failures are logged
// and swallowed; finding files must keep working without history.
package recorder

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/oconnor663/founder/internal/history"
)

// Recorder updates and persists the history store.
type Recorder struct {
	store *history.Store
	log   *zap.Logger
}

// New returns a recorder over store.
func New(store *history.Store, log *zap.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// OnSelected records a path chosen through the matcher. Never fails;
// an aborted search must not reach here at all.
func (r *Recorder) OnSelected(path string) {
	r.remember(path)
}

// OnExplicitAdd records an out-of-band "remember this file" request,
// e.g. from an editor hook on file open. The path must exist; typos
// from scripts should not pollute the history.
func (r *Recorder) OnExplicitAdd(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot add to history: %w", err)
	}
	r.remember(path)
	return nil
}

func (r *Recorder) remember(path string) {
	if err := r.store.Record(path); err != nil {
		r.log.Warn("failed to record selection", zap.String("path", path), zap.Error(err))
		return
	}
	if err := r.store.Flush(); err != nil {
		// Drop the delta; the next successful run re-derives it.
		r.log.Warn("history not persisted", zap.Error(err))
	}
}
