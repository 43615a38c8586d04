// Package lister produces the live file listing for a session.
//
// The listing is delegated to an external tool (fd by default), spawned
// per aggregation pass and streamed line by line. When the configured
// tool is not installed, a built-in fastwalk-based walker takes over,
// same shape, fewer features (no ignore-file handling).
package lister

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charlievieth/fastwalk"
	"github.com/google/shlex"

	"github.com/oconnor663/founder/internal/pathutil"
)

// ErrUnavailable means the live listing could not be produced at all.
// The aggregator degrades to history-only candidates in that case.
var ErrUnavailable = errors.New("file listing unavailable")

// Stream is a lazy, finite sequence of listed paths, one per Scan,
// relative to the listing root. Err reports any mid-stream failure
// after Scan returns false. Close releases the producer and may kill
// a still-running external process.
type Stream interface {
	Scan() bool
	Text() string
	Err() error
	Close() error
}

// Lister starts a listing rooted at root. hidden asks for hidden files
// to be included (Local mode).
type Lister interface {
	List(ctx context.Context, root string, hidden bool) (Stream, error)
}

// Command runs an external listing tool.
type Command struct {
	argv       []string
	hiddenFlag string
}

// NewCommand parses a configured command string ("fd --type=f") into a
// Command. hiddenFlag is appended when hidden files are requested.
func NewCommand(command, hiddenFlag string) (*Command, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse lister command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty lister command")
	}
	return &Command{argv: argv, hiddenFlag: hiddenFlag}, nil
}

// List spawns the tool in root and streams its stdout. A spawn failure
// is ErrUnavailable; a failure mid-stream shows up on Stream.Err.
func (c *Command) List(ctx context.Context, root string, hidden bool) (Stream, error) {
	args := append([]string(nil), c.argv[1:]...)
	if hidden && c.hiddenFlag != "" {
		args = append(args, c.hiddenFlag)
	}
	cmd := exec.CommandContext(ctx, c.argv[0], args...)
	cmd.Dir = root
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v (is it installed?)", ErrUnavailable, c.argv[0], err)
	}
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &procStream{sc: sc, pipe: stdout, cmd: cmd}, nil
}

type procStream struct {
	sc     *bufio.Scanner
	pipe   io.ReadCloser
	cmd    *exec.Cmd
	closed bool
}

func (s *procStream) Scan() bool { return s.sc.Scan() }

func (s *procStream) Text() string { return s.sc.Text() }

func (s *procStream) Err() error {
	if err := s.sc.Err(); err != nil && !s.closed {
		return err
	}
	return nil
}

// Close kills the lister if it is still running (the user may have
// made a selection long before the listing finished) and reaps it.
// The process getting killed is not an error.
func (s *procStream) Close() error {
	s.closed = true
	s.pipe.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	return nil
}

// Walk is the built-in fallback lister. It emits regular files under
// root, skipping dot-files and dot-directories unless hidden is set,
// in traversal order.
type Walk struct{}

// List starts a concurrent walk of root.
func (Walk) List(ctx context.Context, root string, hidden bool) (Stream, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &walkStream{
		ch:     make(chan string, 256),
		cancel: cancel,
	}
	conf := &fastwalk.Config{Follow: false}
	go func() {
		defer close(s.ch)
		err := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entries are skipped, like fd
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !hidden && path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			select {
			case s.ch <- pathutil.MakeRelative(path, root):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.err = err
		}
	}()
	return s, nil
}

type walkStream struct {
	ch     chan string
	cur    string
	err    error
	cancel context.CancelFunc
}

func (s *walkStream) Scan() bool {
	line, ok := <-s.ch
	s.cur = line
	return ok
}

func (s *walkStream) Text() string { return s.cur }

func (s *walkStream) Err() error { return s.err }

func (s *walkStream) Close() error {
	s.cancel()
	for range s.ch {
		// drain so the walker can finish
	}
	return nil
}

// Detect returns a Command for the configured tool when it is on PATH,
// and the built-in Walk otherwise. Mirrors the matcher-side backend
// fallback: a missing tool degrades, it does not fail the session.
func Detect(command, hiddenFlag string) (Lister, error) {
	c, err := NewCommand(command, hiddenFlag)
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(c.argv[0]); err != nil {
		return Walk{}, nil
	}
	return c, nil
}
