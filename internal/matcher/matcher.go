// Package matcher drives the external fuzzy matcher (fzf or fzf-tmux).
//
// The matcher is spawned per aggregation pass with --print-query and
// --expect=<toggle-key>, candidates are streamed to its stdin while its
// stdout is collected, and the three-line result (query, key pressed,
// selection) is parsed back. The matcher owns the terminal; this
// process only ever touches stdin/stdout pipes.
package matcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/google/shlex"
)

// Result is the outcome of one matcher run.
type Result struct {
	// Selection is the chosen line, exactly as it was displayed.
	// Empty when Aborted or Toggled.
	Selection string

	// Query is the filter text the user had typed.
	Query string

	// Toggled means the user hit the mode-toggle key instead of
	// selecting. Checked before the exit status: toggling with a
	// query that matches nothing still toggles.
	Toggled bool

	// Aborted means the user left without choosing (esc, ctrl-c, or a
	// query that matched nothing). Not an error.
	Aborted bool

	// ExitCode is the matcher's own exit status, propagated to the
	// shell when Aborted.
	ExitCode int
}

// Matcher wraps one configured matcher command.
type Matcher struct {
	argv      []string
	toggleKey string
}

// New parses a configured command string into a Matcher. toggleKey is
// the fzf key name (e.g. "ctrl-t") that requests a mode switch.
func New(command, toggleKey string) (*Matcher, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse matcher command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, errors.New("empty matcher command")
	}
	return &Matcher{argv: argv, toggleKey: toggleKey}, nil
}

// Detect returns a Matcher for the first command whose binary is on
// PATH, falling back to the last one regardless so that the spawn
// error names the tool the user most likely wants installed.
func Detect(toggleKey string, commands ...string) (*Matcher, error) {
	var last *Matcher
	for _, command := range commands {
		m, err := New(command, toggleKey)
		if err != nil {
			return nil, err
		}
		if _, err := exec.LookPath(m.argv[0]); err == nil {
			return m, nil
		}
		last = m
	}
	if last == nil {
		return nil, errors.New("no matcher command configured")
	}
	return last, nil
}

// Run starts the matcher and streams candidates to it via feed. feed
// runs on its own goroutine so slow listings keep flowing while the
// user is already typing; its context is canceled as soon as the
// matcher exits, which is how a still-running candidate source gets
// shut down after an early selection. The matcher closing its end
// early is normal and not an error.
func (m *Matcher) Run(ctx context.Context, prompt string, feed func(ctx context.Context, w io.Writer) error) (Result, error) {
	args := append([]string(nil), m.argv[1:]...)
	args = append(args,
		"--prompt="+prompt+"> ",
		"--print-query",
		"--expect="+m.toggleKey,
	)
	cmd := exec.CommandContext(ctx, m.argv[0], args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{}, fmt.Errorf("matcher stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("failed to start %s (is it installed?): %w", m.argv[0], err)
	}

	feedCtx, cancelFeed := context.WithCancel(ctx)
	defer cancelFeed()
	feedErr := make(chan error, 1)
	go func() {
		err := feed(feedCtx, stdin)
		stdin.Close()
		feedErr <- suppressBrokenPipe(err)
	}()

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("matcher: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	// The matcher is done; stop whatever is still producing candidates.
	cancelFeed()
	if err := <-feedErr; err != nil {
		return Result{}, fmt.Errorf("feeding matcher: %w", err)
	}

	return m.parse(out.String(), exitCode)
}

// parse splits the --print-query output: line one is the query, line
// two the key from --expect (empty for plain enter), line three the
// selection.
func (m *Matcher) parse(output string, exitCode int) (Result, error) {
	lines := strings.Split(output, "\n")
	res := Result{ExitCode: exitCode}
	if len(lines) > 0 {
		res.Query = lines[0]
	}
	if len(lines) > 1 && lines[1] == m.toggleKey {
		res.Toggled = true
		return res, nil
	}
	if exitCode != 0 {
		res.Aborted = true
		return res, nil
	}
	if len(lines) > 2 && lines[2] != "" {
		res.Selection = lines[2]
		return res, nil
	}
	res.Aborted = true
	return res, nil
}

// suppressBrokenPipe drops the errors a candidate feed hits when the
// matcher exits first.
func suppressBrokenPipe(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}
