package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oconnor663/founder/internal/config"
	"github.com/oconnor663/founder/internal/history"
	"github.com/oconnor663/founder/internal/lister"
	"github.com/oconnor663/founder/internal/matcher"
	"github.com/oconnor663/founder/internal/mode"
	"github.com/oconnor663/founder/internal/pathutil"
	"github.com/oconnor663/founder/internal/recorder"
	"github.com/oconnor663/founder/internal/session"
)

// runFind is the default action: one interactive find session.
func runFind(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store := loadStore(cfg)

	lst, err := lister.Detect(cfg.Lister.Command, cfg.Lister.HiddenFlag)
	if err != nil {
		return err
	}
	m, err := matcher.Detect(cfg.Matcher.ToggleKey, cfg.Matcher.Command, cfg.Matcher.Fallback)
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine working directory: %w", err)
	}

	s := &session.Session{
		Store:      store,
		Lister:     lst,
		Matcher:    m,
		Recorder:   recorder.New(store, log),
		Modes:      mode.NewController(),
		Order:      history.Order(cfg.History.Order),
		MaxHistory: cfg.History.MaxLines,
		Root:       cwd,
		Home:       pathutil.HomeDir(),
		Log:        log,
	}

	outcome, err := s.Run(cmd.Context())
	if err != nil {
		return err
	}
	if outcome.Aborted {
		// Nothing chosen. Exit with the matcher's own status so shell
		// bindings can tell "no match" from ctrl-c, but print nothing.
		exitCode = outcome.ExitCode
		if exitCode == 0 {
			exitCode = 1
		}
		return nil
	}
	fmt.Fprintln(os.Stdout, outcome.Path)
	return nil
}
