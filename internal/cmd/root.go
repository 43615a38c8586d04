// Package cmd implements the founder command-line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oconnor663/founder/internal/config"
	"github.com/oconnor663/founder/internal/history"
	"github.com/oconnor663/founder/internal/logging"
)

var (
	debugFlag bool
	log       *zap.Logger

	// exitCode carries a non-default code (aborted selection) out of
	// RunE, which can only return errors.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "founder",
	Short: "a fuzzy file finder that remembers your selections",
	Long: `founder wraps an external fuzzy matcher (fzf) and file lister (fd)
with a persistent selection history, so the files you actually use stay
one keystroke away no matter what directory you are in.

Run without arguments to start a find session. The chosen path is
printed to stdout; bind it in your shell or editor, e.g.:

  vim "$(founder)"

Inside a session, ctrl-t toggles between combined mode (history plus
non-hidden local files) and local mode (everything here, hidden files
included, history ignored).`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logging.New(debugFlag)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: runFind,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "founder: %v\n", err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	return exitCode
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging (also FOUNDER_DEBUG=1)")
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadStore opens the history store with the degrade-don't-die policy:
// corrupt or unreadable history is logged and replaced with an empty
// in-memory store, because a broken history file must never block a
// search.
func loadStore(cfg *config.Config) *history.Store {
	store, err := history.Load(cfg.HistoryFile())
	switch {
	case err == nil:
	case errors.Is(err, history.ErrCorrupt):
		log.Warn("history file is corrupt, starting with empty history",
			zap.String("file", cfg.HistoryFile()), zap.Error(err))
	case errors.Is(err, history.ErrUnavailable):
		log.Warn("history file is unreadable, starting with empty history",
			zap.String("file", cfg.HistoryFile()), zap.Error(err))
	default:
		log.Warn("failed to load history", zap.Error(err))
	}
	return store
}
