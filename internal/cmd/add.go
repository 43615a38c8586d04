package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oconnor663/founder/internal/config"
	"github.com/oconnor663/founder/internal/recorder"
)

var addCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Remember a file without running a search",
	Long: `Add a path to the selection history directly.

Useful from editor hooks: have your editor run "founder add <file>" on
every file it opens, and those files rank in future searches exactly as
if they had been picked interactively.

Example autocmd for vim:

  autocmd BufReadPost * silent! call system('founder add ' . shellescape(expand('%:p')))`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store := loadStore(cfg)
	return recorder.New(store, log).OnExplicitAdd(args[0])
}
