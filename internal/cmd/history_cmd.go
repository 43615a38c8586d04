package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/oconnor663/founder/internal/config"
	"github.com/oconnor663/founder/internal/history"
)

var (
	historyOrder string
	historyLimit int
	historyLong  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and maintain the selection history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print remembered paths, best match first",
	Long: `Print the selection history in ranked order.

The default order is most recent first; --order frequent ranks by
selection count instead. With --long each line shows the count and the
last-selected time as well.`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrite the history file, keeping the most recent half",
	Long: `Force a compaction now.

Compaction normally happens in the background once the history reaches
its configured max_lines; this runs the same pruning on demand.`,
	Args: cobra.NoArgs,
	RunE: runHistoryCompact,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all remembered paths",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyListCmd.Flags().StringVar(&historyOrder, "order", "", "ranking order: recent or frequent (default from config)")
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "maximum number of entries to print (0 = all)")
	historyListCmd.Flags().BoolVarP(&historyLong, "long", "l", false, "show selection counts and timestamps")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyCompactCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	order := cfg.History.Order
	if historyOrder != "" {
		order = historyOrder
	}
	if order != string(history.OrderRecent) && order != string(history.OrderFrequent) {
		return fmt.Errorf("--order must be \"recent\" or \"frequent\" (got %q)", order)
	}

	store := loadStore(cfg)
	entries := store.Entries(history.Order(order))
	if historyLimit > 0 && len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}

	if !historyLong {
		for _, e := range entries {
			fmt.Fprintln(os.Stdout, e.Path)
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		when := "-"
		if !e.LastSelected.IsZero() {
			when = e.LastSelected.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", e.Count, when, e.Path)
	}
	return w.Flush()
}

func runHistoryCompact(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store := loadStore(cfg)
	before := store.Len()
	if err := store.Compact(cfg.History.MaxLines / 2); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "compacted: %d -> %d entries\n", before, store.Len())
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store := loadStore(cfg)
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "history cleared")
	return nil
}
