package main

import (
	"fmt"

	"github.com/lanshare/lanshare/internal/history"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently used servers and their reliability",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Close()

		store, err := history.Open(cfg.History.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Recent(historyLimit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No connection history yet.")
			return nil
		}

		for _, e := range entries {
			label := e.Endpoint
			if e.Name != "" {
				label = fmt.Sprintf("%s (%s)", e.Name, e.Endpoint)
			}
			fmt.Printf("%-30s %5.1f%% success (%d/%d)  last used %s\n",
				label, e.SuccessRate(), e.SuccessCount, e.TotalAttempts,
				e.LastUsed.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "how many entries to show")
}
