package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <host:port>",
	Short: "Print the remote share's file listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Close()

		cl, store := newClient(cfg, log)
		defer cl.Close()
		if store != nil {
			defer store.Close()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		entries, err := cl.List(ctx, args[0])
		if err != nil {
			return err
		}

		for _, e := range entries {
			if e.IsFile() {
				fmt.Printf("%-6s %12d  %s\n", e.Type, e.Size, e.Path)
			} else {
				fmt.Printf("%-6s %12s  %s\n", e.Type, "-", e.Path)
			}
		}
		fmt.Printf("\n%d entries\n", len(entries))
		return nil
	},
}
