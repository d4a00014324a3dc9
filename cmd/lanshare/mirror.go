package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var mirrorOutput string

var mirrorCmd = &cobra.Command{
	Use:   "mirror <host:port>",
	Short: "Download every file in the remote share",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Close()

		endpoint := args[0]

		baseDir := mirrorOutput
		if baseDir == "" {
			baseDir = cfg.Transfer.OutDir
		}

		cl, store := newClient(cfg, log)
		defer cl.Close()
		if store != nil {
			defer store.Close()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		entries, err := cl.List(ctx, endpoint)
		if err != nil {
			return err
		}

		result := cl.DownloadBatch(ctx, endpoint, entries, baseDir, func(done, total int, current string) {
			fmt.Printf("\r%d/%d files  %-50.50s", done, total, current)
		})
		fmt.Println()

		for path, ferr := range result.Failures {
			fmt.Printf("  failed: %s (%v)\n", path, ferr)
		}
		fmt.Println(result.Summary())

		if !result.OK() {
			return fmt.Errorf("no files downloaded")
		}
		return nil
	},
}

func init() {
	mirrorCmd.Flags().StringVarP(&mirrorOutput, "output", "o", "", "local destination directory")
}
