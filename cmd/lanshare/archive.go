package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var archiveOutput string

var archiveCmd = &cobra.Command{
	Use:   "archive <host:port>",
	Short: "Download the whole remote share as one zip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Close()

		endpoint := args[0]

		savePath := archiveOutput
		if savePath == "" {
			name := strings.ReplaceAll(endpoint, ":", "_") + ".zip"
			savePath = filepath.Join(cfg.Transfer.OutDir, name)
		}

		cl, store := newClient(cfg, log)
		defer cl.Close()
		if store != nil {
			defer store.Close()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := cl.DownloadArchive(ctx, endpoint, savePath, printByteProgress); err != nil {
			fmt.Println()
			return err
		}
		fmt.Println()

		fmt.Printf("Saved %s\n", savePath)
		return nil
	},
}

func init() {
	archiveCmd.Flags().StringVarP(&archiveOutput, "output", "o", "", "local destination path")
}
