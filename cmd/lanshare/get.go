package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"

	"github.com/lanshare/lanshare/internal/client"
	"github.com/spf13/cobra"
)

var (
	getOutput   string
	getNoResume bool
)

var getCmd = &cobra.Command{
	Use:   "get <host:port> <remote-path>",
	Short: "Download a single file, resuming a previous partial transfer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Close()

		endpoint, remotePath := args[0], args[1]

		savePath := getOutput
		if savePath == "" {
			savePath = filepath.Join(cfg.Transfer.OutDir, path.Base(remotePath))
		}

		cl, store := newClient(cfg, log)
		defer cl.Close()
		if store != nil {
			defer store.Close()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = cl.DownloadFile(ctx, endpoint, remotePath, savePath, client.DownloadOptions{
			Resume:     cfg.Transfer.Resume && !getNoResume,
			MaxRetries: cfg.Transfer.MaxRetries,
			Progress:   printByteProgress,
		})
		fmt.Println()
		if err != nil {
			return err
		}

		fmt.Printf("Saved %s\n", savePath)
		return nil
	},
}

func printByteProgress(done, total int64) {
	if total > 0 {
		fmt.Printf("\r%d/%d bytes (%.1f%%)", done, total, float64(done)/float64(total)*100)
	} else {
		fmt.Printf("\r%d bytes", done)
	}
}

func init() {
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "local destination path")
	getCmd.Flags().BoolVar(&getNoResume, "no-resume", false, "ignore any existing partial file")
}
