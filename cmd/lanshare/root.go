package main

import (
	"github.com/lanshare/lanshare/internal/client"
	"github.com/lanshare/lanshare/internal/config"
	"github.com/lanshare/lanshare/internal/history"
	"github.com/lanshare/lanshare/internal/logger"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "lanshare",
	Short:         "Share and fetch directory trees over the local network",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")
	rootCmd.AddCommand(serveCmd, listCmd, getCmd, mirrorCmd, archiveCmd, historyCmd)
}

func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

// newClient wires the download client with the sqlite history recorder. A
// broken history DB degrades to no recording rather than blocking transfers.
func newClient(cfg *config.Config, log *logger.Logger) (*client.Client, *history.Store) {
	store, err := history.Open(cfg.History.SQLitePath)
	if err != nil {
		log.Warn("connection history disabled: %v", err)
		return client.New(cfg.Transfer, log, nil), nil
	}
	return client.New(cfg.Transfer, log, store), store
}
