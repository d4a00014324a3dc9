package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lanshare/lanshare/internal/app"
	"github.com/lanshare/lanshare/internal/netip"
	"github.com/lanshare/lanshare/internal/server"
	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Expose a directory tree to the local network",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Close()

		dir := cfg.Share.Dir
		if len(args) > 0 {
			dir = args[0]
		}
		if dir == "" {
			dir = "."
		}

		shareDir, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		if info, err := os.Stat(shareDir); err != nil || !info.IsDir() {
			return fmt.Errorf("%s is not a readable directory", shareDir)
		}

		port := cfg.Port
		if servePort != 0 {
			port = servePort
		}

		appCtx := app.NewContext(cfg, log, shareDir)

		e := echo.New()
		server.RegisterRoutes(e, appCtx)

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: e,
		}

		// Setup Signal Handling for Graceful Shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		log.Info("Sharing %s at http://%s:%d", shareDir, netip.LocalIP(), port)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		log.Info("Server stopped.")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides config)")
}
