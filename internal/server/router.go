// Package server exposes a shared directory tree over HTTP: a JSON listing,
// range-capable single-file downloads, and a whole-tree zip stream.
package server

import (
	"github.com/lanshare/lanshare/internal/app"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

func RegisterRoutes(e *echo.Echo, app *app.Context) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	// Middleware: bounded request pool so one slow client cannot starve others
	e.Use(NewLimiter(0, 0).Middleware)

	ctrl := &ShareController{App: app}

	e.GET("/api/files", ctrl.HandleListing)
	e.GET("/download", ctrl.HandleDownload)
	e.GET("/download_all", ctrl.HandleArchive)

	// Everything else falls back to plain static serving of the shared root
	e.Static("/", app.ShareDir)
}

// ShareController serves the shared directory.
type ShareController struct {
	App *app.Context
}
