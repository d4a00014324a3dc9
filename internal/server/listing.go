package server

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v5"
)

// compressMin is the smallest body worth gzipping.
const compressMin = 1024

// HandleListing returns the recursive listing of the shared root as compact
// JSON. The body is gzipped when that saves at least 10%, and an ETag over
// the uncompressed JSON lets clients revalidate with If-None-Match.
func (ctrl *ShareController) HandleListing(c *echo.Context) error {
	entries, etag, err := ctrl.App.Index.Get(ctrl.App.ShareDir)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list shared directory")
	}

	header := c.Response().Header()
	header.Set("ETag", etag)
	header.Set("Cache-Control", "max-age=60")

	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}

	body, err := json.Marshal(entries)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to encode listing")
	}

	header.Set("Access-Control-Allow-Origin", "*")

	if ctrl.App.Config.Share.Compression && len(body) > compressMin {
		if compressed, ok := gzipBody(body); ok {
			header.Set("Content-Encoding", "gzip")
			return c.Blob(http.StatusOK, "application/json", compressed)
		}
	}

	return c.Blob(http.StatusOK, "application/json", body)
}

// gzipBody compresses body at a moderate level and reports whether the
// result is worth sending (at least 10% smaller). Compression trouble is
// never fatal; the caller just sends the plain bytes.
func gzipBody(body []byte) ([]byte, bool) {
	var buf bytes.Buffer

	zw, err := gzip.NewWriterLevel(&buf, 6)
	if err != nil {
		return nil, false
	}
	if _, err := zw.Write(body); err != nil {
		return nil, false
	}
	if err := zw.Close(); err != nil {
		return nil, false
	}

	if buf.Len() >= len(body)*9/10 {
		return nil, false
	}
	return buf.Bytes(), true
}
