package server

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v5"
)

// archiveChunk is the fixed chunk size for streaming the finished zip.
const archiveChunk = 2 << 20

// HandleArchive serves the whole shared tree as one zip. The archive is
// built into a temp file first so memory stays bounded and Content-Length is
// known before streaming. The temp file is removed on every exit path.
func (ctrl *ShareController) HandleArchive(c *echo.Context) error {
	root := ctrl.App.ShareDir
	rootName := filepath.Base(filepath.Clean(root))

	tmp, err := os.CreateTemp("", "lanshare-*.zip")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create archive")
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := writeArchive(tmp, root, rootName); err != nil {
		ctrl.App.Logger.Error("archive build failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build archive")
	}

	size, err := tmp.Seek(0, io.SeekEnd)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build archive")
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build archive")
	}

	header := c.Response().Header()
	header.Set("Content-Type", "application/zip")
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rootName+".zip"))
	header.Set("Content-Length", strconv.FormatInt(size, 10))

	c.Response().WriteHeader(http.StatusOK)

	buf := make([]byte, archiveChunk)
	_, err = io.CopyBuffer(c.Response(), tmp, buf)
	return err
}

// writeArchive zips the tree under root into w. Files unreadable mid-walk
// are skipped; empty directories become zero-length entries so they survive
// the round trip.
func writeArchive(w io.Writer, root, rootName string) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, 6)
	})

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		arcname := path.Join(rootName, filepath.ToSlash(rel))

		if d.IsDir() {
			children, err := os.ReadDir(p)
			if err == nil && len(children) == 0 {
				_, err = zw.Create(arcname + "/")
				return err
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return nil
		}
		defer f.Close()

		hdr := &zip.FileHeader{
			Name:     arcname,
			Method:   zip.Deflate,
			Modified: info.ModTime(),
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		_, err = io.Copy(fw, f)
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}

	return zw.Close()
}
