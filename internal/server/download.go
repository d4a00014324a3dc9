package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"
	"golang.org/x/exp/mmap"
)

// mmapThreshold is the file size above which we read through a memory map
// instead of buffered reads, to keep the working set bounded.
const mmapThreshold = 50 * 1024 * 1024

var rangeRe = regexp.MustCompile(`^bytes=(\d+)-(\d*)$`)

// HandleDownload streams one file from the shared root. It honors Range
// requests for resume, exposes a size+mtime ETag and answers 304 when the
// client already has the current bytes.
func (ctrl *ShareController) HandleDownload(c *echo.Context) error {
	relPath := c.QueryParam("file")

	fullPath, err := resolveShared(ctrl.App.ShareDir, relPath)
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	}

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}

	fileSize := info.Size()
	etag := fmt.Sprintf(`"%d-%d"`, fileSize, info.ModTime().Unix())

	header := c.Response().Header()
	header.Set("ETag", etag)
	header.Set("Cache-Control", "max-age=3600")

	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}

	start, end := int64(0), fileSize-1
	status := http.StatusOK

	if m := rangeRe.FindStringSubmatch(c.Request().Header.Get("Range")); m != nil {
		start, _ = strconv.ParseInt(m[1], 10, 64)
		if m[2] != "" {
			end, _ = strconv.ParseInt(m[2], 10, 64)
		}
		if start > end || start >= fileSize {
			header.Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
			return c.NoContent(http.StatusRequestedRangeNotSatisfiable)
		}
		if end >= fileSize {
			end = fileSize - 1
		}
		status = http.StatusPartialContent
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	}

	length := end - start + 1

	header.Set("Content-Type", "application/octet-stream")
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(fullPath)))
	header.Set("Content-Length", strconv.FormatInt(length, 10))
	header.Set("Accept-Ranges", "bytes")

	reader, err := openRange(fullPath, fileSize, start, length)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open file")
	}
	defer reader.Close()

	c.Response().WriteHeader(status)

	// A mid-stream error aborts the connection: the client sees a short
	// body, never a silently truncated success.
	buf := make([]byte, chunkSizeFor(fileSize))
	_, err = io.CopyBuffer(c.Response(), reader, buf)
	return err
}

// resolveShared joins a client-supplied relative path with the shared root,
// rejecting anything absolute or escaping upward. Hard invariant: the
// returned path is always inside root.
func resolveShared(root, relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("empty path")
	}

	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(cleaned) || cleaned == ".." ||
		strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes shared root", relPath)
	}

	return filepath.Join(root, cleaned), nil
}

// chunkSizeFor picks the streaming chunk by file size: 64KB under 1MB,
// 1MB under 100MB, 4MB beyond.
func chunkSizeFor(fileSize int64) int {
	switch {
	case fileSize < 1<<20:
		return 64 << 10
	case fileSize < 100<<20:
		return 1 << 20
	default:
		return 4 << 20
	}
}

// openRange returns a reader over bytes [start, start+length) of the file.
// Large files go through a memory map; if mapping is unavailable or fails,
// streaming silently falls back to buffered reads.
func openRange(path string, fileSize, start, length int64) (io.ReadCloser, error) {
	if fileSize > mmapThreshold {
		if r, err := mmap.Open(path); err == nil {
			return &mmapRange{
				r:  r,
				sr: io.NewSectionReader(r, start, length),
			}, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}

	return &fileRange{f: f, r: io.LimitReader(f, length)}, nil
}

type mmapRange struct {
	r  *mmap.ReaderAt
	sr *io.SectionReader
}

func (m *mmapRange) Read(p []byte) (int, error) { return m.sr.Read(p) }
func (m *mmapRange) Close() error               { return m.r.Close() }

type fileRange struct {
	f *os.File
	r io.Reader
}

func (f *fileRange) Read(p []byte) (int, error) { return f.r.Read(p) }
func (f *fileRange) Close() error               { return f.f.Close() }
