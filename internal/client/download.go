package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lanshare/lanshare/internal/domain"
	"github.com/segmentio/ksuid"
)

// rampChunks is how many chunks of the starting size stream before observed
// throughput is allowed to reshape the chunk size.
const rampChunks = 10

// DownloadOptions tunes one file transfer.
type DownloadOptions struct {
	// Resume requests only the remaining byte range when a partial local
	// file exists. A resumed transfer's partial data survives failures.
	Resume bool
	// MaxRetries bounds additional attempts after connection or timeout
	// failures; zero or negative means the configured default.
	MaxRetries int
	Progress   domain.ByteProgress
}

func sidecarPath(savePath string) string { return savePath + ".etag" }

// DownloadFile transfers one remote file to savePath, retrying connection
// failures with capped exponential backoff. Two processes resuming into the
// same savePath are not coordinated; last writer wins.
func (c *Client) DownloadFile(ctx context.Context, endpoint, remotePath, savePath string, opts DownloadOptions) error {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = c.cfg.MaxRetries
	}

	id := ksuid.New().String()
	c.log.Debug("[%s] downloading %s from %s -> %s", id, remotePath, endpoint, savePath)

	var lastErr error
	for attempt := 0; ; attempt++ {
		err := c.downloadOnce(ctx, endpoint, remotePath, savePath, opts)
		if err == nil {
			c.recorder.RecordAttempt(endpoint, true)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err

		if !domain.Retryable(err) {
			c.recorder.RecordAttempt(endpoint, false)
			// A fresh transfer leaves no partial garbage behind. A resumed
			// one keeps its bytes: they are still valid for a later resume.
			if !opts.Resume {
				os.Remove(savePath)
				os.Remove(sidecarPath(savePath))
			}
			return err
		}

		if attempt >= opts.MaxRetries {
			break
		}

		delay := backoff(attempt+1, 10*time.Second)
		c.log.Warn("[%s] attempt %d/%d failed: %v (retrying in %s)",
			id, attempt+1, opts.MaxRetries, err, delay)
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
	}

	c.recorder.RecordAttempt(endpoint, false)
	return fmt.Errorf("download failed after %d retries: %w",
		opts.MaxRetries, errors.Join(domain.ErrRetriesExhausted, lastErr))
}

func (c *Client) downloadOnce(ctx context.Context, endpoint, remotePath, savePath string, opts DownloadOptions) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FileTimeoutDuration())
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return errors.Join(domain.ErrPartialWrite, err)
	}

	var resumePos int64
	if opts.Resume {
		if info, err := os.Stat(savePath); err == nil {
			resumePos = info.Size()
		}
	}

	reqURL := c.urlFor(endpoint, "/download?file="+url.QueryEscape(remotePath))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	if resumePos > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumePos))
	}
	var sentTag string
	if tag, err := os.ReadFile(sidecarPath(savePath)); err == nil {
		sentTag = strings.TrimSpace(string(tag))
		req.Header.Set("If-None-Match", sentTag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.markUnresponsive(endpoint)
		return domain.ClassifyNetErr(err)
	}
	defer resp.Body.Close()

	var flags int
	switch resp.StatusCode {
	case http.StatusNotModified:
		// Remote unchanged since the token was saved. The validator carries
		// the remote size; trust the token only when the local bytes really
		// are the whole file, otherwise the token is stale for this partial.
		if size, ok := etagSize(sentTag); ok && size != resumePos {
			os.Remove(sidecarPath(savePath))
			return c.downloadOnce(ctx, endpoint, remotePath, savePath, opts)
		}
		if opts.Progress != nil {
			opts.Progress(resumePos, resumePos)
		}
		return nil
	case http.StatusRequestedRangeNotSatisfiable:
		// The resume offset is at or past the remote EOF. When the local
		// size matches the remote size the file is simply already complete;
		// anything longer is garbage from a changed remote, so start over.
		if total, ok := contentRangeTotal(resp.Header.Get("Content-Range")); ok && total == resumePos {
			if opts.Progress != nil {
				opts.Progress(total, total)
			}
			os.Remove(sidecarPath(savePath))
			return nil
		}
		os.Remove(savePath)
		os.Remove(sidecarPath(savePath))
		fresh := opts
		fresh.Resume = false
		return c.downloadOnce(ctx, endpoint, remotePath, savePath, fresh)
	case http.StatusPartialContent:
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case http.StatusOK:
		// Server ignored or rejected the range; start over.
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		resumePos = 0
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return fmt.Errorf("%w: status %d", domain.ErrMalformedResponse, resp.StatusCode)
	}

	total := resumePos
	if resp.ContentLength > 0 {
		total += resp.ContentLength
	}

	// The sidecar lets a later resume prove the partial bytes still match
	// the remote file.
	if tag := resp.Header.Get("ETag"); tag != "" {
		_ = os.WriteFile(sidecarPath(savePath), []byte(tag), 0644)
	}

	f, err := os.OpenFile(savePath, flags, 0644)
	if err != nil {
		return errors.Join(domain.ErrPartialWrite, err)
	}

	written, streamErr := streamBody(ctx, f, resp.Body, resumePos, total,
		InitialChunkSize(total), rampChunks, NextChunkSize, opts.Progress)
	closeErr := f.Close()

	if streamErr != nil {
		return streamErr
	}
	if closeErr != nil {
		return errors.Join(domain.ErrPartialWrite, closeErr)
	}
	if total > 0 && written < total {
		return fmt.Errorf("%w: connection closed at byte %d of %d",
			domain.ErrUnreachable, written, total)
	}

	// Complete: the integrity token has served its purpose.
	os.Remove(sidecarPath(savePath))
	return nil
}

// streamBody copies the response body to w in adaptive chunks, in strictly
// increasing offset order. Returns total bytes present locally (start plus
// what was streamed).
func streamBody(ctx context.Context, w io.Writer, r io.Reader, start, total int64,
	chunk, rampCount int, adapt func(int, float64) int, progress domain.ByteProgress) (int64, error) {

	buf := make([]byte, maxChunk)
	ramp := int64(chunk) * int64(rampCount)
	written := start
	started := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := r.Read(buf[:chunk])
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return written, errors.Join(domain.ErrPartialWrite, err)
			}
			written += int64(n)

			if progress != nil {
				progress(written, total)
			}

			if written-start > ramp {
				if elapsed := time.Since(started).Seconds(); elapsed > 0 {
					chunk = adapt(chunk, float64(written-start)/elapsed)
				}
			}
		}

		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, domain.ClassifyNetErr(readErr)
		}
	}
}

// etagSize extracts the size half of a "<size>-<mtime>" validator.
func etagSize(tag string) (int64, bool) {
	tag = strings.Trim(tag, `"`)
	i := strings.IndexByte(tag, '-')
	if i <= 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(tag[:i], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// contentRangeTotal extracts N from "bytes */N" or "bytes a-b/N".
func contentRangeTotal(h string) (int64, bool) {
	i := strings.LastIndexByte(h, '/')
	if i < 0 || i == len(h)-1 {
		return 0, false
	}
	n, err := strconv.ParseInt(h[i+1:], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// backoff returns min(2^attempt seconds, limit).
func backoff(attempt int, limit time.Duration) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt))) * time.Second
	if d > limit {
		return limit
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
