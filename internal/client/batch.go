package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lanshare/lanshare/internal/domain"
	"github.com/segmentio/ksuid"
)

// batchPause is the breather between batches so a burst of small files does
// not hammer the server's accept queue.
const batchPause = 100 * time.Millisecond

// archiveStartChunk is the initial read size for archive streams.
const archiveStartChunk = 4 << 20

// archiveRampChunks mirrors rampChunks for the larger archive chunks.
const archiveRampChunks = 5

// BatchResult tallies one batch run. Per-file failures are reported
// individually; a single bad file never aborts the rest.
type BatchResult struct {
	Succeeded int
	Failed    int
	Failures  map[string]error
}

// OK reports overall success: at least one file made it.
func (r BatchResult) OK() bool { return r.Succeeded > 0 }

func (r BatchResult) Summary() string {
	return fmt.Sprintf("Downloaded %d files, %d failed", r.Succeeded, r.Failed)
}

type fileResult struct {
	path string
	err  error
}

// DownloadBatch transfers every file entry under baseDir, preserving
// relative paths. Files are partitioned into fixed-size batches to bound
// server load; within a batch a bounded worker pool runs the single-file
// engine with resume enabled. Completion order across files is whatever the
// pool yields.
func (c *Client) DownloadBatch(ctx context.Context, endpoint string, entries []domain.DirectoryEntry, baseDir string, progress domain.FileProgress) BatchResult {
	var files []domain.DirectoryEntry
	for _, e := range entries {
		if e.IsFile() {
			files = append(files, e)
		}
	}

	result := BatchResult{Failures: make(map[string]error)}
	total := len(files)
	if total == 0 {
		return result
	}

	batchSize := c.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	workers := c.optimalWorkers(files)

	runID := ksuid.New().String()
	c.log.Info("[%s] batch download: %d files from %s (%d workers, batches of %d)",
		runID, total, endpoint, workers, batchSize)

	done := 0
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := files[start:end]

		jobs := make(chan domain.DirectoryEntry)
		results := make(chan fileResult)

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for e := range jobs {
					savePath := filepath.Join(baseDir, filepath.FromSlash(e.Path))
					err := c.DownloadFile(ctx, endpoint, e.Path, savePath, DownloadOptions{
						Resume:     true,
						MaxRetries: 2,
					})
					results <- fileResult{path: e.Path, err: err}
				}
			}()
		}

		go func() {
			defer close(jobs)
			for _, e := range batch {
				select {
				case jobs <- e:
				case <-ctx.Done():
					return
				}
			}
		}()

		go func() {
			wg.Wait()
			close(results)
		}()

		for res := range results {
			done++
			if res.err != nil {
				result.Failed++
				result.Failures[res.path] = res.err
				c.log.Error("[%s] failed to download %s: %v", runID, res.path, res.err)
			} else {
				result.Succeeded++
			}
			if progress != nil {
				progress(done, total, res.path)
			}
		}

		if ctx.Err() != nil {
			break
		}
		if end < total {
			_ = sleepCtx(ctx, batchPause)
		}
	}

	c.log.Info("[%s] %s", runID, result.Summary())
	return result
}

// optimalWorkers sizes the pool inversely to average file size: many small
// files parallelize well, few large ones saturate the link on their own.
func (c *Client) optimalWorkers(files []domain.DirectoryEntry) int {
	var totalSize int64
	for _, f := range files {
		totalSize += f.Size
	}
	avg := totalSize / int64(len(files))

	var n int
	switch {
	case avg < 1<<20:
		n = 8
	case avg < 10<<20:
		n = 4
	default:
		n = 2
	}

	if c.cfg.MaxWorkers > 0 && n > c.cfg.MaxWorkers {
		n = c.cfg.MaxWorkers
	}
	if n > len(files) {
		n = len(files)
	}
	return n
}

// DownloadArchive streams the whole remote tree as one zip into savePath.
// Archives are not resumable: a rebuild on the server invalidates any
// partial bytes, so the partial output is deleted on every failure.
func (c *Client) DownloadArchive(ctx context.Context, endpoint, savePath string, progress domain.ByteProgress) error {
	maxRetries := c.cfg.MaxRetries

	var lastErr error
	for attempt := 0; ; attempt++ {
		err := c.archiveOnce(ctx, endpoint, savePath, progress)
		if err == nil {
			c.recorder.RecordAttempt(endpoint, true)
			return nil
		}

		os.Remove(savePath)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err

		if !domain.Retryable(err) {
			c.recorder.RecordAttempt(endpoint, false)
			return err
		}
		if attempt >= maxRetries {
			break
		}

		delay := backoff(attempt+1, 15*time.Second)
		c.log.Warn("archive download attempt %d/%d failed: %v (retrying in %s)",
			attempt+1, maxRetries, err, delay)
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
	}

	c.recorder.RecordAttempt(endpoint, false)
	return fmt.Errorf("bulk download failed after %d retries: %w",
		maxRetries, errors.Join(domain.ErrRetriesExhausted, lastErr))
}

func (c *Client) archiveOnce(ctx context.Context, endpoint, savePath string, progress domain.ByteProgress) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ArchiveTimeoutDuration())
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return errors.Join(domain.ErrPartialWrite, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.urlFor(endpoint, "/download_all"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.markUnresponsive(endpoint)
		return domain.ClassifyNetErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrMalformedResponse, resp.StatusCode)
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	f, err := os.Create(savePath)
	if err != nil {
		return errors.Join(domain.ErrPartialWrite, err)
	}

	written, streamErr := streamBody(ctx, f, resp.Body, 0, total, archiveStartChunk,
		archiveRampChunks, NextArchiveChunkSize, progress)
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

	return nil
}
