package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lanshare/lanshare/internal/domain"
)

// List fetches the remote listing. It accepts both gzipped and plain
// bodies; a bad gzip stream falls back to plain JSON parsing before a
// decompression error is surfaced.
func (c *Client) List(ctx context.Context, endpoint string) ([]domain.DirectoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ListTimeoutDuration())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.urlFor(endpoint, "/api/files"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.markUnresponsive(endpoint)
		c.recorder.RecordAttempt(endpoint, false)
		return nil, domain.ClassifyNetErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.recorder.RecordAttempt(endpoint, false)
		return nil, fmt.Errorf("%w: status %d", domain.ErrMalformedResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.markUnresponsive(endpoint)
		c.recorder.RecordAttempt(endpoint, false)
		return nil, domain.ClassifyNetErr(err)
	}

	entries, err := decodeListing(body, resp.Header.Get("Content-Encoding") == "gzip")
	if err != nil {
		c.recorder.RecordAttempt(endpoint, false)
		return nil, err
	}

	c.markSeen(endpoint, len(entries))
	c.recorder.RecordAttempt(endpoint, true)

	return entries, nil
}

func decodeListing(body []byte, gzipped bool) ([]domain.DirectoryEntry, error) {
	if gzipped {
		plain, err := gunzip(body)
		if err != nil {
			// Some proxies strip the encoding but leave the header; try
			// the raw bytes before giving up.
			var entries []domain.DirectoryEntry
			if jsonErr := json.Unmarshal(body, &entries); jsonErr == nil {
				return entries, nil
			}
			return nil, errors.Join(domain.ErrDecompression, err)
		}
		body = plain
	}

	var entries []domain.DirectoryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, errors.Join(domain.ErrMalformedResponse, err)
	}
	return entries, nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
