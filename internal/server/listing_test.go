package server

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/lanshare/lanshare/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingExampleTree(t *testing.T) {
	ts := newTestServer(t, makeShareTree(t))

	resp, err := rawClient().Get(ts.URL + "/api/files")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "max-age=60", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("ETag"))
	assert.Empty(t, resp.Header.Get("Content-Encoding"))

	var entries []domain.DirectoryEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "docs", entries[0].Path)
	assert.Equal(t, "docs/sub", entries[1].Path)
	assert.Equal(t, "docs/a.txt", entries[2].Path)
	assert.Equal(t, int64(10), entries[2].Size)
}

func TestListingIdempotent(t *testing.T) {
	ts := newTestServer(t, makeShareTree(t))

	get := func() (string, []byte) {
		resp, err := rawClient().Get(ts.URL + "/api/files")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.Header.Get("ETag"), body
	}

	etag1, body1 := get()
	etag2, body2 := get()

	assert.Equal(t, etag1, etag2)
	assert.Equal(t, body1, body2)
}

func TestListingNotModified(t *testing.T) {
	ts := newTestServer(t, makeShareTree(t))

	resp, err := rawClient().Get(ts.URL + "/api/files")
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/files", nil)
	req.Header.Set("If-None-Match", etag)

	resp2, err := rawClient().Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()

	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)
	assert.Equal(t, etag, resp2.Header.Get("ETag"))
	body, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestListingCompressesLargeBody(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 60; i++ {
		name := fmt.Sprintf("a-rather-long-file-name-to-inflate-the-listing-%03d.txt", i)
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0644))
	}
	ts := newTestServer(t, root)

	resp, err := rawClient().Get(ts.URL + "/api/files")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))

	zr, err := gzip.NewReader(resp.Body)
	require.NoError(t, err)
	defer zr.Close()

	var entries []domain.DirectoryEntry
	require.NoError(t, json.NewDecoder(zr).Decode(&entries))
	assert.Len(t, entries, 60)
}

func TestStaticFallback(t *testing.T) {
	ts := newTestServer(t, makeShareTree(t))

	resp, err := http.Get(ts.URL + "/docs/a.txt")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(body))
}

func TestGzipBody(t *testing.T) {
	compressible := bytes.Repeat([]byte("lanshare"), 512)
	out, ok := gzipBody(compressible)
	require.True(t, ok)
	assert.Less(t, len(out), len(compressible)*9/10)

	// Re-compressing a gzip stream cannot save another 10%.
	again, ok := gzipBody(out)
	assert.False(t, ok)
	assert.Nil(t, again)
}
