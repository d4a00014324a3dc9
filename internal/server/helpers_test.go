package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lanshare/lanshare/internal/app"
	"github.com/lanshare/lanshare/internal/config"
	"github.com/lanshare/lanshare/internal/logger"
	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Port: 8000,
		Share: config.ShareConfig{
			CacheTTL:    120,
			Compression: true,
		},
		Transfer: config.TransferConfig{
			OutDir:         "./downloads",
			Resume:         true,
			MaxRetries:     3,
			BatchSize:      50,
			MaxWorkers:     8,
			ListTimeout:    15,
			FileTimeout:    60,
			ArchiveTimeout: 180,
		},
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(filepath.Join(t.TempDir(), "test.log"), logger.LevelError, false)
	require.NoError(t, err)
	return log
}

func newTestServer(t *testing.T, shareDir string) *httptest.Server {
	t.Helper()

	appCtx := app.NewContext(testConfig(), testLogger(t), shareDir)

	e := echo.New()
	RegisterRoutes(e, appCtx)

	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	return ts
}

// rawClient never negotiates transparent gzip so tests see the wire bytes.
func rawClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{DisableCompression: true},
	}
}

func makeShareTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("0123456789"), 0644))
	return root
}
