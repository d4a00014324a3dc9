package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileLogger(t *testing.T, level Level) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	log, err := New(path, level, false)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log, path
}

func TestWritesLeveledLines(t *testing.T) {
	log, path := newFileLogger(t, LevelDebug)

	log.Debug("walking %s", "/srv/share")
	log.Info("serving on port %d", 8000)
	log.Error("transfer failed: %v", os.ErrNotExist)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "[DEBUG] walking /srv/share")
	assert.Contains(t, out, "[INFO] serving on port 8000")
	assert.Contains(t, out, "[ERROR] transfer failed: file does not exist")
}

func TestLevelFilter(t *testing.T) {
	log, path := newFileLogger(t, LevelWarn)

	log.Debug("hidden")
	log.Info("also hidden")
	log.Warn("visible")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LevelError, ParseLevel("Error"))
	assert.Equal(t, LevelFatal, ParseLevel("fatal"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestWriterBridge(t *testing.T) {
	log, path := newFileLogger(t, LevelInfo)

	n, err := log.Write([]byte("GET /api/files | 200\n"))
	require.NoError(t, err)
	assert.Equal(t, 21, n)

	// Blank writes produce no line.
	_, err = log.Write([]byte("\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "[INFO] GET /api/files | 200")
	assert.Equal(t, 1, countLines(out))
}

func countLines(s string) int {
	n := 0
	for _, c := range s {
		if c == '\n' {
			n++
		}
	}
	return n
}
